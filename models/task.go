package models

import (
	"time"
)

// Task 任务模型
type Task struct {
	ID          string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(100)" json:"title"`
	IsCompleted bool       `json:"isCompleted"`
	Notes       string     `gorm:"type:text" json:"notes"`
	DueDate     *time.Time `json:"dueDate"`
	UserID      string     `gorm:"type:varchar(50);index:idx_tasks_user" json:"user_id"`

	// 动作时间戳，由邮件指令或接口写入
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	InProgressAt *time.Time `json:"inProgressAt,omitempty"`
	LastModified time.Time  `json:"lastModified"`

	// 完成/取消完成通知去重时间戳，详见 services.CompletionNotifier
	LastCompletionEmailAt *time.Time `json:"-"`
	LastUncompleteEmailAt *time.Time `json:"-"`
}

// IsOverdue 判断任务在给定时刻是否已逾期
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(now)
}
