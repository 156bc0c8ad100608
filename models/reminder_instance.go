package models

import "time"

// 提前提醒档位
const (
	ReminderKindBefore10 = "before_10"
	ReminderKindBefore5  = "before_5"
	ReminderKindBefore1  = "before_1"
)

// 提醒实例状态，sent 与 cancelled 为终态
const (
	ReminderStatusPending   = "pending"
	ReminderStatusSent      = "sent"
	ReminderStatusCancelled = "cancelled"
)

// ReminderInstance 提醒实例模型，对应截止时间前的一次定时提醒
type ReminderInstance struct {
	ID           string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	TaskID       string     `gorm:"type:varchar(50);index:idx_reminder_instances_task" json:"task_id"`
	UserID       string     `gorm:"type:varchar(50)" json:"user_id"`
	Kind         string     `gorm:"type:varchar(30)" json:"kind"`
	ScheduledFor time.Time  `gorm:"index:idx_reminder_instances_due" json:"scheduledFor"`
	Status       string     `gorm:"type:varchar(20);index:idx_reminder_instances_due" json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
}

// 表名
func (ReminderInstance) TableName() string {
	return "reminder_instances"
}
