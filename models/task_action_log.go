package models

import "time"

// 任务动作类型
const (
	ActionCompleted   = "completed"
	ActionInProgress  = "in_progress"
	ActionRescheduled = "rescheduled"
	ActionNoAction    = "no_action"
)

// 动作来源
const (
	ActionSourceEmailReply = "email_reply"
	ActionSourceAPI        = "api"
)

// TaskActionLog 任务动作日志，只追加不修改
type TaskActionLog struct {
	ID        string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	TaskID    string    `gorm:"type:varchar(50);index:idx_task_action_logs_task" json:"task_id"`
	Action    string    `gorm:"type:varchar(30)" json:"action"`
	Actor     string    `gorm:"type:varchar(100)" json:"actor"`
	Source    string    `gorm:"type:varchar(30)" json:"source"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// 表名
func (TaskActionLog) TableName() string {
	return "task_action_logs"
}
