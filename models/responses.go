package models

import "time"

// TaskResponse 任务响应结构体
type TaskResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	IsCompleted  bool       `json:"isCompleted"`
	Notes        string     `json:"notes"`
	DueDate      *time.Time `json:"dueDate"`
	InProgressAt *time.Time `json:"inProgressAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	LastModified time.Time  `json:"lastModified"`
}

// NewTaskResponse 由任务模型构造响应
func NewTaskResponse(t *Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		Title:        t.Title,
		IsCompleted:  t.IsCompleted,
		Notes:        t.Notes,
		DueDate:      t.DueDate,
		InProgressAt: t.InProgressAt,
		CompletedAt:  t.CompletedAt,
		LastModified: t.LastModified,
	}
}

// InboundEmailResponse 邮件回复Webhook响应结构体
type InboundEmailResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	TaskID  string `json:"taskId"`
	Result  string `json:"result"`
}

// SweepResponse 定时扫描响应结构体
type SweepResponse struct {
	InstancesProcessed int `json:"instancesProcessed"`
	OverdueAlerts      int `json:"overdueAlerts"`
}

// ActionLogResponse 任务动作日志响应结构体
type ActionLogResponse struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Source    string    `json:"source"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}
