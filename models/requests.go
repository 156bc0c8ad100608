package models

import (
	"time"
)

// CreateTaskRequest 创建任务请求结构体
type CreateTaskRequest struct {
	Title   string     `json:"title" binding:"required"`
	Notes   string     `json:"notes"`
	DueDate *time.Time `json:"dueDate"`
}

// 添加时区转换方法
func (r *CreateTaskRequest) ConvertToUTC() {
	if r.DueDate != nil {
		utcTime := r.DueDate.UTC()
		r.DueDate = &utcTime
	}
}

// UpdateDueDateRequest 修改截止时间请求结构体
type UpdateDueDateRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

func (r *UpdateDueDateRequest) ConvertToUTC() {
	if r.DueDate != nil {
		utcTime := r.DueDate.UTC()
		r.DueDate = &utcTime
	}
}

// ToggleCompletionRequest 完成状态切换请求结构体
type ToggleCompletionRequest struct {
	IsCompleted bool `json:"isCompleted"`
}

// InboundEmailRequest 邮件回复Webhook请求结构体
type InboundEmailRequest struct {
	From      string `json:"from" binding:"required"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	ReplyTo   string `json:"replyTo"`
	MessageID string `json:"messageId"`
}

// IssueTokenRequest 内部签发令牌请求结构体
type IssueTokenRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Email    string `json:"email"`
	Username string `json:"username"`
}
