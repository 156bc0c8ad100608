package services

import (
	"context"
	"fmt"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
)

// CompletionNotifier 完成状态通知器。以任务上的去重时间戳为幂等依据：
// 对应时间戳已不早于本次更新时间则视为该版本已通知过，直接跳过，
// 无需加锁。
type CompletionNotifier struct {
	store  TaskStore
	mailer Mailer
}

func NewCompletionNotifier(store TaskStore, mailer Mailer) *CompletionNotifier {
	return &CompletionNotifier{store: store, mailer: mailer}
}

// NotifyToggle 在完成标记翻转后通知任务所有者。actor 为操作者的展示
// 身份，为空时使用通用称呼。发送后尽力回写去重时间戳，回写失败不算
// 发送失败。
func (n *CompletionNotifier) NotifyToggle(ctx context.Context, task *models.Task, actor string) error {
	// 幂等判断：该版本是否已通知过
	var stamp *time.Time
	var stampField string
	if task.IsCompleted {
		stamp = task.LastCompletionEmailAt
		stampField = "last_completion_email_at"
	} else {
		stamp = task.LastUncompleteEmailAt
		stampField = "last_uncomplete_email_at"
	}
	if stamp != nil && !stamp.Before(task.LastModified) {
		config.Logger.Debugw("该版本已发送过完成通知，跳过", "taskID", task.ID, "completed", task.IsCompleted)
		return nil
	}

	user, err := n.store.GetUser(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("获取任务所有者失败: %w", err)
	}

	if actor == "" {
		actor = "Someone"
	}

	var subject, text string
	if task.IsCompleted {
		subject = fmt.Sprintf("Task completed: %s", task.Title)
		text = fmt.Sprintf("%s marked the task \"%s\" as completed.", actor, task.Title)
	} else {
		subject = fmt.Sprintf("Task reopened: %s", task.Title)
		text = fmt.Sprintf("%s marked the task \"%s\" as not completed.", actor, task.Title)
	}

	msg := OutboundMessage{
		To:       user.Email,
		ReplyTo:  replyAddress(task.ID),
		Subject:  subject,
		TextBody: text + "\n",
		HTMLBody: fmt.Sprintf("<p>%s</p>", text),
	}
	if _, err := sendWithRetry(ctx, n.mailer, msg); err != nil {
		return fmt.Errorf("完成通知发送失败: %w", err)
	}

	// 尽力回写去重时间戳，失败只记错
	now := time.Now().UTC()
	if err := n.store.UpdateTaskFields(ctx, task.ID, map[string]interface{}{stampField: now}); err != nil {
		config.Logger.Errorw("回写通知去重时间戳失败", "error", err, "taskID", task.ID)
	} else {
		if task.IsCompleted {
			task.LastCompletionEmailAt = &now
		} else {
			task.LastUncompleteEmailAt = &now
		}
	}

	return nil
}
