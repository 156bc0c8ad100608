package services

import (
	"context"
	"fmt"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
)

// 临近截止的判定窗口：旧截止时间距当前不足10分钟视为临时改期
const lastMinuteWindow = 10 * time.Minute

// RescheduleGuard 改期守卫。截止时间变更时取消旧的 pending 提醒实例
// （sent 实例一律保留），必要时告警临时改期，再交由调度器重建实例。
type RescheduleGuard struct {
	store     TaskStore
	instances InstanceStore
	scheduler *ReminderScheduler
	mailer    Mailer
}

func NewRescheduleGuard(store TaskStore, instances InstanceStore, scheduler *ReminderScheduler, mailer Mailer) *RescheduleGuard {
	return &RescheduleGuard{store: store, instances: instances, scheduler: scheduler, mailer: mailer}
}

// HandleDueDateChange 处理一次截止时间变更。task 的 DueDate 会被更新为
// newDue，持久化由调用方负责。
func (g *RescheduleGuard) HandleDueDateChange(ctx context.Context, task *models.Task, oldDue, newDue *time.Time, now time.Time) error {
	// 旧截止时间临近时发一次性告警
	if oldDue != nil && oldDue.After(now) && oldDue.Sub(now) < lastMinuteWindow {
		g.sendLastMinuteAlert(ctx, task, oldDue, newDue)
	}

	// 取消旧截止时间的 pending 实例，sent 实例保持不变
	if _, err := g.instances.CancelPendingByTask(ctx, task.ID); err != nil {
		return fmt.Errorf("取消旧提醒实例失败: %w", err)
	}

	task.DueDate = newDue
	if _, err := g.scheduler.Schedule(ctx, task, now); err != nil {
		return err
	}

	return nil
}

func (g *RescheduleGuard) sendLastMinuteAlert(ctx context.Context, task *models.Task, oldDue, newDue *time.Time) {
	user, err := g.store.GetUser(ctx, task.UserID)
	if err != nil {
		config.Logger.Errorw("获取任务所有者失败，跳过临时改期告警", "error", err, "taskID", task.ID)
		return
	}

	newDueText := "no due date"
	if newDue != nil {
		newDueText = newDue.Format("2006-01-02 15:04 MST")
	}

	msg := OutboundMessage{
		To:      user.Email,
		ReplyTo: replyAddress(task.ID),
		Subject: fmt.Sprintf("Heads up: \"%s\" was rescheduled at the last minute", task.Title),
		TextBody: fmt.Sprintf(
			"Your task \"%s\" was due at %s (less than 10 minutes away) and has just been moved.\nNew due time: %s\n",
			task.Title, oldDue.Format("2006-01-02 15:04 MST"), newDueText),
		HTMLBody: fmt.Sprintf(
			"<p>Your task <b>%s</b> was due at %s (less than 10 minutes away) and has just been moved.</p><p>New due time: <b>%s</b></p>",
			task.Title, oldDue.Format("2006-01-02 15:04 MST"), newDueText),
	}

	if _, err := sendWithRetry(ctx, g.mailer, msg); err != nil {
		// 告警丢失不阻断改期流程
		config.Logger.Errorw("临时改期告警发送失败", "error", err, "taskID", task.ID)
	}
}
