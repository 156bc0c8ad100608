package services

import (
	"context"
	"fmt"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/utils"
)

// DispatchResult 指令执行结果，回传给Webhook调用方
type DispatchResult struct {
	Success bool
	Action  string
	TaskID  string
	Result  string
}

// ActionDispatcher 动作分发器，将解析出的邮件指令落到任务上并记录动作日志
type ActionDispatcher struct {
	store     TaskStore
	instances InstanceStore
	guard     *RescheduleGuard
	notifier  *CompletionNotifier
	mailer    Mailer
}

func NewActionDispatcher(store TaskStore, instances InstanceStore, guard *RescheduleGuard, notifier *CompletionNotifier, mailer Mailer) *ActionDispatcher {
	return &ActionDispatcher{store: store, instances: instances, guard: guard, notifier: notifier, mailer: mailer}
}

// Dispatch 执行一条邮件指令。每个分支都会追加动作日志并尽力向发件人
// 回一封确认邮件（成功或失败都回）。改期指令要求已解析出的时刻，否则
// 按解析失败处理且不做任何变更。
func (d *ActionDispatcher) Dispatch(ctx context.Context, cmd EmailCommand, task *models.Task, sender string) (DispatchResult, error) {
	now := time.Now().UTC()

	switch cmd.Action {
	case CommandComplete:
		return d.dispatchComplete(ctx, task, sender, now)
	case CommandInProgress:
		return d.dispatchInProgress(ctx, task, sender, now)
	case CommandReschedule:
		return d.dispatchReschedule(ctx, cmd, task, sender, now)
	default:
		return d.dispatchNoAction(ctx, task, sender, now)
	}
}

func (d *ActionDispatcher) dispatchComplete(ctx context.Context, task *models.Task, sender string, now time.Time) (DispatchResult, error) {
	fields := map[string]interface{}{
		"is_completed":  true,
		"completed_at":  now,
		"last_modified": now,
	}
	if err := d.store.UpdateTaskFields(ctx, task.ID, fields); err != nil {
		return DispatchResult{}, fmt.Errorf("更新任务完成状态失败: %w", err)
	}
	task.IsCompleted = true
	task.CompletedAt = &now
	task.LastModified = now

	// 完成的任务不再需要剩余提醒
	if _, err := d.instances.CancelPendingByTask(ctx, task.ID); err != nil {
		config.Logger.Errorw("取消提醒实例失败", "error", err, "taskID", task.ID)
	}

	d.appendLog(ctx, task.ID, models.ActionCompleted, sender, "completed via email reply", now)
	d.sendConfirmation(ctx, task, sender, fmt.Sprintf("Task \"%s\" has been marked as completed. Nice work!", task.Title))

	// 完成通知走独立的幂等通道
	if err := d.notifier.NotifyToggle(ctx, task, sender); err != nil {
		config.Logger.Errorw("完成通知发送失败", "error", err, "taskID", task.ID)
	}

	return DispatchResult{Success: true, Action: CommandComplete, TaskID: task.ID, Result: "task completed"}, nil
}

func (d *ActionDispatcher) dispatchInProgress(ctx context.Context, task *models.Task, sender string, now time.Time) (DispatchResult, error) {
	fields := map[string]interface{}{
		"in_progress_at": now,
		"last_modified":  now,
	}
	if err := d.store.UpdateTaskFields(ctx, task.ID, fields); err != nil {
		return DispatchResult{}, fmt.Errorf("更新任务进行中状态失败: %w", err)
	}
	task.InProgressAt = &now
	task.LastModified = now

	d.appendLog(ctx, task.ID, models.ActionInProgress, sender, "marked in progress via email reply", now)
	d.sendConfirmation(ctx, task, sender, fmt.Sprintf("Got it — task \"%s\" is marked as in progress.", task.Title))

	return DispatchResult{Success: true, Action: CommandInProgress, TaskID: task.ID, Result: "task marked in progress"}, nil
}

func (d *ActionDispatcher) dispatchReschedule(ctx context.Context, cmd EmailCommand, task *models.Task, sender string, now time.Time) (DispatchResult, error) {
	if cmd.ResolvedTime == nil {
		// 解析失败降级为指令失败，不做任何变更，但仍回确认邮件
		d.sendConfirmation(ctx, task, sender,
			fmt.Sprintf("Sorry, we couldn't understand the reschedule time \"%s\" for task \"%s\". The task was not changed.", cmd.RawExpr, task.Title))
		return DispatchResult{
			Success: false,
			Action:  CommandReschedule,
			TaskID:  task.ID,
			Result:  "invalid reschedule time",
		}, nil
	}

	oldDue := task.DueDate
	newDue := cmd.ResolvedTime.UTC()

	if err := d.guard.HandleDueDateChange(ctx, task, oldDue, &newDue, now); err != nil {
		return DispatchResult{}, err
	}

	fields := map[string]interface{}{
		"due_date":      newDue,
		"last_modified": now,
	}
	if err := d.store.UpdateTaskFields(ctx, task.ID, fields); err != nil {
		return DispatchResult{}, fmt.Errorf("更新任务截止时间失败: %w", err)
	}
	task.LastModified = now

	oldDueText := "none"
	if oldDue != nil {
		oldDueText = oldDue.Format(time.RFC3339)
	}
	d.appendLog(ctx, task.ID, models.ActionRescheduled, sender,
		fmt.Sprintf("rescheduled via email reply: %s -> %s", oldDueText, newDue.Format(time.RFC3339)), now)
	d.sendConfirmation(ctx, task, sender,
		fmt.Sprintf("Task \"%s\" has been rescheduled to %s.", task.Title, newDue.Format("2006-01-02 15:04 MST")))

	return DispatchResult{Success: true, Action: CommandReschedule, TaskID: task.ID, Result: "task rescheduled"}, nil
}

func (d *ActionDispatcher) dispatchNoAction(ctx context.Context, task *models.Task, sender string, now time.Time) (DispatchResult, error) {
	d.appendLog(ctx, task.ID, models.ActionNoAction, sender, "reply received, no action taken", now)
	d.sendConfirmation(ctx, task, sender,
		fmt.Sprintf("Thanks for the reply — task \"%s\" was left unchanged. Reply with \"done\", \"working on it\" or \"reschedule <time>\" to act on it.", task.Title))

	return DispatchResult{Success: true, Action: CommandNoAction, TaskID: task.ID, Result: "no action taken"}, nil
}

// appendLog 追加动作日志，失败只记错不中断
func (d *ActionDispatcher) appendLog(ctx context.Context, taskID, action, actor string, detail string, now time.Time) {
	entry := &models.TaskActionLog{
		ID:        utils.GenerateID(),
		TaskID:    taskID,
		Action:    action,
		Actor:     actor,
		Source:    models.ActionSourceEmailReply,
		Detail:    detail,
		CreatedAt: now,
	}
	if err := d.store.AppendActionLog(ctx, entry); err != nil {
		config.Logger.Errorw("追加动作日志失败", "error", err, "taskID", taskID, "action", action)
	}
}

// sendConfirmation 给发件人回确认邮件，失败只记错
func (d *ActionDispatcher) sendConfirmation(ctx context.Context, task *models.Task, sender, text string) {
	msg := OutboundMessage{
		To:       sender,
		ReplyTo:  replyAddress(task.ID),
		Subject:  fmt.Sprintf("Re: %s", task.Title),
		TextBody: text + "\n",
		HTMLBody: fmt.Sprintf("<p>%s</p>", text),
	}
	if _, err := sendWithRetry(ctx, d.mailer, msg); err != nil {
		config.Logger.Errorw("确认邮件发送失败", "error", err, "taskID", task.ID, "to", sender)
	}
}
