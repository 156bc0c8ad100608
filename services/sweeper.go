package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
)

// SweepResult 一次定时扫描的统计结果
type SweepResult struct {
	InstancesProcessed int
	OverdueAlerts      int
}

// Sweeper 到期扫描器。由外部调度器按固定周期触发，每次运行两条独立
// 通道：到期提醒实例的投递，以及逾期任务的升级告警。进程内不保有任何
// 定时器，全部状态持久化，多实例并发触发也能保证单封投递。
type Sweeper struct {
	store     TaskStore
	instances InstanceStore
	cooldowns CooldownStore
	mailer    Mailer
}

func NewSweeper(store TaskStore, instances InstanceStore, cooldowns CooldownStore, mailer Mailer) *Sweeper {
	return &Sweeper{store: store, instances: instances, cooldowns: cooldowns, mailer: mailer}
}

// Run 执行一次扫描。单个任务或实例的失败只记错不中断本轮其余处理。
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	processed, err := s.runBeforeDuePass(ctx, now)
	result.InstancesProcessed = processed
	if err != nil {
		return result, err
	}

	alerts, err := s.runOverduePass(ctx, now)
	result.OverdueAlerts = alerts
	if err != nil {
		return result, err
	}

	config.Logger.Infow("扫描完成",
		"instancesProcessed", result.InstancesProcessed,
		"overdueAlerts", result.OverdueAlerts,
	)
	return result, nil
}

// runBeforeDuePass 投递已到时刻的 pending 提醒实例。先做 pending→sent
// 条件更新抢占实例，竞争失败说明另一次扫描已处理，静默跳过；抢占成功
// 后再发邮件，保证同一实例至多一封。
func (s *Sweeper) runBeforeDuePass(ctx context.Context, now time.Time) (int, error) {
	due, err := s.instances.ListDuePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("查询到期提醒实例失败: %w", err)
	}

	processed := 0
	for _, inst := range due {
		task, err := s.store.GetTask(ctx, inst.TaskID)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				// 任务已删除，实例作废
				if ok, _ := s.instances.CancelInstance(ctx, inst.ID); ok {
					processed++
				}
				continue
			}
			config.Logger.Errorw("查询任务失败，跳过该实例", "error", err, "instanceID", inst.ID)
			continue
		}

		// 任务已完成则取消实例，不发邮件
		if task.IsCompleted {
			if ok, err := s.instances.CancelInstance(ctx, inst.ID); err != nil {
				config.Logger.Errorw("取消提醒实例失败", "error", err, "instanceID", inst.ID)
			} else if ok {
				processed++
			}
			continue
		}

		ok, err := s.instances.MarkSent(ctx, inst.ID, now)
		if err != nil {
			config.Logger.Errorw("提醒实例状态更新失败", "error", err, "instanceID", inst.ID)
			continue
		}
		if !ok {
			// 竞争失败，另一次扫描已处理
			continue
		}
		processed++

		if err := s.sendBeforeDueReminder(ctx, task, inst); err != nil {
			// 邮件丢失只降级服务，不回滚实例状态
			config.Logger.Errorw("到期提醒发送失败", "error", err, "instanceID", inst.ID, "taskID", task.ID)
		}
	}

	return processed, nil
}

// runOverduePass 对所有未完成且已逾期的任务计算升级档位并告警。档位
// 不落库，每轮由截止时间现算；同档及更高档位30分钟内已告警过则跳过。
func (s *Sweeper) runOverduePass(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.store.ListOverdueTasks(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("查询逾期任务失败: %w", err)
	}

	alerts := 0
	for i := range tasks {
		task := &tasks[i]
		minutesOverdue := int(now.Sub(*task.DueDate) / time.Minute)
		tier := OverdueTier(minutesOverdue)
		if tier == TierNone {
			continue
		}

		allowed, err := s.cooldowns.Acquire(ctx, task.ID, tier)
		if err != nil {
			config.Logger.Errorw("冷却记录读写失败，跳过该任务", "error", err, "taskID", task.ID)
			continue
		}
		if !allowed {
			continue
		}

		if err := s.sendOverdueAlert(ctx, task, tier, minutesOverdue); err != nil {
			config.Logger.Errorw("逾期告警发送失败", "error", err, "taskID", task.ID, "tier", tier)
			continue
		}
		alerts++
	}

	return alerts, nil
}

func (s *Sweeper) sendBeforeDueReminder(ctx context.Context, task *models.Task, inst models.ReminderInstance) error {
	user, err := s.store.GetUser(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("获取任务所有者失败: %w", err)
	}

	var lead string
	switch inst.Kind {
	case models.ReminderKindBefore10:
		lead = "10 minutes"
	case models.ReminderKindBefore5:
		lead = "5 minutes"
	default:
		lead = "1 minute"
	}

	text := fmt.Sprintf(
		"Your task \"%s\" is due in %s (at %s).\n\nReply \"done\" to complete it, \"working on it\" to mark it in progress, or \"reschedule <time>\" to move it.",
		task.Title, lead, task.DueDate.Format("2006-01-02 15:04 MST"))

	msg := OutboundMessage{
		To:       user.Email,
		ReplyTo:  replyAddress(task.ID),
		Subject:  fmt.Sprintf("Reminder: \"%s\" is due in %s", task.Title, lead),
		TextBody: text,
		HTMLBody: fmt.Sprintf(
			"<p>Your task <b>%s</b> is due in %s (at %s).</p><p>Reply <b>done</b> to complete it, <b>working on it</b> to mark it in progress, or <b>reschedule &lt;time&gt;</b> to move it.</p>",
			task.Title, lead, task.DueDate.Format("2006-01-02 15:04 MST")),
	}

	_, err = sendWithRetry(ctx, s.mailer, msg)
	return err
}

func (s *Sweeper) sendOverdueAlert(ctx context.Context, task *models.Task, tier Tier, minutesOverdue int) error {
	user, err := s.store.GetUser(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("获取任务所有者失败: %w", err)
	}

	text := fmt.Sprintf(
		"Your task \"%s\" is now more than %s overdue (due at %s, %d minutes ago).\n\nReply \"done\" if it's finished, or \"reschedule <time>\" to pick a new due time.",
		task.Title, tier.Label(), task.DueDate.Format("2006-01-02 15:04 MST"), minutesOverdue)

	msg := OutboundMessage{
		To:       user.Email,
		ReplyTo:  replyAddress(task.ID),
		Subject:  fmt.Sprintf("Overdue: \"%s\" (%s past due)", task.Title, tier.Label()),
		TextBody: text,
		HTMLBody: fmt.Sprintf(
			"<p>Your task <b>%s</b> is now more than %s overdue (due at %s, %d minutes ago).</p><p>Reply <b>done</b> if it's finished, or <b>reschedule &lt;time&gt;</b> to pick a new due time.</p>",
			task.Title, tier.Label(), task.DueDate.Format("2006-01-02 15:04 MST"), minutesOverdue),
	}

	_, err = sendWithRetry(ctx, s.mailer, msg)
	return err
}
