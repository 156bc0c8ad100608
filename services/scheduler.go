package services

import (
	"context"
	"fmt"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/utils"
)

// 提前提醒档位与对应的提前量
var reminderOffsets = []struct {
	Kind   string
	Offset time.Duration
}{
	{models.ReminderKindBefore10, 10 * time.Minute},
	{models.ReminderKindBefore5, 5 * time.Minute},
	{models.ReminderKindBefore1, 1 * time.Minute},
}

// ReminderScheduler 提醒调度器，负责为任务生成截止前提醒实例
type ReminderScheduler struct {
	instances InstanceStore
}

func NewReminderScheduler(instances InstanceStore) *ReminderScheduler {
	return &ReminderScheduler{instances: instances}
}

// Schedule 重建任务的提醒实例：先取消所有 pending 实例，再按截止时间
// 前10/5/1分钟生成新实例，已过时刻的候选直接丢弃。截止时间为空或已过期
// 时不生成任何实例，逾期任务由扫描的逾期通道处理。
// 返回新建实例数。
func (s *ReminderScheduler) Schedule(ctx context.Context, task *models.Task, now time.Time) (int, error) {
	cancelled, err := s.instances.CancelPendingByTask(ctx, task.ID)
	if err != nil {
		return 0, fmt.Errorf("取消旧提醒实例失败: %w", err)
	}
	if cancelled > 0 {
		config.Logger.Debugw("已取消旧提醒实例", "taskID", task.ID, "count", cancelled)
	}

	if task.DueDate == nil || !task.DueDate.After(now) {
		return 0, nil
	}

	created := 0
	for _, o := range reminderOffsets {
		scheduledFor := task.DueDate.Add(-o.Offset)
		if !scheduledFor.After(now) {
			continue
		}
		inst := &models.ReminderInstance{
			ID:           utils.GenerateID(),
			TaskID:       task.ID,
			UserID:       task.UserID,
			Kind:         o.Kind,
			ScheduledFor: scheduledFor,
			Status:       models.ReminderStatusPending,
			CreatedAt:    now,
		}
		if err := s.instances.CreateInstance(ctx, inst); err != nil {
			return created, fmt.Errorf("创建提醒实例失败: %w", err)
		}
		created++
	}

	config.Logger.Infow("提醒实例已生成",
		"taskID", task.ID,
		"dueDate", task.DueDate,
		"created", created,
	)
	return created, nil
}
