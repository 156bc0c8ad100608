package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"RemindlyGo/models"
)

func newGuardFixture() (*fakeStore, *fakeMailer, *RescheduleGuard) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	scheduler := NewReminderScheduler(store)
	guard := NewRescheduleGuard(store, store, scheduler, mailer)
	store.addUser(&models.User{ID: "u1", Username: "小王", Email: "wang@example.com"})
	return store, mailer, guard
}

func lastMinuteAlertCount(m *fakeMailer) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.sent {
		if strings.Contains(msg.Subject, "rescheduled at the last minute") {
			n++
		}
	}
	return n
}

// 旧截止时间距当前不足10分钟：告警一次，sent 保留，pending 取消
func TestGuardLastMinuteReschedule(t *testing.T) {
	store, mailer, guard := newGuardFixture()
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	oldDue := now.Add(5 * time.Minute)
	task := &models.Task{ID: "t1", UserID: "u1", Title: "上线", DueDate: &oldDue}
	store.addTask(task)

	// 一个已投递的实例和一个还没到期的实例
	sentAt := now.Add(-5 * time.Minute)
	store.CreateInstance(ctx, &models.ReminderInstance{
		ID: "i-sent", TaskID: "t1", UserID: "u1",
		Kind: models.ReminderKindBefore10, ScheduledFor: oldDue.Add(-10 * time.Minute),
		Status: models.ReminderStatusSent, SentAt: &sentAt,
	})
	store.CreateInstance(ctx, &models.ReminderInstance{
		ID: "i-pending", TaskID: "t1", UserID: "u1",
		Kind: models.ReminderKindBefore1, ScheduledFor: oldDue.Add(-1 * time.Minute),
		Status: models.ReminderStatusPending,
	})

	newDue := now.Add(2 * time.Hour)
	if err := guard.HandleDueDateChange(ctx, task, &oldDue, &newDue, now); err != nil {
		t.Fatal(err)
	}

	if n := lastMinuteAlertCount(mailer); n != 1 {
		t.Errorf("临时改期告警数 = %d, want 1", n)
	}
	if n := store.instancesByStatus("t1", models.ReminderStatusSent); n != 1 {
		t.Errorf("sent 实例数 = %d, want 1（不可回退）", n)
	}
	// 旧 pending 已取消，新截止时间重建了3个 pending
	if n := store.instancesByStatus("t1", models.ReminderStatusCancelled); n != 1 {
		t.Errorf("cancelled 实例数 = %d, want 1", n)
	}
	if n := store.instancesByStatus("t1", models.ReminderStatusPending); n != 3 {
		t.Errorf("pending 实例数 = %d, want 3", n)
	}
	if task.DueDate == nil || !task.DueDate.Equal(newDue) {
		t.Errorf("task.DueDate = %v, want %v", task.DueDate, newDue)
	}
}

// 旧截止时间还很远：不告警，实例照常轮换
func TestGuardNormalReschedule(t *testing.T) {
	store, mailer, guard := newGuardFixture()
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	oldDue := now.Add(1 * time.Hour)
	task := &models.Task{ID: "t1", UserID: "u1", Title: "上线", DueDate: &oldDue}
	store.addTask(task)
	store.CreateInstance(ctx, &models.ReminderInstance{
		ID: "i-pending", TaskID: "t1", UserID: "u1",
		Kind: models.ReminderKindBefore10, ScheduledFor: oldDue.Add(-10 * time.Minute),
		Status: models.ReminderStatusPending,
	})

	newDue := now.Add(3 * time.Hour)
	if err := guard.HandleDueDateChange(ctx, task, &oldDue, &newDue, now); err != nil {
		t.Fatal(err)
	}

	if n := lastMinuteAlertCount(mailer); n != 0 {
		t.Errorf("临时改期告警数 = %d, want 0", n)
	}
	if n := store.instancesByStatus("t1", models.ReminderStatusCancelled); n != 1 {
		t.Errorf("cancelled 实例数 = %d, want 1", n)
	}
	if n := store.instancesByStatus("t1", models.ReminderStatusPending); n != 3 {
		t.Errorf("pending 实例数 = %d, want 3", n)
	}
}

// 截止时间清空：只取消，不重建
func TestGuardClearDueDate(t *testing.T) {
	store, mailer, guard := newGuardFixture()
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	oldDue := now.Add(1 * time.Hour)
	task := &models.Task{ID: "t1", UserID: "u1", DueDate: &oldDue}
	store.addTask(task)
	store.CreateInstance(ctx, &models.ReminderInstance{
		ID: "i-pending", TaskID: "t1", UserID: "u1",
		Kind: models.ReminderKindBefore10, ScheduledFor: oldDue.Add(-10 * time.Minute),
		Status: models.ReminderStatusPending,
	})

	if err := guard.HandleDueDateChange(ctx, task, &oldDue, nil, now); err != nil {
		t.Fatal(err)
	}

	if n := lastMinuteAlertCount(mailer); n != 0 {
		t.Errorf("告警数 = %d, want 0", n)
	}
	if n := store.instancesByStatus("t1", models.ReminderStatusPending); n != 0 {
		t.Errorf("pending 实例数 = %d, want 0", n)
	}
	if task.DueDate != nil {
		t.Errorf("task.DueDate = %v, want nil", task.DueDate)
	}
}
