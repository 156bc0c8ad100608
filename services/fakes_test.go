package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"

	"go.uber.org/zap"
)

func init() {
	config.Logger = zap.NewNop().Sugar()
}

// fakeStore 内存版任务与提醒实例存取，测试用
type fakeStore struct {
	mu        sync.Mutex
	tasks     map[string]*models.Task
	users     map[string]*models.User
	instances map[string]*models.ReminderInstance
	logs      []models.TaskActionLog

	failUpdates bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:     make(map[string]*models.Task),
		users:     make(map[string]*models.User),
		instances: make(map[string]*models.ReminderInstance),
	}
}

func (s *fakeStore) addTask(t *models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *fakeStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, errors.New("用户不存在")
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) UpdateTaskFields(ctx context.Context, taskID string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdates {
		return errors.New("更新失败")
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	for key, value := range fields {
		switch key {
		case "is_completed":
			task.IsCompleted = value.(bool)
		case "completed_at":
			task.CompletedAt = toTimePtr(value)
		case "in_progress_at":
			task.InProgressAt = toTimePtr(value)
		case "due_date":
			task.DueDate = toTimePtr(value)
		case "last_modified":
			task.LastModified = value.(time.Time)
		case "last_completion_email_at":
			task.LastCompletionEmailAt = toTimePtr(value)
		case "last_uncomplete_email_at":
			task.LastUncompleteEmailAt = toTimePtr(value)
		default:
			return fmt.Errorf("未知字段: %s", key)
		}
	}
	return nil
}

func toTimePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}

func (s *fakeStore) ListOverdueTasks(ctx context.Context, now time.Time) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Task
	for _, task := range s.tasks {
		if !task.IsCompleted && task.DueDate != nil && task.DueDate.Before(now) {
			result = append(result, *task)
		}
	}
	return result, nil
}

func (s *fakeStore) AppendActionLog(ctx context.Context, entry *models.TaskActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *fakeStore) CreateInstance(ctx context.Context, inst *models.ReminderInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *inst
	s.instances[inst.ID] = &copied
	return nil
}

func (s *fakeStore) CancelPendingByTask(ctx context.Context, taskID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, inst := range s.instances {
		if inst.TaskID == taskID && inst.Status == models.ReminderStatusPending {
			inst.Status = models.ReminderStatusCancelled
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ListDuePending(ctx context.Context, now time.Time) ([]models.ReminderInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.ReminderInstance
	for _, inst := range s.instances {
		if inst.Status == models.ReminderStatusPending && !inst.ScheduledFor.After(now) {
			result = append(result, *inst)
		}
	}
	return result, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok || inst.Status != models.ReminderStatusPending {
		return false, nil
	}
	inst.Status = models.ReminderStatusSent
	inst.SentAt = &sentAt
	return true, nil
}

func (s *fakeStore) CancelInstance(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok || inst.Status != models.ReminderStatusPending {
		return false, nil
	}
	inst.Status = models.ReminderStatusCancelled
	return true, nil
}

// instancesByStatus 按状态统计任务的实例数
func (s *fakeStore) instancesByStatus(taskID, status string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inst := range s.instances {
		if inst.TaskID == taskID && inst.Status == status {
			n++
		}
	}
	return n
}

// fakeMailer 记录发出的邮件，可注入瞬时失败
type fakeMailer struct {
	mu       sync.Mutex
	sent     []OutboundMessage
	failures int
}

func (m *fakeMailer) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return "", errors.New("smtp: 瞬时失败")
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("delivery-%d", len(m.sent)), nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) lastMessage() *OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	msg := m.sent[len(m.sent)-1]
	return &msg
}

// fakeCooldownStore 内存版冷却记录
type fakeCooldownStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newFakeCooldownStore() *fakeCooldownStore {
	return &fakeCooldownStore{entries: make(map[string]time.Time)}
}

func (s *fakeCooldownStore) Acquire(ctx context.Context, taskID string, tier Tier) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, t := range TiersAtOrAbove(tier) {
		if expiry, ok := s.entries[cooldownKey(taskID, t)]; ok && expiry.After(now) {
			return false, nil
		}
	}
	s.entries[cooldownKey(taskID, tier)] = now.Add(overdueCooldown)
	return true, nil
}
