package services

import (
	"context"
	"errors"
	"time"

	"RemindlyGo/models"

	"gorm.io/gorm"
)

// ErrTaskNotFound 任务不存在
var ErrTaskNotFound = errors.New("任务不存在")

// TaskStore 任务存取接口，生产环境由GORM实现，测试时用内存实现
type TaskStore interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateTaskFields(ctx context.Context, taskID string, fields map[string]interface{}) error
	ListOverdueTasks(ctx context.Context, now time.Time) ([]models.Task, error)
	AppendActionLog(ctx context.Context, entry *models.TaskActionLog) error
}

// InstanceStore 提醒实例存取接口
type InstanceStore interface {
	CreateInstance(ctx context.Context, inst *models.ReminderInstance) error
	// CancelPendingByTask 将任务下所有 pending 实例置为 cancelled，返回受影响行数。
	// 已经 sent 的实例不受影响。
	CancelPendingByTask(ctx context.Context, taskID string) (int64, error)
	ListDuePending(ctx context.Context, now time.Time) ([]models.ReminderInstance, error)
	// MarkSent 条件更新 pending→sent，仅当当前状态仍为 pending 时成功。
	// 两次扫描竞争同一实例时只有一方返回 true。
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	CancelInstance(ctx context.Context, id string) (bool, error)
}

// GormStore 基于GORM的存取实现
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UpdateTaskFields(ctx context.Context, taskID string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).Updates(fields).Error
}

func (s *GormStore) ListOverdueTasks(ctx context.Context, now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("is_completed = ? AND due_date IS NOT NULL AND due_date < ?", false, now).
		Find(&tasks).Error
	return tasks, err
}

func (s *GormStore) AppendActionLog(ctx context.Context, entry *models.TaskActionLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) CreateInstance(ctx context.Context, inst *models.ReminderInstance) error {
	return s.db.WithContext(ctx).Create(inst).Error
}

func (s *GormStore) CancelPendingByTask(ctx context.Context, taskID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.ReminderInstance{}).
		Where("task_id = ? AND status = ?", taskID, models.ReminderStatusPending).
		Update("status", models.ReminderStatusCancelled)
	return result.RowsAffected, result.Error
}

func (s *GormStore) ListDuePending(ctx context.Context, now time.Time) ([]models.ReminderInstance, error) {
	var instances []models.ReminderInstance
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.ReminderStatusPending, now).
		Find(&instances).Error
	return instances, err
}

func (s *GormStore) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.ReminderInstance{}).
		Where("id = ? AND status = ?", id, models.ReminderStatusPending).
		Updates(map[string]interface{}{
			"status":  models.ReminderStatusSent,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) CancelInstance(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.ReminderInstance{}).
		Where("id = ? AND status = ?", id, models.ReminderStatusPending).
		Update("status", models.ReminderStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
