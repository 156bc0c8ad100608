package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 逾期告警冷却窗口
const overdueCooldown = 30 * time.Minute

// CooldownStore 逾期告警冷却记录接口。
// Acquire 在同档及更高档位冷却期内返回 false；否则记录本次告警并返回 true。
type CooldownStore interface {
	Acquire(ctx context.Context, taskID string, tier Tier) (bool, error)
}

// RedisCooldownStore 基于Redis TTL键的冷却实现，进程重启后记录仍然有效
type RedisCooldownStore struct {
	client *redis.Client
}

func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

func cooldownKey(taskID string, tier Tier) string {
	return fmt.Sprintf("overdue:%s:%s", taskID, tier)
}

func (s *RedisCooldownStore) Acquire(ctx context.Context, taskID string, tier Tier) (bool, error) {
	// 同档或更高档位在冷却期内则不再告警
	for _, t := range TiersAtOrAbove(tier) {
		n, err := s.client.Exists(ctx, cooldownKey(taskID, t)).Result()
		if err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}

	ok, err := s.client.SetNX(ctx, cooldownKey(taskID, tier), time.Now().UTC().Format(time.RFC3339), overdueCooldown).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
