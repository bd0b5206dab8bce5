package store

import (
	"fmt"

	"chat-relay/internal/types"

	"github.com/sirupsen/logrus"
)

// NewStore selects the store backend from configuration: Redis when
// REDIS_DSN is set, in-memory otherwise.
func NewStore(configManager types.ConfigManager) (Store, error) {
	dsn := configManager.GetRedisDSN()
	if dsn == "" {
		logrus.Info("Using in-memory store")
		return NewMemoryStore(), nil
	}

	redisStore, err := NewRedisStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logrus.Info("Using redis store")
	return redisStore, nil
}
