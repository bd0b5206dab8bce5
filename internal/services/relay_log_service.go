// Package services holds background services supporting the relay.
package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
)

const (
	relayLogCachePrefix      = "relay_log:"
	pendingLogKeysSet        = "pending_relay_log_keys"
	defaultLogFlushBatchSize = 200
	defaultFlushInterval     = time.Minute
)

// RelayLogService buffers relay call logs in the store and flushes them to
// the database periodically. A nil database disables the service entirely.
type RelayLogService struct {
	db       *gorm.DB
	store    store.Store
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	ticker   *time.Ticker
}

// NewRelayLogService creates a new RelayLogService instance.
func NewRelayLogService(db *gorm.DB, st store.Store) *RelayLogService {
	return &RelayLogService{
		db:       db,
		store:    st,
		interval: defaultFlushInterval,
		stopChan: make(chan struct{}),
	}
}

// Enabled reports whether logging is active (a database was configured).
func (s *RelayLogService) Enabled() bool {
	return s.db != nil
}

// Start launches the periodic flush routine. No-op when logging is disabled.
func (s *RelayLogService) Start() {
	if !s.Enabled() {
		return
	}
	s.wg.Add(1)
	go s.runLoop()
}

func (s *RelayLogService) runLoop() {
	defer s.wg.Done()

	s.flush()

	s.ticker = time.NewTicker(s.interval)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.stopChan:
			return
		}
	}
}

// Stop gracefully stops the service, flushing any buffered logs.
func (s *RelayLogService) Stop(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.flush()
		logrus.Info("RelayLogService stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("RelayLogService stop timed out.")
	}
}

// HashKey returns a short stable digest of an API key for the KeyHash
// column, so the credential itself never reaches the database.
func HashKey(key string) string {
	if key == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Record buffers a relay log entry in the store for the next flush.
func (s *RelayLogService) Record(logEntry *models.RelayLog) error {
	if !s.Enabled() {
		return nil
	}

	logEntry.ID = uuid.NewString()
	logEntry.Timestamp = time.Now()

	logBytes, err := json.Marshal(logEntry)
	if err != nil {
		return err
	}

	cacheKey := relayLogCachePrefix + logEntry.ID
	ttl := 5 * s.interval
	if err := s.store.Set(cacheKey, logBytes, ttl); err != nil {
		return err
	}
	return s.store.SAdd(pendingLogKeysSet, cacheKey)
}

// flush drains buffered log entries from the store into the database.
func (s *RelayLogService) flush() {
	for {
		keys, err := s.store.SPopN(pendingLogKeysSet, defaultLogFlushBatchSize)
		if err != nil {
			logrus.Errorf("Failed to pop pending log keys from store: %v", err)
			return
		}
		if len(keys) == 0 {
			return
		}

		logs := make([]*models.RelayLog, 0, len(keys))
		processedKeys := make([]string, 0, len(keys))
		for _, key := range keys {
			logBytes, err := s.store.Get(key)
			if err != nil {
				if err != store.ErrNotFound {
					logrus.Warnf("Failed to get log for key %s: %v", key, err)
				}
				continue
			}
			var entry models.RelayLog
			if err := json.Unmarshal(logBytes, &entry); err != nil {
				logrus.Warnf("Failed to unmarshal log for key %s: %v", key, err)
				s.store.Delete(key)
				continue
			}
			logs = append(logs, &entry)
			processedKeys = append(processedKeys, key)
		}

		if len(logs) == 0 {
			continue
		}

		if err := s.writeLogsToDB(logs); err != nil {
			logrus.Errorf("Failed to write %d relay logs to database: %v", len(logs), err)
			// Re-queue so the next flush retries.
			args := make([]any, len(processedKeys))
			for i, k := range processedKeys {
				args[i] = k
			}
			if saddErr := s.store.SAdd(pendingLogKeysSet, args...); saddErr != nil {
				logrus.Errorf("CRITICAL: failed to re-add log keys after write failure: %v", saddErr)
			}
			return
		}

		if err := s.store.Del(processedKeys...); err != nil {
			logrus.WithError(err).Warn("Failed to delete flushed log bodies from store")
		}
		logrus.Debugf("Flushed %d relay logs to database", len(logs))
	}
}

func (s *RelayLogService) writeLogsToDB(logs []*models.RelayLog) error {
	return s.db.CreateInBatches(logs, defaultLogFlushBatchSize).Error
}
