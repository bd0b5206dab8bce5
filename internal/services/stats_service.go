package services

import (
	"strconv"

	"chat-relay/internal/store"

	"github.com/sirupsen/logrus"
)

const statsHashKey = "relay_stats"

// Stat field names.
const (
	StatCallsTotal    = "calls_total"
	StatCallsActive   = "calls_active"
	StatTokensRelayed = "tokens_relayed"
	StatErrorsTotal   = "errors_total"
	StatClientAborts  = "client_aborts"
)

// StatsService maintains live relay counters in the store. Counters are
// shared across instances when the Redis backend is configured.
type StatsService struct {
	store store.Store
}

// NewStatsService creates a new StatsService.
func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// Incr adds delta to a counter. Failures are logged, never propagated:
// stats must not affect relay calls.
func (s *StatsService) Incr(field string, delta int64) {
	if _, err := s.store.HIncrBy(statsHashKey, field, delta); err != nil {
		logrus.WithError(err).WithField("field", field).Debug("Failed to update relay stat")
	}
}

// Snapshot returns all counters as integers. Missing fields default to zero.
func (s *StatsService) Snapshot() (map[string]int64, error) {
	raw, err := s.store.HGetAll(statsHashKey)
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		result[field] = n
	}
	for _, field := range []string{StatCallsTotal, StatCallsActive, StatTokensRelayed, StatErrorsTotal, StatClientAborts} {
		if _, ok := result[field]; !ok {
			result[field] = 0
		}
	}
	return result, nil
}
