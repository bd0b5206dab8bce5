// Package models defines persistence models for the relay.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// RelayLog corresponds to the relay_logs table. One row per relay call.
// Conversation content is never persisted; only call metadata is recorded.
type RelayLog struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"not null;index:idx_relay_logs_success_timestamp" json:"timestamp"`
	Model        string         `gorm:"type:varchar(255);index" json:"model"`
	KeyHash      string         `gorm:"type:varchar(128);index" json:"key_hash"`
	Format       string         `gorm:"type:varchar(20);not null;default:'plain'" json:"format"`
	IsSuccess    bool           `gorm:"not null;index:idx_relay_logs_success_timestamp" json:"is_success"`
	SourceIP     string         `gorm:"type:varchar(64)" json:"source_ip"`
	StatusCode   int            `gorm:"not null" json:"status_code"`
	Duration     int64          `gorm:"not null" json:"duration_ms"`
	HistoryTurns int            `gorm:"not null;default:0" json:"history_turns"`
	ErrorMessage string         `gorm:"type:text" json:"error_message"`
	UserAgent    string         `gorm:"type:varchar(512)" json:"user_agent"`
	Meta         datatypes.JSON `gorm:"type:json" json:"meta"`
}

// RelayLogMeta is serialized into the Meta JSON column.
type RelayLogMeta struct {
	FlushCount     int  `json:"flush_count"`
	TokensRelayed  int  `json:"tokens_relayed"`
	StructuredSent bool `json:"structured_sent"`
	ClientClosed   bool `json:"client_closed"`
}
