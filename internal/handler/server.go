// Package handler contains the JSON API handlers outside the streaming path.
package handler

import (
	"context"
	"net/http"
	"time"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/response"
	"chat-relay/internal/services"
	"chat-relay/internal/types"
	"chat-relay/internal/version"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server aggregates the dependencies of the JSON API handlers.
type Server struct {
	DB            *gorm.DB
	ConfigManager types.ConfigManager
	StatsService  *services.StatsService
	startTime     time.Time
}

// NewServer creates a handler server.
func NewServer(db *gorm.DB, configManager types.ConfigManager, statsService *services.StatsService) *Server {
	return &Server{
		DB:            db,
		ConfigManager: configManager,
		StatsService:  statsService,
		startTime:     time.Now(),
	}
}

// Health reports process liveness and database connectivity.
// GET /health
func (s *Server) Health(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK

	database := "disabled"
	if s.DB != nil {
		database = "ok"
		sqlDB, err := s.DB.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status = "degraded"
			database = "error"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).String(),
	})
}

// Version returns the build version.
// GET /api/version
func (s *Server) Version(c *gin.Context) {
	response.Success(c, gin.H{"version": version.Version})
}

// Stats returns the relay call counters.
// GET /api/stats
func (s *Server) Stats(c *gin.Context) {
	snapshot, err := s.StatsService.Snapshot()
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
		return
	}
	response.Success(c, snapshot)
}
