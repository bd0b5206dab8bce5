// Package config provides environment-based configuration management.
package config

import (
	"fmt"
	"os"
	"strings"

	"chat-relay/internal/types"
	"chat-relay/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration loaded from the environment.
type Config struct {
	Server      types.ServerConfig
	CORS        types.CORSConfig
	Performance types.PerformanceConfig
	Log         types.LogConfig
	Database    types.DatabaseConfig
	RedisDSN    string
	Upstream    types.UpstreamConfig
	Relay       types.RelayConfig
}

// Manager implements types.ConfigManager backed by environment variables.
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager, loading .env when present.
func NewManager() (types.ConfigManager, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("Failed to load .env file")
		}
	} else {
		logrus.Debug("Loaded configuration from .env file")
	}

	manager := &Manager{}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}
	return manager, nil
}

// ReloadConfig re-reads all configuration from the environment.
func (m *Manager) ReloadConfig() error {
	config := &Config{
		Server: types.ServerConfig{
			Port:                    utils.ParseInteger(os.Getenv("PORT"), 3001),
			Host:                    utils.GetEnvOrDefault("HOST", "0.0.0.0"),
			ReadTimeout:             utils.ParseInteger(os.Getenv("SERVER_READ_TIMEOUT"), 60),
			WriteTimeout:            utils.ParseInteger(os.Getenv("SERVER_WRITE_TIMEOUT"), 600),
			IdleTimeout:             utils.ParseInteger(os.Getenv("SERVER_IDLE_TIMEOUT"), 120),
			GracefulShutdownTimeout: utils.ParseInteger(os.Getenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT"), 10),
		},
		CORS: types.CORSConfig{
			Enabled:          utils.ParseBoolean(os.Getenv("ENABLE_CORS"), true),
			AllowedOrigins:   utils.SplitAndTrim(utils.GetEnvOrDefault("ALLOWED_ORIGINS", "*"), ","),
			AllowedMethods:   utils.SplitAndTrim(utils.GetEnvOrDefault("ALLOWED_METHODS", "GET,POST,OPTIONS"), ","),
			AllowedHeaders:   utils.SplitAndTrim(utils.GetEnvOrDefault("ALLOWED_HEADERS", "*"), ","),
			AllowCredentials: utils.ParseBoolean(os.Getenv("ALLOW_CREDENTIALS"), false),
		},
		Performance: types.PerformanceConfig{
			MaxConcurrentRequests: utils.ParseInteger(os.Getenv("MAX_CONCURRENT_REQUESTS"), 100),
		},
		Log: types.LogConfig{
			Level:      strings.ToLower(utils.GetEnvOrDefault("LOG_LEVEL", "info")),
			Format:     strings.ToLower(utils.GetEnvOrDefault("LOG_FORMAT", "text")),
			EnableFile: utils.ParseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
			FilePath:   utils.GetEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
		},
		Database: types.DatabaseConfig{
			DSN: os.Getenv("DATABASE_DSN"),
		},
		RedisDSN: os.Getenv("REDIS_DSN"),
		Upstream: types.UpstreamConfig{
			APIKey:                os.Getenv("OPENAI_API_KEY"),
			BaseURL:               strings.TrimSuffix(utils.GetEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			Model:                 utils.GetEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			RequestTimeout:        utils.ParseInteger(os.Getenv("REQUEST_TIMEOUT"), 600),
			ConnectTimeout:        utils.ParseInteger(os.Getenv("CONNECT_TIMEOUT"), 15),
			IdleConnTimeout:       utils.ParseInteger(os.Getenv("IDLE_CONN_TIMEOUT"), 120),
			ResponseHeaderTimeout: utils.ParseInteger(os.Getenv("RESPONSE_HEADER_TIMEOUT"), 600),
			MaxIdleConns:          utils.ParseInteger(os.Getenv("MAX_IDLE_CONNS"), 100),
			MaxIdleConnsPerHost:   utils.ParseInteger(os.Getenv("MAX_IDLE_CONNS_PER_HOST"), 50),
			ProxyURL:              os.Getenv("PROXY_URL"),
			Stealth:               utils.ParseBoolean(os.Getenv("UPSTREAM_STEALTH"), false),
		},
		Relay: types.RelayConfig{
			SystemPrompt:   utils.GetEnvOrDefault("RELAY_SYSTEM_PROMPT", defaultSystemPrompt),
			ResponseFormat: types.ResponseFormat(utils.GetEnvOrDefault("RELAY_RESPONSE_FORMAT", string(types.FormatPlain))),
			FlushThreshold: utils.ParseInteger(os.Getenv("RELAY_FLUSH_THRESHOLD"), 100),
		},
	}

	if err := validateConfig(config); err != nil {
		return err
	}

	m.config = config
	return nil
}

// defaultSystemPrompt instructs the model to answer as clean Markdown.
const defaultSystemPrompt = "You are a helpful assistant. Answer the user's question in well-formatted Markdown. " +
	"Use regular Markdown links of the form [descriptive text](url); never use the phrase \"Click here\" as link text."

func validateConfig(config *Config) error {
	var validationErrors []string

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		validationErrors = append(validationErrors, "port must be between 1 and 65535")
	}
	if config.Performance.MaxConcurrentRequests < 1 {
		validationErrors = append(validationErrors, "max concurrent requests cannot be less than 1")
	}
	if config.Relay.FlushThreshold < 1 {
		validationErrors = append(validationErrors, "flush threshold cannot be less than 1")
	}
	switch config.Relay.ResponseFormat {
	case types.FormatPlain, types.FormatStructured:
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("unsupported response format: %s", config.Relay.ResponseFormat))
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(validationErrors, "; "))
	}
	return nil
}

// Validate re-checks the currently loaded configuration.
func (m *Manager) Validate() error {
	return validateConfig(m.config)
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.config.Server
}

// GetCORSConfig returns the CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.config.CORS
}

// GetPerformanceConfig returns the performance configuration.
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.config.Performance
}

// GetLogConfig returns the logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.config.Log
}

// GetDatabaseConfig returns the database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.config.Database
}

// GetRedisDSN returns the Redis DSN, empty when the memory store is used.
func (m *Manager) GetRedisDSN() string {
	return m.config.RedisDSN
}

// GetUpstreamConfig returns the upstream provider configuration.
func (m *Manager) GetUpstreamConfig() types.UpstreamConfig {
	return m.config.Upstream
}

// GetRelayConfig returns the relay reassembly configuration.
func (m *Manager) GetRelayConfig() types.RelayConfig {
	return m.config.Relay
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	server := m.config.Server
	upstream := m.config.Upstream

	logrus.Info("")
	logrus.Info("======= Server Configuration =======")
	logrus.Infof("  Listen Address: %s:%d", server.Host, server.Port)
	logrus.Infof("  Graceful Shutdown Timeout: %ds", server.GracefulShutdownTimeout)
	logrus.Infof("  Max Concurrent Requests: %d", m.config.Performance.MaxConcurrentRequests)
	logrus.Infof("  CORS Enabled: %v", m.config.CORS.Enabled)
	logrus.Infof("  Log Level: %s", m.config.Log.Level)
	logrus.Info("======= Upstream Configuration =======")
	logrus.Infof("  Base URL: %s", upstream.BaseURL)
	logrus.Infof("  Model: %s", upstream.Model)
	if upstream.APIKey != "" {
		logrus.Infof("  API Key: %s", utils.MaskAPIKey(upstream.APIKey))
	} else {
		logrus.Warn("  API Key: NOT CONFIGURED (relay calls will fail)")
	}
	if upstream.ProxyURL != "" {
		logrus.Infof("  Proxy: %s", utils.SanitizeProxyString(upstream.ProxyURL))
	}
	logrus.Infof("  Stealth Transport: %v", upstream.Stealth)
	logrus.Info("======= Relay Configuration =======")
	logrus.Infof("  Response Format: %s", m.config.Relay.ResponseFormat)
	logrus.Infof("  Flush Threshold: %d", m.config.Relay.FlushThreshold)
	if m.config.Database.DSN != "" {
		logrus.Info("  Call Logging: enabled")
	} else {
		logrus.Info("  Call Logging: disabled (DATABASE_DSN not set)")
	}
	logrus.Info("====================================")
	logrus.Info("")
}
