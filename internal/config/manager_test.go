package config

import (
	"testing"

	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("PORT", "")
	t.Setenv("HOST", "")
	t.Setenv("RELAY_RESPONSE_FORMAT", "")
	t.Setenv("RELAY_FLUSH_THRESHOLD", "")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "")
}

func TestNewManager(t *testing.T) {
	setupTestEnv(t)

	manager, err := NewManager()
	require.NoError(t, err)
	require.NotNil(t, manager)

	// Verify default values
	assert.Equal(t, 3001, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "0.0.0.0", manager.GetEffectiveServerConfig().Host)
	assert.Equal(t, types.FormatPlain, manager.GetRelayConfig().ResponseFormat)
	assert.Equal(t, 100, manager.GetRelayConfig().FlushThreshold)
	assert.Equal(t, "https://api.openai.com/v1", manager.GetUpstreamConfig().BaseURL)
}

func TestManagerReloadConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "200")
	t.Setenv("RELAY_RESPONSE_FORMAT", "structured")
	t.Setenv("OPENAI_BASE_URL", "https://llm.internal/v1/")

	manager := &Manager{}
	require.NoError(t, manager.ReloadConfig())

	assert.Equal(t, 8080, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "127.0.0.1", manager.GetEffectiveServerConfig().Host)
	assert.Equal(t, 200, manager.GetPerformanceConfig().MaxConcurrentRequests)
	assert.Equal(t, types.FormatStructured, manager.GetRelayConfig().ResponseFormat)
	// Trailing slash is stripped from the base URL
	assert.Equal(t, "https://llm.internal/v1", manager.GetUpstreamConfig().BaseURL)
}

func TestManagerValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			setupEnv:    func(t *testing.T) { setupTestEnv(t) },
			expectError: false,
		},
		{
			name: "invalid port - too low",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("PORT", "0")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid port - too high",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("PORT", "70000")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid max concurrent requests",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("MAX_CONCURRENT_REQUESTS", "0")
			},
			expectError: true,
			errorMsg:    "max concurrent requests cannot be less than 1",
		},
		{
			name: "invalid response format",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("RELAY_RESPONSE_FORMAT", "yaml")
			},
			expectError: true,
			errorMsg:    "unsupported response format",
		},
		{
			name: "invalid flush threshold",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("RELAY_FLUSH_THRESHOLD", "0")
			},
			expectError: true,
			errorMsg:    "flush threshold cannot be less than 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			manager := &Manager{}
			err := manager.ReloadConfig()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
