package upstream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/httpclient"
	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfigManager struct {
	upstream types.UpstreamConfig
	relay    types.RelayConfig
}

func (s *stubConfigManager) GetEffectiveServerConfig() types.ServerConfig { return types.ServerConfig{} }
func (s *stubConfigManager) GetCORSConfig() types.CORSConfig             { return types.CORSConfig{} }
func (s *stubConfigManager) GetPerformanceConfig() types.PerformanceConfig {
	return types.PerformanceConfig{}
}
func (s *stubConfigManager) GetLogConfig() types.LogConfig           { return types.LogConfig{} }
func (s *stubConfigManager) GetDatabaseConfig() types.DatabaseConfig { return types.DatabaseConfig{} }
func (s *stubConfigManager) GetRedisDSN() string                     { return "" }
func (s *stubConfigManager) GetUpstreamConfig() types.UpstreamConfig { return s.upstream }
func (s *stubConfigManager) GetRelayConfig() types.RelayConfig       { return s.relay }
func (s *stubConfigManager) Validate() error                         { return nil }
func (s *stubConfigManager) DisplayServerConfig()                    {}
func (s *stubConfigManager) ReloadConfig() error                     { return nil }

func newTestClient(baseURL, apiKey string) *Client {
	cm := &stubConfigManager{
		upstream: types.UpstreamConfig{
			APIKey:                apiKey,
			BaseURL:               baseURL,
			Model:                 "gpt-4o-mini",
			RequestTimeout:        30,
			ConnectTimeout:        5,
			IdleConnTimeout:       30,
			ResponseHeaderTimeout: 30,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   5,
		},
		relay: types.RelayConfig{
			SystemPrompt:   "test prompt",
			ResponseFormat: types.FormatPlain,
			FlushThreshold: 100,
		},
	}
	return NewClient(cm, httpclient.NewManager())
}

func TestOpenStreamMissingAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")
	_, err := client.OpenStream(context.Background(), &ConversationRequest{Message: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrMissingAPIKey)
	assert.False(t, called, "must not open a connection without a credential")
}

func TestOpenStreamSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL, "sk-test")
	body, err := client.OpenStream(context.Background(), &ConversationRequest{Message: "hi"})
	require.NoError(t, err)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	require.True(t, scanner.Scan())
	assert.Contains(t, scanner.Text(), "Hello")
}

func TestOpenStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "sk-bad")
	_, err := client.OpenStream(context.Background(), &ConversationRequest{Message: "hi"})

	require.Error(t, err)
	apiErr, ok := err.(*app_errors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "Incorrect API key provided")
}

func TestOpenStreamCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL, "sk-test")
	_, err := client.OpenStream(ctx, &ConversationRequest{Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
