package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		ConnectTimeout:        15 * time.Second,
		RequestTimeout:        10 * time.Minute,
		IdleConnTimeout:       2 * time.Minute,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   50,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func TestManagerReusesClientForSameConfig(t *testing.T) {
	m := NewManager()

	c1 := m.GetClient(testConfig())
	c2 := m.GetClient(testConfig())
	require.NotNil(t, c1)
	assert.Same(t, c1, c2)
}

func TestManagerCreatesNewClientForDifferentConfig(t *testing.T) {
	m := NewManager()

	c1 := m.GetClient(testConfig())

	cfg := testConfig()
	cfg.MaxIdleConnsPerHost = 10
	c2 := m.GetClient(cfg)

	assert.NotSame(t, c1, c2)
}

func TestFingerprintIgnoresProxyWhitespace(t *testing.T) {
	a := testConfig()
	a.ProxyURL = "http://127.0.0.1:7890"
	b := testConfig()
	b.ProxyURL = "  http://127.0.0.1:7890  "

	assert.Equal(t, a.getFingerprint(), b.getFingerprint())
}

func TestManagerInvalidProxyFallsBack(t *testing.T) {
	m := NewManager()

	cfg := testConfig()
	cfg.ProxyURL = "://not-a-url"
	client := m.GetClient(cfg)
	require.NotNil(t, client)
}

func TestStealthManagerCachesByProxy(t *testing.T) {
	m := NewStealthManager(time.Minute)

	c1 := m.GetClient("")
	c2 := m.GetClient("")
	require.NotNil(t, c1)
	assert.Same(t, c1, c2)

	m.Cleanup()
	c3 := m.GetClient("")
	assert.NotSame(t, c1, c3)
}
