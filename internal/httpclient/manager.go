// Package httpclient manages HTTP clients for upstream streaming calls.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/utils"

	"github.com/sirupsen/logrus"
)

// Config defines the parameters for creating an HTTP client. It generates a
// fingerprint used to cache and reuse clients with identical settings.
type Config struct {
	ConnectTimeout        time.Duration
	RequestTimeout        time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	ResponseHeaderTimeout time.Duration
	DisableCompression    bool
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ProxyURL              string
}

// Manager creates and caches HTTP clients by configuration fingerprint.
type Manager struct {
	clients map[string]*http.Client
	lock    sync.RWMutex
}

// NewManager creates a new client manager.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*http.Client),
	}
}

// GetClient returns an HTTP client matching the given configuration,
// creating and caching one when needed.
func (m *Manager) GetClient(config *Config) *http.Client {
	fingerprint := config.getFingerprint()

	m.lock.RLock()
	client, exists := m.clients[fingerprint]
	m.lock.RUnlock()
	if exists {
		return client
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	// Double-check in case another goroutine created the client while we
	// were waiting for the lock.
	if client, exists = m.clients[fingerprint]; exists {
		return client
	}

	maxConnsPerHost := config.MaxIdleConnsPerHost * 2
	if maxConnsPerHost < 10 {
		maxConnsPerHost = 10
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableCompression:    config.DisableCompression,
	}

	trimmedProxyURL := strings.TrimSpace(config.ProxyURL)
	if trimmedProxyURL != "" {
		proxyURL, err := url.Parse(trimmedProxyURL)
		if err != nil {
			logrus.Warnf("Invalid proxy URL '%s', falling back to environment settings: %v", trimmedProxyURL, err)
			transport.Proxy = http.ProxyFromEnvironment
		} else if proxyURL.Scheme != "http" && proxyURL.Scheme != "https" && proxyURL.Scheme != "socks5" {
			logrus.Warnf("Unsupported proxy scheme '%s', falling back to environment settings", proxyURL.Scheme)
			transport.Proxy = http.ProxyFromEnvironment
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logrus.Debugf("HTTP client configured with proxy: %s", utils.SanitizeProxyURLForLog(proxyURL))
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	client = &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
	}
	m.clients[fingerprint] = client
	return client
}

// getFingerprint generates a unique string representation of the client
// configuration. ProxyURL is trimmed so configs differing only by whitespace
// map to the same client.
func (c *Config) getFingerprint() string {
	return fmt.Sprintf(
		"ct:%.0fs|rt:%.0fs|it:%.0fs|mic:%d|mich:%d|rht:%.0fs|dc:%t|proxy:%s",
		c.ConnectTimeout.Seconds(),
		c.RequestTimeout.Seconds(),
		c.IdleConnTimeout.Seconds(),
		c.MaxIdleConns,
		c.MaxIdleConnsPerHost,
		c.ResponseHeaderTimeout.Seconds(),
		c.DisableCompression,
		strings.TrimSpace(c.ProxyURL),
	)
}
