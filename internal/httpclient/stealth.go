package httpclient

import (
	"net/http"
	"sync"
	"time"

	http_tls "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/sirupsen/logrus"
)

// StealthManager manages HTTP clients with browser TLS fingerprints for
// upstream providers that reject plain Go clients. Clients are cached by
// proxy URL so connections can be pooled.
type StealthManager struct {
	clients sync.Map
	timeout time.Duration
}

// NewStealthManager creates a new stealth client manager.
func NewStealthManager(timeout time.Duration) *StealthManager {
	return &StealthManager{
		timeout: timeout,
	}
}

// GetClient returns a stealth HTTP client, optionally routed through a proxy.
// The returned client is a standard http.Client wrapping the tls-client
// transport for compatibility with the rest of the codebase.
func (m *StealthManager) GetClient(proxyURL string) *http.Client {
	cacheKey := proxyURL
	if cacheKey == "" {
		cacheKey = "__direct__"
	}

	if cached, ok := m.clients.Load(cacheKey); ok {
		return cached.(*http.Client)
	}

	client := m.createStealthClient(proxyURL)

	// LoadOrStore handles the race where two goroutines build a client for
	// the same proxy concurrently.
	actual, _ := m.clients.LoadOrStore(cacheKey, client)
	return actual.(*http.Client)
}

func (m *StealthManager) createStealthClient(proxyURL string) *http.Client {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(m.timeout.Seconds())),
		// Chrome 120 has proper HTTP/2 support and a widely accepted
		// TLS fingerprint.
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		logrus.WithError(err).WithField("proxy_url", proxyURL).
			Warn("Failed to create stealth client, falling back to standard client")
		return &http.Client{Timeout: m.timeout}
	}

	return &http.Client{
		Transport: &tlsClientTransport{client: tlsClient},
		Timeout:   m.timeout,
	}
}

// Cleanup clears the client cache. Called during service shutdown.
func (m *StealthManager) Cleanup() {
	m.clients.Range(func(key, value any) bool {
		m.clients.Delete(key)
		return true
	})
}

// tlsClientTransport adapts tls-client to the http.RoundTripper interface.
type tlsClientTransport struct {
	client tls_client.HttpClient
}

func (t *tlsClientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fhttpReq := &http_tls.Request{
		Method: req.Method,
		URL:    req.URL,
		Header: convertHeaders(req.Header),
		Body:   req.Body,
	}
	fhttpReq = fhttpReq.WithContext(req.Context())

	fhttpResp, err := t.client.Do(fhttpReq)
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        fhttpResp.Status,
		StatusCode:    fhttpResp.StatusCode,
		Proto:         fhttpResp.Proto,
		ProtoMajor:    fhttpResp.ProtoMajor,
		ProtoMinor:    fhttpResp.ProtoMinor,
		Header:        convertHeadersBack(fhttpResp.Header),
		Body:          fhttpResp.Body,
		ContentLength: fhttpResp.ContentLength,
		Request:       req,
	}, nil
}

func convertHeaders(h http.Header) http_tls.Header {
	fh := make(http_tls.Header, len(h))
	for k, v := range h {
		fh[k] = v
	}
	return fh
}

func convertHeadersBack(fh http_tls.Header) http.Header {
	h := make(http.Header, len(fh))
	for k, v := range fh {
		h[k] = v
	}
	return h
}
