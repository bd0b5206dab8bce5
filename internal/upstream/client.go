// Package upstream opens streaming chat completion calls against an
// OpenAI-compatible provider.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/httpclient"
	"chat-relay/internal/types"
	"chat-relay/internal/utils"

	"github.com/sirupsen/logrus"
)

// maxErrorBodySize limits how much of an upstream error response is read.
const maxErrorBodySize = 64 * 1024

// Client opens streaming completion requests against the configured provider.
type Client struct {
	configManager  types.ConfigManager
	clientManager  *httpclient.Manager
	stealthManager *httpclient.StealthManager
}

// NewClient creates an upstream client.
func NewClient(configManager types.ConfigManager, clientManager *httpclient.Manager) *Client {
	upstreamConfig := configManager.GetUpstreamConfig()
	return &Client{
		configManager:  configManager,
		clientManager:  clientManager,
		stealthManager: httpclient.NewStealthManager(time.Duration(upstreamConfig.RequestTimeout) * time.Second),
	}
}

// OpenStream sends the chat completion request and returns the raw SSE body
// for the frame parser to consume. The caller must close the returned reader.
// A missing API key fails immediately without opening a connection.
func (c *Client) OpenStream(ctx context.Context, req *ConversationRequest) (io.ReadCloser, error) {
	upstreamConfig := c.configManager.GetUpstreamConfig()
	if upstreamConfig.APIKey == "" {
		return nil, app_errors.ErrMissingAPIKey
	}

	body, err := BuildRequestBody(c.configManager.GetRelayConfig(), upstreamConfig.Model, req)
	if err != nil {
		return nil, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error())
	}

	reqURL := upstreamConfig.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error())
	}
	httpReq.Header.Set("Authorization", "Bearer "+upstreamConfig.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient(upstreamConfig).Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logrus.WithError(err).WithField("url", utils.SanitizeURLForLog(httpReq.URL)).
			Error("Upstream request failed")
		return nil, app_errors.NewAPIError(app_errors.ErrBadGateway, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		errorBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			return nil, app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR",
				fmt.Sprintf("upstream returned status %d", resp.StatusCode))
		}
		// Error bodies may arrive compressed even though the stream itself
		// would not. Decompression is best-effort.
		decompressed, decompErr := utils.DecompressResponse(resp.Header.Get("Content-Encoding"), errorBody)
		if decompErr != nil {
			decompressed = errorBody
		}
		parsed := app_errors.ParseUpstreamError(decompressed)
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"url":    utils.SanitizeURLForLog(httpReq.URL),
		}).Error("Upstream returned error: " + parsed)
		return nil, app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", parsed)
	}

	return resp.Body, nil
}

// httpClient picks the transport for the upstream call. Stealth mode routes
// through a browser-fingerprint TLS client for providers behind bot checks.
func (c *Client) httpClient(upstreamConfig types.UpstreamConfig) *http.Client {
	if upstreamConfig.Stealth {
		return c.stealthManager.GetClient(upstreamConfig.ProxyURL)
	}
	return c.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        time.Duration(upstreamConfig.ConnectTimeout) * time.Second,
		RequestTimeout:        time.Duration(upstreamConfig.RequestTimeout) * time.Second,
		IdleConnTimeout:       time.Duration(upstreamConfig.IdleConnTimeout) * time.Second,
		MaxIdleConns:          upstreamConfig.MaxIdleConns,
		MaxIdleConnsPerHost:   upstreamConfig.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: time.Duration(upstreamConfig.ResponseHeaderTimeout) * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ProxyURL:              upstreamConfig.ProxyURL,
	})
}
