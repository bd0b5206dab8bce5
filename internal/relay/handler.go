package relay

import (
	"bufio"
	"encoding/json"
	"net/http"
	"time"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/internal/response"
	"chat-relay/internal/services"
	"chat-relay/internal/types"
	"chat-relay/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// scannerBufferSize bounds a single upstream SSE line.
const scannerBufferSize = 1024 * 1024

// Handler serves the streaming chat endpoint.
type Handler struct {
	configManager  types.ConfigManager
	upstreamClient *upstream.Client
	statsService   *services.StatsService
	logService     *services.RelayLogService
}

// NewHandler creates the relay handler.
func NewHandler(
	configManager types.ConfigManager,
	upstreamClient *upstream.Client,
	statsService *services.StatsService,
	logService *services.RelayLogService,
) *Handler {
	return &Handler{
		configManager:  configManager,
		upstreamClient: upstreamClient,
		statsService:   statsService,
		logService:     logService,
	}
}

// HandleChatStream handles GET /api/chat/stream. Request validation failures
// are plain JSON errors; once the SSE stream opens, every failure becomes a
// single error event followed by the terminal sentinel.
func (h *Handler) HandleChatStream(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		response.ErrorI18n(c, app_errors.ErrValidation, "relay.message_required")
		return
	}

	var history []upstream.ChatTurn
	if rawHistory := c.Query("history"); rawHistory != "" {
		if err := json.Unmarshal([]byte(rawHistory), &history); err != nil {
			response.ErrorI18n(c, app_errors.ErrValidation, "relay.invalid_history")
			return
		}
	}

	format := h.configManager.GetRelayConfig().ResponseFormat
	if override := c.Query("format"); override != "" {
		switch types.ResponseFormat(override) {
		case types.FormatPlain, types.FormatStructured:
			format = types.ResponseFormat(override)
		default:
			response.ErrorI18n(c, app_errors.ErrValidation, "relay.invalid_format")
			return
		}
	}

	h.statsService.Incr(services.StatCallsTotal, 1)
	h.statsService.Incr(services.StatCallsActive, 1)
	defer h.statsService.Incr(services.StatCallsActive, -1)

	start := time.Now()
	req := &upstream.ConversationRequest{
		Message: message,
		History: history,
		Format:  format,
	}

	emitter := NewEmitter(c)
	result := h.stream(c, emitter, req)
	h.record(c, req, result, time.Since(start))
}

// streamResult summarizes one relay call for stats and call logging.
type streamResult struct {
	flushCount     int
	tokensRelayed  int
	structuredSent bool
	clientClosed   bool
	errMessage     string
	statusCode     int
}

// stream runs the relay pipeline: open the upstream call, parse frames,
// reassemble Markdown, emit SSE events. Exactly one terminal sentinel is sent
// unless the client already went away.
func (h *Handler) stream(c *gin.Context, emitter *Emitter, req *upstream.ConversationRequest) streamResult {
	result := streamResult{statusCode: http.StatusOK}
	ctx := c.Request.Context()

	body, err := h.upstreamClient.OpenStream(ctx, req)
	if err != nil {
		result.statusCode, result.errMessage = errorStatus(err)
		h.statsService.Incr(services.StatErrorsTotal, 1)
		emitter.Send(ErrorEvent(result.errMessage))
		emitter.Send(DoneEvent())
		return result
	}
	defer body.Close()

	reassembler := NewReassembler(req.Format, h.configManager.GetRelayConfig().FlushThreshold)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)

	upstreamDone := false
	for scanner.Scan() && !emitter.Closed() {
		frame, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		switch frame.Kind {
		case FrameDone:
			upstreamDone = true
		case FrameMalformed:
			logrus.WithField("raw", frame.Raw).Debug("Discarding malformed upstream frame")
			continue
		case FrameDelta:
			events := reassembler.Ingest(frame.Text)
			emitter.SendAll(events)
			result.tokensRelayed++
			for _, event := range events {
				if event.Kind == EventStructured {
					result.structuredSent = true
				}
			}
		}
		if upstreamDone {
			break
		}
	}

	if ctx.Err() != nil {
		// Client disconnected. The context cancellation has already aborted
		// the upstream read; no further writes happen.
		result.clientClosed = true
		h.statsService.Incr(services.StatClientAborts, 1)
		return result
	}

	if scanErr := scanner.Err(); scanErr != nil && !upstreamDone {
		result.statusCode = http.StatusBadGateway
		result.errMessage = scanErr.Error()
		h.statsService.Incr(services.StatErrorsTotal, 1)
		logrus.WithError(scanErr).Error("Upstream stream failed mid-call")
		emitter.Send(ErrorEvent(result.errMessage))
		emitter.Send(DoneEvent())
		return result
	}

	events := reassembler.Finalize()
	emitter.SendAll(events)
	for _, event := range events {
		if event.Kind == EventStructured {
			result.structuredSent = true
		}
	}
	emitter.Send(DoneEvent())

	result.flushCount = reassembler.FlushCount()
	h.statsService.Incr(services.StatTokensRelayed, int64(result.tokensRelayed))
	return result
}

// record buffers a call log entry when persistence is configured.
func (h *Handler) record(c *gin.Context, req *upstream.ConversationRequest, result streamResult, duration time.Duration) {
	if h.logService == nil || !h.logService.Enabled() {
		return
	}

	meta, _ := json.Marshal(models.RelayLogMeta{
		FlushCount:     result.flushCount,
		TokensRelayed:  result.tokensRelayed,
		StructuredSent: result.structuredSent,
		ClientClosed:   result.clientClosed,
	})

	entry := &models.RelayLog{
		Timestamp:    time.Now(),
		Model:        h.configManager.GetUpstreamConfig().Model,
		KeyHash:      services.HashKey(h.configManager.GetUpstreamConfig().APIKey),
		Format:       string(req.Format),
		IsSuccess:    result.errMessage == "" && !result.clientClosed,
		SourceIP:     c.ClientIP(),
		StatusCode:   result.statusCode,
		Duration:     duration.Milliseconds(),
		HistoryTurns: len(req.History),
		ErrorMessage: result.errMessage,
		UserAgent:    c.Request.UserAgent(),
		Meta:         meta,
	}
	if err := h.logService.Record(entry); err != nil {
		logrus.WithError(err).Warn("Failed to buffer relay call log")
	}
}

// errorStatus maps an upstream open failure to a status code and the message
// sent on the error event.
func errorStatus(err error) (int, string) {
	if apiErr, ok := err.(*app_errors.APIError); ok {
		return apiErr.HTTPStatus, apiErr.Message
	}
	return http.StatusBadGateway, err.Error()
}
