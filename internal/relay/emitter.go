package relay

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Emitter writes outbound events to the client as SSE frames. It is
// call-scoped. Writes after the client disconnects are no-ops, and the
// terminal sentinel goes out at most once.
type Emitter struct {
	writer   gin.ResponseWriter
	flusher  http.Flusher
	done     <-chan struct{}
	closed   bool
	doneSent bool
}

// NewEmitter prepares the response for SSE and sends the headers before any
// body bytes so intermediaries do not buffer the stream.
func NewEmitter(c *gin.Context) *Emitter {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	e := &Emitter{
		writer:  c.Writer,
		flusher: flusher,
		done:    c.Request.Context().Done(),
	}
	e.flush()
	return e
}

// Send writes one event as an SSE frame and flushes it to the client.
func (e *Emitter) Send(event Event) {
	if e.closed || e.doneSent {
		return
	}
	select {
	case <-e.done:
		e.closed = true
		return
	default:
	}

	payload, err := event.Payload()
	if err != nil {
		logrus.WithError(err).Error("Failed to encode outbound event")
		return
	}
	if _, err := fmt.Fprintf(e.writer, "data: %s\n\n", payload); err != nil {
		e.closed = true
		return
	}
	e.flush()

	if event.Kind == EventDone {
		e.doneSent = true
	}
}

// SendAll writes a batch of events in order.
func (e *Emitter) SendAll(events []Event) {
	for _, event := range events {
		e.Send(event)
	}
}

// Closed reports whether the client went away or the call already terminated.
func (e *Emitter) Closed() bool {
	return e.closed || e.doneSent
}

func (e *Emitter) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
