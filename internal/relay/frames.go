package relay

import (
	"strings"

	"github.com/tidwall/gjson"
)

// dataPrefix marks meaningful lines in the upstream SSE stream.
const dataPrefix = "data: "

// deltaContentPath extracts the incremental text from a completion frame.
const deltaContentPath = "choices.0.delta.content"

// FrameKind discriminates parsed upstream frames.
type FrameKind int

const (
	// FrameDelta carries an incremental text fragment.
	FrameDelta FrameKind = iota
	// FrameDone is the upstream completion sentinel.
	FrameDone
	// FrameMalformed is an unparsable payload, discarded by callers.
	FrameMalformed
)

// Frame is a single parsed SSE event from the provider.
type Frame struct {
	Kind FrameKind
	Text string
	Raw  string
}

// ParseChunk splits a raw upstream chunk into frames. Blank lines are
// separators and skipped, lines without the data prefix are transport noise,
// and the completion sentinel short-circuits the rest of the chunk.
// A payload that fails to parse as JSON yields a Malformed frame rather than
// an error; frames are line-buffered by the transport, so carrying partial
// payloads across chunks is not needed.
func ParseChunk(chunk string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(chunk, "\n") {
		frame, ok := ParseLine(line)
		if !ok {
			continue
		}
		frames = append(frames, frame)
		if frame.Kind == FrameDone {
			break
		}
	}
	return frames
}

// ParseLine parses one upstream line. The second return value is false for
// lines that carry no frame at all: blank separators, comments, or a JSON
// payload without a text delta.
func ParseLine(line string) (Frame, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return Frame{}, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return Frame{}, false
	}
	if payload == doneSentinel {
		return Frame{Kind: FrameDone}, true
	}

	if !gjson.Valid(payload) {
		return Frame{Kind: FrameMalformed, Raw: payload}, true
	}

	content := gjson.Get(payload, deltaContentPath)
	if !content.Exists() {
		// Role announcements, finish_reason frames and the like carry no
		// delta text. Skip them silently.
		return Frame{}, false
	}
	return Frame{Kind: FrameDelta, Text: content.String()}, true
}
