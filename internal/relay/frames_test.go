package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineDelta(t *testing.T) {
	frame, ok := ParseLine(`data: {"choices":[{"delta":{"content":"Hello"}}]}`)
	require.True(t, ok)
	assert.Equal(t, FrameDelta, frame.Kind)
	assert.Equal(t, "Hello", frame.Text)
}

func TestParseLineDone(t *testing.T) {
	frame, ok := ParseLine("data: [DONE]")
	require.True(t, ok)
	assert.Equal(t, FrameDone, frame.Kind)
}

func TestParseLineSkipsBlankAndUnprefixed(t *testing.T) {
	for _, line := range []string{"", "\r", ": keep-alive comment", "event: message"} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "line %q must carry no frame", line)
	}
}

func TestParseLineMalformedJSON(t *testing.T) {
	frame, ok := ParseLine(`data: {"choices":[{"delta":{"cont`)
	require.True(t, ok)
	assert.Equal(t, FrameMalformed, frame.Kind)
	assert.Equal(t, `{"choices":[{"delta":{"cont`, frame.Raw)
}

func TestParseLineMissingContentField(t *testing.T) {
	// Role announcements and finish frames carry no delta text.
	_, ok := ParseLine(`data: {"choices":[{"delta":{"role":"assistant"}}]}`)
	assert.False(t, ok)

	_, ok = ParseLine(`data: {"choices":[{"finish_reason":"stop"}]}`)
	assert.False(t, ok)
}

func TestParseLineEmptyContent(t *testing.T) {
	frame, ok := ParseLine(`data: {"choices":[{"delta":{"content":""}}]}`)
	require.True(t, ok)
	assert.Equal(t, FrameDelta, frame.Kind)
	assert.Equal(t, "", frame.Text)
}

func TestParseChunkStopsAtSentinel(t *testing.T) {
	chunk := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
		"\n" +
		"data: [DONE]\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"never\"}}]}\n"

	frames := ParseChunk(chunk)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameDelta, frames[0].Kind)
	assert.Equal(t, "a", frames[0].Text)
	assert.Equal(t, FrameDone, frames[1].Kind)
}

func TestParseLineCRLF(t *testing.T) {
	frame, ok := ParseLine("data: [DONE]\r")
	require.True(t, ok)
	assert.Equal(t, FrameDone, frame.Kind)
}
