package relay

import (
	"strings"
	"testing"

	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlain() *Reassembler {
	return NewReassembler(types.FormatPlain, 100)
}

func TestIngestSentenceBoundary(t *testing.T) {
	r := newPlain()

	events := r.Ingest("Hello")
	assert.Empty(t, events, "no terminator yet, keep accumulating")

	events = r.Ingest(" world.")
	require.Len(t, events, 1)
	assert.Equal(t, EventToken, events[0].Kind)
	assert.Equal(t, "Hello world.", events[0].Token)

	events = r.Finalize()
	assert.Empty(t, events, "buffer must be cleared by the flush")
}

func TestIngestParagraphBreak(t *testing.T) {
	r := newPlain()

	events := r.Ingest("First paragraph\n\nSecond")
	require.Len(t, events, 1)
	assert.Equal(t, "First paragraph\n\nSecond", events[0].Token)
}

func TestIngestSizeThreshold(t *testing.T) {
	r := newPlain()

	// 100 characters with no punctuation: at the threshold, not over it.
	events := r.Ingest(strings.Repeat("a", 100))
	assert.Empty(t, events, "must not flush at exactly the threshold")

	// One more character pushes the buffer to 101 and fires the flush.
	events = r.Ingest("a")
	require.Len(t, events, 1)
	assert.Equal(t, strings.Repeat("a", 101), events[0].Token)
}

func TestIngestEmptyDeltaIsNoOp(t *testing.T) {
	r := newPlain()

	r.Ingest("This ends here.")
	assert.Empty(t, r.Ingest(""))
	assert.Empty(t, r.Finalize())
}

func TestIngestMultipleTerminatorsSingleFlush(t *testing.T) {
	r := newPlain()

	events := r.Ingest("One. Two. Three.")
	require.Len(t, events, 1)
	assert.Equal(t, "One. Two. Three.", events[0].Token)
}

func TestFinalizeFlushesRemainder(t *testing.T) {
	r := newPlain()

	assert.Empty(t, r.Ingest("trailing fragment without punctuation"))

	events := r.Finalize()
	require.Len(t, events, 1)
	assert.Equal(t, "trailing fragment without punctuation", events[0].Token)
}

func TestOrderPreservation(t *testing.T) {
	deltas := []string{
		"Go is a statically typed language. ",
		"It compiles fast. ",
		"Concurrency is built in",
		" via goroutines and channels. ",
		"Use it for servers.",
	}

	r := newPlain()
	var emitted []string
	for _, delta := range deltas {
		for _, event := range r.Ingest(delta) {
			emitted = append(emitted, event.Token)
		}
	}
	for _, event := range r.Finalize() {
		emitted = append(emitted, event.Token)
	}

	// Fragments come out in input order. Each flush trims edges, so compare
	// the trimmed concatenations.
	joined := strings.Join(emitted, " ")
	expected := CleanMarkdown(strings.Join([]string{
		"Go is a statically typed language.",
		"It compiles fast.",
		"Concurrency is built in via goroutines and channels.",
		"Use it for servers.",
	}, " "))
	assert.Equal(t, expected, joined)
}

func TestCleanMarkdownNestedClickHere(t *testing.T) {
	// Rule 1 unwraps the nested link, rule 2 strips the remaining label.
	got := CleanMarkdown("[Click here]([Click here](https://a.gov))")
	assert.Equal(t, "(https://a.gov)", got)
}

func TestCleanMarkdownUnwrapsNestedLink(t *testing.T) {
	got := CleanMarkdown("See the [docs]([Click here](https://go.dev/doc)) for details.")
	assert.Equal(t, "See the [docs](https://go.dev/doc) for details.", got)
}

func TestCleanMarkdownStripsOrphanedParenthetical(t *testing.T) {
	got := CleanMarkdown("Read more (Click here) in the manual.")
	assert.Equal(t, "Read more  in the manual.", got)
}

func TestCleanMarkdownIdempotent(t *testing.T) {
	inputs := []string{
		"[Click here]([Click here](https://a.gov))",
		"plain text with no artifacts.",
		"See the [docs]([click here](https://go.dev)) now))",
		"nested (parens (everywhere))",
		"  padded  ",
		"",
	}
	for _, input := range inputs {
		once := CleanMarkdown(input)
		twice := CleanMarkdown(once)
		assert.Equal(t, once, twice, "cleanup must be idempotent for %q", input)
	}
}

func TestCleanMarkdownCollapsesParenRuns(t *testing.T) {
	got := CleanMarkdown("[docs](https://go.dev)))")
	assert.Equal(t, "[docs](https://go.dev)", got)
}

func TestStructuredModeEmitsOnce(t *testing.T) {
	r := NewReassembler(types.FormatStructured, 1000)

	// Envelope arrives split across deltas; nothing flushes until it parses.
	assert.Empty(t, r.Ingest(`{"mainAnswer": "Use gofmt.",`))
	events := r.Ingest(`"steps": [{"title": "Install", "description": "Get the toolchain.", "links": [{"text": "Downloads", "url": "https://go.dev/dl"}, {"text": "Docs", "url": "https://go.dev/doc"}]}], "sources": [{"name": "go.dev", "url": "https://go.dev"}], "language": "en"}`)

	require.Len(t, events, 2)
	assert.Equal(t, EventToken, events[0].Kind)
	assert.Equal(t, EventStructured, events[1].Kind)

	rendered := events[0].Token
	assert.Contains(t, rendered, "Use gofmt.")
	assert.Contains(t, rendered, "1. **Install**")
	assert.Contains(t, rendered, "Get the toolchain.")
	assert.Contains(t, rendered, "Helpful links: [Downloads](https://go.dev/dl)")
	assert.Contains(t, rendered, "- [Docs](https://go.dev/doc)")
	assert.Contains(t, rendered, "- [go.dev](https://go.dev)")

	require.NotNil(t, events[1].Structured)
	assert.Equal(t, "Use gofmt.", events[1].Structured.MainAnswer)

	// Structured mode exclusivity: later deltas are dropped.
	assert.Empty(t, r.Ingest("stray trailing tokens."))
	assert.Empty(t, r.Finalize())
}

func TestStructuredModeFallsBackOnHeuristicFlush(t *testing.T) {
	r := NewReassembler(types.FormatStructured, 40)

	// Truncated JSON that crosses the size threshold flushes as plain text
	// instead of stalling the stream.
	events := r.Ingest(`{"mainAnswer": "a long partial answer that never completes`)
	require.Len(t, events, 1)
	assert.Equal(t, EventToken, events[0].Kind)
}

func TestStructuredModeSchemaMismatchFallsBack(t *testing.T) {
	r := NewReassembler(types.FormatStructured, 1000)

	// Complete JSON without a main answer is a schema failure, not a call
	// failure: flush as plain text and keep streaming plain afterwards.
	events := r.Ingest(`{"unexpected": "shape"}`)
	require.Len(t, events, 1)
	assert.Equal(t, EventToken, events[0].Kind)

	events = r.Ingest("More prose follows.")
	require.Len(t, events, 1)
	assert.Equal(t, "More prose follows.", events[0].Token)
}

func TestRenderStructuredDeterministic(t *testing.T) {
	answer := &StructuredAnswer{
		MainAnswer: "Answer first.",
		Steps: []AnswerStep{
			{Title: "One", Description: "Do one."},
			{Title: "Two", Description: "Do two.", Links: []Link{{Text: "ref", URL: "https://x.test"}}},
		},
	}
	first := RenderStructured(answer)
	second := RenderStructured(answer)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "2. **Two**")
}
