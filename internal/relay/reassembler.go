package relay

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"chat-relay/internal/types"
)

// Cleanup pass rules, order-dependent: link unwrapping must run before the
// label strips, which must run before paren collapsing.
var (
	// [text]([Click here](url)) -> [text](url)
	nestedLinkRe = regexp.MustCompile(`(?i)\[([^\]]*)\]\(\s*\[click here\]\(([^()\s]+)\)\s*\)`)
	// stray [Click here] label remnants
	clickHereLabelRe = regexp.MustCompile(`(?i)\[click here\]`)
	// orphaned (Click here) parentheticals
	clickHereParenRe = regexp.MustCompile(`(?i)\(\s*click here\s*\)`)
	// doubled closing parens introduced by the substitutions above; a run
	// collapses to a single paren so the pass stays idempotent
	doubledParenRe = regexp.MustCompile(`\){2,}`)
)

// sentenceEndRe matches a buffer ending in sentence-terminal punctuation,
// optionally followed by closing quotes/brackets and whitespace.
var sentenceEndRe = regexp.MustCompile("[.!?][\"'`)\\]]*\\s*$")

// CleanMarkdown normalizes the link artifacts the upstream model sporadically
// emits. Running it on already-clean text is a no-op.
func CleanMarkdown(s string) string {
	s = nestedLinkRe.ReplaceAllString(s, "[$1]($2)")
	s = clickHereLabelRe.ReplaceAllString(s, "")
	s = clickHereParenRe.ReplaceAllString(s, "")
	s = doubledParenRe.ReplaceAllString(s, ")")
	return strings.TrimSpace(s)
}

// Reassembler accumulates upstream text deltas for one relay call, decides
// flush boundaries, and cleans formatting artifacts before emission. It is
// call-scoped and not safe for concurrent use.
type Reassembler struct {
	buf               strings.Builder
	format            types.ResponseFormat
	flushThreshold    int
	structuredEmitted bool
	structuredFailed  bool
	flushCount        int
}

// NewReassembler creates a reassembler for one call.
func NewReassembler(format types.ResponseFormat, flushThreshold int) *Reassembler {
	if flushThreshold < 1 {
		flushThreshold = 100
	}
	return &Reassembler{
		format:         format,
		flushThreshold: flushThreshold,
	}
}

// FlushCount reports how many events this call emitted, for call logging.
func (r *Reassembler) FlushCount() int {
	return r.flushCount
}

// Ingest appends a delta to the buffer and returns the events ready for
// emission, if any. A single call flushes at most once even when the delta
// contains several sentence terminators. An empty delta is a no-op.
func (r *Reassembler) Ingest(delta string) []Event {
	if delta == "" {
		return nil
	}
	if r.structuredEmitted {
		// The structured answer already went out; late deltas are ignored.
		return nil
	}
	r.buf.WriteString(delta)

	if r.format == types.FormatStructured && !r.structuredFailed {
		if events := r.tryStructured(); events != nil {
			return events
		}
		// Not parsable yet. Fall through to the plain heuristics so a
		// malformed or truncated envelope still surfaces as partial text
		// instead of stalling the stream.
	}

	if r.shouldFlush() {
		return r.flush()
	}
	return nil
}

// Finalize flushes whatever remains in the buffer when the upstream stream
// ends, regardless of flush heuristics. It does not emit the terminal
// sentinel; the caller owns that.
func (r *Reassembler) Finalize() []Event {
	if r.format == types.FormatStructured && !r.structuredEmitted && !r.structuredFailed {
		if events := r.tryStructured(); events != nil {
			return events
		}
	}
	if r.buf.Len() == 0 || r.structuredEmitted {
		return nil
	}
	return r.flush()
}

func (r *Reassembler) shouldFlush() bool {
	s := r.buf.String()
	if strings.Contains(s, "\n\n") {
		return true
	}
	if len(s) > r.flushThreshold {
		return true
	}
	return sentenceEndRe.MatchString(s)
}

func (r *Reassembler) flush() []Event {
	cleaned := CleanMarkdown(r.buf.String())
	r.buf.Reset()
	if cleaned == "" {
		return nil
	}
	r.flushCount++
	return []Event{TokenEvent(cleaned)}
}

// tryStructured attempts to parse the whole buffer as a structured answer.
// On success it emits the rendered Markdown as one token event plus the raw
// object as a second event, at most once per call. A payload that is complete
// JSON but fails schema expectations flushes as plain text instead.
func (r *Reassembler) tryStructured() []Event {
	raw := strings.TrimSpace(r.buf.String())
	if raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}

	var answer StructuredAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil || answer.MainAnswer == "" {
		// Complete JSON that does not match the schema. Fall back to
		// plain streaming for the rest of the call.
		r.structuredFailed = true
		return r.flush()
	}

	r.buf.Reset()
	r.structuredEmitted = true
	rendered := CleanMarkdown(RenderStructured(&answer))
	r.flushCount += 2
	return []Event{TokenEvent(rendered), StructuredEvent(&answer)}
}

// RenderStructured deterministically renders a structured answer as Markdown:
// the main answer paragraph, then each step as a numbered bold title with its
// description, the first link inlined after "Helpful links:" and remaining
// links as bullets, then the sources as a bullet list.
func RenderStructured(answer *StructuredAnswer) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(answer.MainAnswer))

	for i, step := range answer.Steps {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "%d. **%s**", i+1, strings.TrimSpace(step.Title))
		if desc := strings.TrimSpace(step.Description); desc != "" {
			b.WriteString("\n")
			b.WriteString(desc)
		}
		if len(step.Links) > 0 {
			fmt.Fprintf(&b, "\nHelpful links: [%s](%s)", step.Links[0].Text, step.Links[0].URL)
			for _, link := range step.Links[1:] {
				fmt.Fprintf(&b, "\n- [%s](%s)", link.Text, link.URL)
			}
		}
	}

	if len(answer.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for _, source := range answer.Sources {
			fmt.Fprintf(&b, "\n- [%s](%s)", source.Name, source.URL)
		}
	}
	return b.String()
}
