// Package relay implements the streaming pipeline that turns upstream
// completion frames into clean Markdown SSE events for the client.
package relay

import "encoding/json"

// doneSentinel is the literal frame that terminates every call.
const doneSentinel = "[DONE]"

// EventKind discriminates the outbound event variants.
type EventKind int

const (
	// EventToken carries a cleaned Markdown fragment.
	EventToken EventKind = iota
	// EventStructured carries the full structured answer object.
	EventStructured
	// EventError carries a terminal error message.
	EventError
	// EventDone is the terminal sentinel, exactly one per call.
	EventDone
)

// Event is the wire-level unit sent to the client.
type Event struct {
	Kind       EventKind
	Token      string
	Structured *StructuredAnswer
	Err        string
}

// TokenEvent builds a Markdown fragment event.
func TokenEvent(token string) Event {
	return Event{Kind: EventToken, Token: token}
}

// StructuredEvent builds an event embedding the full structured answer.
func StructuredEvent(answer *StructuredAnswer) Event {
	return Event{Kind: EventStructured, Structured: answer}
}

// ErrorEvent builds a terminal error event.
func ErrorEvent(message string) Event {
	return Event{Kind: EventError, Err: message}
}

// DoneEvent builds the terminal sentinel event.
func DoneEvent() Event {
	return Event{Kind: EventDone}
}

// Payload renders the SSE data payload for the event. Done is the literal
// sentinel rather than JSON.
func (e Event) Payload() (string, error) {
	switch e.Kind {
	case EventDone:
		return doneSentinel, nil
	case EventToken:
		data, err := json.Marshal(map[string]string{"token": e.Token})
		return string(data), err
	case EventStructured:
		data, err := json.Marshal(map[string]any{
			"structured": true,
			"response":   e.Structured,
		})
		return string(data), err
	case EventError:
		data, err := json.Marshal(map[string]string{"error": e.Err})
		return string(data), err
	}
	return "", nil
}

// StructuredAnswer is the JSON envelope the model returns in structured mode.
type StructuredAnswer struct {
	MainAnswer string       `json:"mainAnswer"`
	Steps      []AnswerStep `json:"steps,omitempty"`
	Sources    []Source     `json:"sources,omitempty"`
	Language   string       `json:"language,omitempty"`
}

// AnswerStep is one numbered step of a structured answer.
type AnswerStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links,omitempty"`
}

// Link is a titled URL inside a step.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Source is a citation attached to a structured answer.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
