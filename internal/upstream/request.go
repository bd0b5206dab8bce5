package upstream

import (
	"encoding/json"
	"fmt"

	"chat-relay/internal/types"

	"github.com/tidwall/sjson"
)

// ChatTurn is one historical exchange supplied by the caller. Ordering is
// chronological, oldest first.
type ChatTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// ConversationRequest is the input to a single relay call.
type ConversationRequest struct {
	Message string
	History []ChatTurn
	Format  types.ResponseFormat
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody assembles the provider request payload: the system
// instruction, the history rendered as alternating user/assistant turns, and
// the current message, with streaming enabled. Structured mode additionally
// requests a strict JSON object response.
func BuildRequestBody(relayConfig types.RelayConfig, model string, req *ConversationRequest) ([]byte, error) {
	messages := make([]chatMessage, 0, len(req.History)*2+2)

	systemPrompt := relayConfig.SystemPrompt
	if req.Format == types.FormatStructured {
		systemPrompt = relayConfig.SystemPrompt + "\n\n" + structuredInstruction
	}
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})

	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: "user", Content: turn.Query})
		messages = append(messages, chatMessage{Role: "assistant", Content: turn.Response})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Message})

	payload := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	if req.Format == types.FormatStructured {
		body, err = sjson.SetBytes(body, "response_format.type", "json_object")
		if err != nil {
			return nil, fmt.Errorf("failed to set response format: %w", err)
		}
	}
	return body, nil
}

// structuredInstruction tells the model to answer with the JSON envelope the
// reassembler renders into Markdown.
const structuredInstruction = `Respond with a single JSON object using this exact schema:
{"mainAnswer": string, "steps": [{"title": string, "description": string, "links": [{"text": string, "url": string}]}], "sources": [{"name": string, "url": string}], "language": string}
Do not wrap the object in Markdown code fences and do not add any text outside the JSON object.`
