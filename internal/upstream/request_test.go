package upstream

import (
	"testing"

	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func relayConfig() types.RelayConfig {
	return types.RelayConfig{
		SystemPrompt:   "You are a helpful assistant.",
		ResponseFormat: types.FormatPlain,
		FlushThreshold: 100,
	}
}

func TestBuildRequestBodyPlain(t *testing.T) {
	body, err := BuildRequestBody(relayConfig(), "gpt-4o-mini", &ConversationRequest{
		Message: "What is Go?",
		History: []ChatTurn{
			{Query: "Hello", Response: "Hi there!"},
			{Query: "Who made you?", Response: "OpenAI."},
		},
		Format: types.FormatPlain,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(body, "model").String())
	assert.True(t, gjson.GetBytes(body, "stream").Bool())
	assert.False(t, gjson.GetBytes(body, "response_format").Exists())

	messages := gjson.GetBytes(body, "messages").Array()
	require.Len(t, messages, 6)

	assert.Equal(t, "system", messages[0].Get("role").String())
	assert.Equal(t, "You are a helpful assistant.", messages[0].Get("content").String())

	// History preserves chronological order as alternating user/assistant turns.
	assert.Equal(t, "user", messages[1].Get("role").String())
	assert.Equal(t, "Hello", messages[1].Get("content").String())
	assert.Equal(t, "assistant", messages[2].Get("role").String())
	assert.Equal(t, "Hi there!", messages[2].Get("content").String())
	assert.Equal(t, "user", messages[3].Get("role").String())
	assert.Equal(t, "Who made you?", messages[3].Get("content").String())
	assert.Equal(t, "assistant", messages[4].Get("role").String())
	assert.Equal(t, "OpenAI.", messages[4].Get("content").String())

	assert.Equal(t, "user", messages[5].Get("role").String())
	assert.Equal(t, "What is Go?", messages[5].Get("content").String())
}

func TestBuildRequestBodyEmptyHistory(t *testing.T) {
	body, err := BuildRequestBody(relayConfig(), "gpt-4o-mini", &ConversationRequest{
		Message: "hi",
		Format:  types.FormatPlain,
	})
	require.NoError(t, err)

	messages := gjson.GetBytes(body, "messages").Array()
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Get("role").String())
	assert.Equal(t, "user", messages[1].Get("role").String())
}

func TestBuildRequestBodyStructured(t *testing.T) {
	body, err := BuildRequestBody(relayConfig(), "gpt-4o-mini", &ConversationRequest{
		Message: "hi",
		Format:  types.FormatStructured,
	})
	require.NoError(t, err)

	assert.Equal(t, "json_object", gjson.GetBytes(body, "response_format.type").String())
	systemContent := gjson.GetBytes(body, "messages.0.content").String()
	assert.Contains(t, systemContent, "mainAnswer")
	assert.Contains(t, systemContent, "You are a helpful assistant.")
}
