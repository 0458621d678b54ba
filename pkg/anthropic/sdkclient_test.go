package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestClient(baseURL string) Client {
	return NewClient("test-key", 0, option.WithBaseURL(baseURL))
}

func writeMessage(w http.ResponseWriter, content []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_test_001",
		"type":        "message",
		"role":        "assistant",
		"content":     content,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  120,
			"output_tokens": 40,
		},
	})
}

func TestSDKClient_CreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "Be terse.", gjson.GetBytes(body, "system.0.text").String())
		assert.Equal(t, "Hello", gjson.GetBytes(body, "messages.0.content.0.text").String())
		assert.False(t, gjson.GetBytes(body, "tools").Exists())

		writeMessage(w, []map[string]any{{"type": "text", "text": "Hello from test"}})
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 1024,
		System:    "Be terse.",
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Hello from test", resp.Text())
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(40), resp.Usage.OutputTokens)
}

func TestSDKClient_CreateMessage_ForcedTool(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, "record_recipe", gjson.GetBytes(body, "tools.0.name").String())
		assert.Equal(t, "object", gjson.GetBytes(body, "tools.0.input_schema.type").String())
		assert.Equal(t, "string", gjson.GetBytes(body, "tools.0.input_schema.properties.title.type").String())
		assert.Equal(t, "title", gjson.GetBytes(body, "tools.0.input_schema.required.0").String())
		assert.Equal(t, "tool", gjson.GetBytes(body, "tool_choice.type").String())
		assert.Equal(t, "record_recipe", gjson.GetBytes(body, "tool_choice.name").String())

		writeMessage(w, []map[string]any{{
			"type":  "tool_use",
			"id":    "toolu_01",
			"name":  "record_recipe",
			"input": map[string]any{"title": "Pancakes"},
		}})
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 1024,
		Messages:  []Message{{Role: "user", Content: "extract"}},
		Tools: []Tool{{
			Name:        "record_recipe",
			Description: "Record the recipe",
			Properties:  map[string]any{"title": map[string]any{"type": "string"}},
			Required:    []string{"title"},
		}},
		ToolChoice: "record_recipe",
	})
	require.NoError(t, err)

	input, ok := resp.ToolInput("record_recipe")
	require.True(t, ok)
	assert.Equal(t, "Pancakes", gjson.GetBytes(input, "title").String())
	assert.Empty(t, resp.Text())
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"overloaded", 529, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"nope"}}`))
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
				Model:     "claude-haiku-4-5-20251001",
				MaxTokens: 16,
				Messages:  []Message{{Role: "user", Content: "Hello"}},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "anthropic: create message")
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}
