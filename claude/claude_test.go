package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xostack/uniai/llm"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient("sk-ant-test", "", "", 0, false)
	require.NoError(t, err)

	assert.Equal(t, "claude", client.ProviderName())
	assert.Equal(t, defaultClaudeModel, client.modelName)
	assert.Equal(t, DefaultBaseURL, client.baseURL)

	_, err = NewClient("", "", "", 0, false)
	require.Error(t, err)
	assert.Equal(t, "Anthropic API key is required", err.Error())
}

func TestClaudeClient_Chat_MockServer_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))

		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
			System      []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, defaultClaudeModel, body.Model)
		assert.Equal(t, defaultMaxTokens, body.MaxTokens, "unset max tokens falls back to the default")
		assert.Equal(t, 0.5, body.Temperature)
		require.Len(t, body.System, 1)
		assert.Equal(t, "be brief", body.System[0].Text)
		require.Len(t, body.Messages, 3)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "assistant", body.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-haiku-20240307",
			"content": [{"type": "text", "text": " Hi there. "}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 11, "output_tokens": 4}
		}`))
	}))
	defer mockServer.Close()

	client, err := NewClient("sk-ant-test", mockServer.URL, "", 10, false)
	require.NoError(t, err)

	completion, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
		{Role: llm.RoleUser, Content: "again"},
	}, llm.Options{Temperature: 0.5})
	require.NoError(t, err)

	assert.Equal(t, "Hi there.", completion.Text)
	assert.Equal(t, "claude-3-haiku-20240307", completion.Model)
	assert.Equal(t, llm.Usage{PromptTokens: 11, CompletionTokens: 4, TotalTokens: 15}, completion.Usage)
}

func TestClaudeClient_Generate_APIError(t *testing.T) {
	calls := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer mockServer.Close()

	client, _ := NewClient("bad", mockServer.URL, "", 10, false)
	_, err := client.Generate(context.Background(), "hi", llm.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Anthropic API request failed")
	assert.Equal(t, 1, calls, "retries are disabled")
}

func TestClaudeClient_Generate_NoText(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"claude-3-haiku-20240307","content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer mockServer.Close()

	client, _ := NewClient("sk-ant-test", mockServer.URL, "", 10, false)
	_, err := client.Generate(context.Background(), "hi", llm.Options{MaxTokens: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestClaudeClient_Stream(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		events := []struct{ name, data string }{
			{"message_start", `{"type":"message_start","message":{"id":"msg_3","type":"message","role":"assistant","model":"claude-3-haiku-20240307","content":[],"usage":{"input_tokens":3,"output_tokens":0}}}`},
			{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`},
			{"content_block_stop", `{"type":"content_block_stop","index":0}`},
			{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`},
			{"message_stop", `{"type":"message_stop"}`},
		}
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
		}
	}))
	defer mockServer.Close()

	client, _ := NewClient("sk-ant-test", mockServer.URL, "", 10, false)

	var chunks []string
	for chunk, err := range client.Stream(context.Background(), "hi", llm.Options{}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, "Hello", strings.Join(chunks, ""))
}

func TestClaudeClient_NilClient(t *testing.T) {
	client := &Client{}
	_, err := client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.Options{})
	require.Error(t, err)
	assert.Equal(t, "Claude client not initialized", err.Error())
	assert.NoError(t, client.Close())
}

func TestToClaudeMessages(t *testing.T) {
	msgs, system := toClaudeMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "one"},
		{Role: llm.RoleSystem, Content: "two"},
		{Role: llm.RoleUser, Content: "hi"},
	})
	assert.Len(t, system, 2)
	assert.Len(t, msgs, 1)
}
