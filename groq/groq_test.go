package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xostack/uniai/llm"
)

func TestNewClient_Success(t *testing.T) {
	client, err := NewClient("test-api-key", "", "", 30, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client == nil {
		t.Fatal("Expected client to be non-nil")
	}

	if client.ProviderName() != "groq" {
		t.Errorf("Expected provider name 'groq', got '%s'", client.ProviderName())
	}

	if client.modelName != defaultGroqModel {
		t.Errorf("Expected default model '%s', got '%s'", defaultGroqModel, client.modelName)
	}

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected base URL '%s', got '%s'", DefaultBaseURL, client.baseURL)
	}
}

func TestNewClient_EmptyAPIKey(t *testing.T) {
	client, err := NewClient("", "", "", 30, false)
	if err == nil {
		t.Fatal("Expected error for empty API key")
	}

	if client != nil {
		t.Error("Expected client to be nil when error occurs")
	}

	expectedErrMsg := "groq API key is required"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestNewClient_WithCustomModel(t *testing.T) {
	customModel := "mixtral-8x7b-32768"
	client, err := NewClient("test-api-key", "", customModel, 45, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.modelName != customModel {
		t.Errorf("Expected model '%s', got '%s'", customModel, client.modelName)
	}
}

func TestGroqClient_Generate_MockServer_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path '/chat/completions', got '%s'", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("Expected Bearer token, got %s", r.Header.Get("Authorization"))
		}

		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if body.Model != defaultGroqModel {
			t.Errorf("Expected model '%s', got '%s'", defaultGroqModel, body.Model)
		}
		if body.MaxTokens != 1000 {
			t.Errorf("Expected max_tokens 1000, got %d", body.MaxTokens)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "Hello, world!" {
			t.Errorf("Unexpected messages: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"created": 1234567890,
			"model": "llama3-70b-8192",
			"choices": [
				{
					"index": 0,
					"message": {"role": "assistant", "content": "  Hello! This is a test response.  "},
					"finish_reason": "stop"
				}
			],
			"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
		}`))
	}))
	defer mockServer.Close()

	client, err := NewClient("test-api-key", mockServer.URL, "", 10, false)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	completion, err := client.Generate(context.Background(), "Hello, world!", llm.Options{Temperature: 0.7, MaxTokens: 1000})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if completion.Text != "Hello! This is a test response." {
		t.Errorf("Expected trimmed response, got '%s'", completion.Text)
	}

	if completion.Usage.TotalTokens != 18 || completion.Usage.PromptTokens != 10 {
		t.Errorf("Unexpected usage: %+v", completion.Usage)
	}
}

func TestGroqClient_Chat_ModelOverride(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "llama3-8b-8192" {
			t.Errorf("Expected model override 'llama3-8b-8192', got '%s'", body.Model)
		}
		if len(body.Messages) != 3 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" || body.Messages[2].Role != "assistant" {
			t.Errorf("Unexpected roles: %+v", body.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3-8b-8192","choices":[{"message":{"role":"assistant","content":"ok"}}],"usage":{"total_tokens":3}}`)
	}))
	defer mockServer.Close()

	client, _ := NewClient("test-api-key", mockServer.URL, "", 10, false)
	completion, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}, llm.Options{Model: "llama3-8b-8192"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if completion.Model != "llama3-8b-8192" {
		t.Errorf("Expected model 'llama3-8b-8192', got '%s'", completion.Model)
	}
}

func TestGroqClient_Generate_APIError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer mockServer.Close()

	client, _ := NewClient("bad-key", mockServer.URL, "", 10, false)
	_, err := client.Generate(context.Background(), "hi", llm.Options{})
	if err == nil {
		t.Fatal("Expected error from API")
	}
	if !strings.Contains(err.Error(), "Invalid API Key") {
		t.Errorf("Expected error to carry the API message, got: %v", err)
	}
}

func TestGroqClient_Generate_EmptyChoices(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer mockServer.Close()

	client, _ := NewClient("test-api-key", mockServer.URL, "", 10, false)
	_, err := client.Generate(context.Background(), "hi", llm.Options{})
	if err == nil {
		t.Fatal("Expected error for empty choices")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestGroqClient_Stream(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"s\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer mockServer.Close()

	client, _ := NewClient("test-api-key", mockServer.URL, "", 10, false)

	var chunks []string
	for chunk, err := range client.Stream(context.Background(), "hi", llm.Options{}) {
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		chunks = append(chunks, chunk)
	}

	if strings.Join(chunks, "") != "Hello" {
		t.Errorf("Expected 'Hello', got %v", chunks)
	}
}

func TestGroqClient_Generate_NilClient(t *testing.T) {
	client := &Client{modelName: "test-model"}

	_, err := client.Generate(context.Background(), "test prompt", llm.Options{})
	if err == nil {
		t.Fatal("Expected error for nil API client")
	}

	expectedErrMsg := "groq client not initialized"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestGroqClient_Generate_ContextCancellation(t *testing.T) {
	client, _ := NewClient("test-key", "http://127.0.0.1:1", "", 10, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "test prompt", llm.Options{})
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestGroqClient_Close(t *testing.T) {
	client := &Client{}

	if err := client.Close(); err != nil {
		t.Errorf("Expected no error from Close(), got: %v", err)
	}

	if client.ProviderName() != "groq" {
		t.Errorf("Expected provider name 'groq', got '%s'", client.ProviderName())
	}
}

func TestGroqConstants(t *testing.T) {
	if !strings.Contains(DefaultBaseURL, "groq.com") {
		t.Errorf("Base URL should contain 'groq.com', got '%s'", DefaultBaseURL)
	}
}
