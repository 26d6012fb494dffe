// Package huggingface provides an LLM client for the Hugging Face Inference API.
//
// The hosted inference endpoint takes a bare prompt and returns generated
// text; it has no notion of temperature, token limits or chat roles as far
// as this client is concerned.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xostack/uniai/llm"
)

const (
	defaultHuggingFaceModel = "gpt2"
	providerName            = "huggingface"
	// DefaultBaseURL is the hosted inference API root.
	DefaultBaseURL = "https://api-inference.huggingface.co"
)

// Client implements the llm.Client interface for Hugging Face.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	modelName  string
	debugMode  bool
}

// inferenceRequest is the body posted to /models/<model>.
type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// generation is one element of a text-generation response.
type generation struct {
	GeneratedText string `json:"generated_text"`
}

// NewClient creates a new Hugging Face client.
// baseURL may be empty to use DefaultBaseURL.
func NewClient(apiKey, baseURL, modelOverride string, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Hugging Face API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	modelToUse := llm.ModelOr(modelOverride, defaultHuggingFaceModel)
	if debugMode {
		log.Printf("Using Hugging Face model: %s", modelToUse)
	}

	httpClient := &http.Client{}
	if requestTimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(requestTimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		modelName:  modelToUse,
		debugMode:  debugMode,
	}, nil
}

// Generate posts the prompt to the model endpoint. Temperature and MaxTokens
// in opts are ignored.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	if c.httpClient == nil {
		return llm.Completion{}, fmt.Errorf("Hugging Face client not initialized")
	}

	model := llm.ModelOr(opts.Model, c.modelName)
	payloadBytes, err := json.Marshal(inferenceRequest{Inputs: prompt})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to marshal Hugging Face request payload: %w", err)
	}

	endpoint := c.baseURL + "/models/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to create Hugging Face request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to send request to Hugging Face API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to read Hugging Face response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := errorMessage(body); msg != "" {
			return llm.Completion{}, fmt.Errorf("Hugging Face API error: %s. HTTP Status: %s", msg, resp.Status)
		}
		return llm.Completion{}, fmt.Errorf("Hugging Face API request failed with status %s. Body: %s", resp.Status, string(body))
	}

	text, err := parseGeneratedText(body)
	if err != nil {
		return llm.Completion{}, err
	}
	if c.debugMode {
		log.Printf("Hugging Face returned %d characters from %s", len(text), model)
	}

	return llm.Completion{Model: model, Text: text}, nil
}

// Chat flattens the transcript into a single prompt.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	return c.Generate(ctx, llm.Flatten(messages), opts)
}

// parseGeneratedText accepts the shapes the inference API returns: a list of
// generations, a single generation object, or anything else, which is passed
// through verbatim.
func parseGeneratedText(body []byte) (string, error) {
	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) > 0 && list[0].GeneratedText != "" {
			return list[0].GeneratedText, nil
		}
		return strings.TrimSpace(string(body)), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		if json.Valid(body) {
			return strings.TrimSpace(string(body)), nil
		}
		return "", fmt.Errorf("failed to unmarshal Hugging Face response JSON: %w. Body: %s", err, string(body))
	}
	if raw, ok := obj["generated_text"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return text, nil
		}
	}
	if msg := errorMessage(body); msg != "" {
		return "", fmt.Errorf("Hugging Face API error: %s", msg)
	}
	return strings.TrimSpace(string(body)), nil
}

func errorMessage(body []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return apiErr.Error
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
