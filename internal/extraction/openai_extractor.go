package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// OpenAIExtractor is the single-prompt extraction strategy: one chat
// completion embedding the full target schema, strict JSON back.
type OpenAIExtractor struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client

	maxRetries  int
	backoffBase time.Duration
}

// chatMessage is a message in the chat completions conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request to the chat completions endpoint.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response from the chat completions endpoint.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIExtractor creates the single-prompt extractor.
func NewOpenAIExtractor(cfg config.ExtractionConfig) *OpenAIExtractor {
	model := cfg.OpenAI.Model
	if model == "" {
		model = "gpt-4o"
	}
	baseURL := cfg.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.BackoffBaseMS) * time.Millisecond
	if backoff == 0 {
		backoff = 500 * time.Millisecond
	}
	temperature := cfg.OpenAI.Temperature
	if temperature <= 0 {
		temperature = 0.1
	}

	return &OpenAIExtractor{
		apiKey:      cfg.OpenAI.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		backoffBase: backoff,
	}
}

// Extract sends one schema-constrained prompt and post-processes the JSON
// reply. Transport and parse failures are retried with exponential backoff;
// an exhausted budget returns the last error.
func (e *OpenAIExtractor) Extract(ctx context.Context, emailBody, senderEmail, subject string) (*domain.ParsedEmail, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("openai extractor: API key not configured")
	}

	request := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(emailBody, senderEmail, subject)},
		},
		Temperature:    e.temperature,
		MaxTokens:      4000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.backoffBase * time.Duration(1<<(attempt-1))
			log.Printf("[extraction] openai attempt %d/%d after %v: %v", attempt+1, e.maxRetries, backoff, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := e.complete(ctx, request)
		if err != nil {
			lastErr = err
			continue
		}

		parsed, err := parseCompletion(text, senderEmail, "openai_single_call")
		if err != nil {
			// Malformed JSON counts as an extraction failure and is retried.
			lastErr = err
			continue
		}
		return parsed, nil
	}

	return nil, fmt.Errorf("extraction failed after %d attempts: %w", e.maxRetries, lastErr)
}

func (e *OpenAIExtractor) complete(ctx context.Context, request chatRequest) (string, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w (body: %s)", err, truncate(string(body), 500))
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return response.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
