package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/publisher-inbox/internal/config"
)

const validExtractionJSON = `{
	"sender": {"email": "new@publisher.com", "contact_name": "Sam", "confidence": 0.9},
	"websites": [{"domain": "publisher.com", "confidence": 0.8}],
	"offerings": [{"offering_type": "guest_post", "base_price": 25000, "currency": "USD", "confidence": 0.85}],
	"overall_confidence": 0.84,
	"missing_fields": []
}`

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-test",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(b)
}

func newTestExtractor(baseURL string) *OpenAIExtractor {
	return NewOpenAIExtractor(config.ExtractionConfig{
		OpenAI:        config.OpenAIConfig{APIKey: "sk-test", BaseURL: baseURL, Model: "gpt-4o"},
		MaxRetries:    3,
		BackoffBaseMS: 1,
	})
}

func TestOpenAIExtractSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(completionBody(validExtractionJSON)))
	}))
	defer srv.Close()

	parsed, err := newTestExtractor(srv.URL).Extract(context.Background(),
		"Guest posts are $250", "new@publisher.com", "Re: collaboration")
	require.NoError(t, err)

	assert.Equal(t, "new@publisher.com", parsed.Sender.Email)
	assert.Equal(t, 0.84, parsed.OverallConfidence)
	require.Len(t, parsed.Offerings, 1)
	assert.Equal(t, int64(25000), parsed.Offerings[0].BasePrice)
	assert.Equal(t, "openai_single_call", parsed.ExtractionMethod)
}

func TestOpenAIExtractUsesConfiguredTemperature(t *testing.T) {
	var gotTemp float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Temperature float64 `json:"temperature"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotTemp = req.Temperature
		w.Write([]byte(completionBody(validExtractionJSON)))
	}))
	defer srv.Close()

	e := NewOpenAIExtractor(config.ExtractionConfig{
		OpenAI: config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Temperature: 0.7},
	})
	_, err := e.Extract(context.Background(), "body", "a@b.com", "")
	require.NoError(t, err)
	assert.Equal(t, 0.7, gotTemp)

	// Zero config falls back to the conservative default.
	e = newTestExtractor(srv.URL)
	_, err = e.Extract(context.Background(), "body", "a@b.com", "")
	require.NoError(t, err)
	assert.Equal(t, 0.1, gotTemp)
}

func TestOpenAIExtractRetriesTransportFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			// Not JSON at all — treated as transport/parse failure.
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream error"))
			return
		}
		w.Write([]byte(completionBody(validExtractionJSON)))
	}))
	defer srv.Close()

	parsed, err := newTestExtractor(srv.URL).Extract(context.Background(), "body", "a@b.com", "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Len(t, parsed.Offerings, 1)
}

func TestOpenAIExtractRetriesMalformedCompletion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(completionBody("this is not json")))
			return
		}
		w.Write([]byte(completionBody(validExtractionJSON)))
	}))
	defer srv.Close()

	_, err := newTestExtractor(srv.URL).Extract(context.Background(), "body", "a@b.com", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOpenAIExtractExhaustedRetriesFailsLoud(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestExtractor(srv.URL).Extract(context.Background(), "body", "a@b.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestOpenAIExtractAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	_, err := newTestExtractor(srv.URL).Extract(context.Background(), "body", "a@b.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestOpenAIExtractRequiresAPIKey(t *testing.T) {
	e := NewOpenAIExtractor(config.ExtractionConfig{})
	_, err := e.Extract(context.Background(), "body", "a@b.com", "")
	require.Error(t, err)
}

func TestNewSelectsStrategy(t *testing.T) {
	ext, err := New(config.ExtractionConfig{Strategy: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIExtractor{}, ext)

	_, err = New(config.ExtractionConfig{Strategy: "carrier-pigeon"})
	require.Error(t, err)
}
