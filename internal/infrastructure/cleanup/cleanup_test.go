package cleanup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/allerlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func completionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		wantNil  bool
		wantErr  bool
	}{
		{provider: "", wantNil: true},
		{provider: ProviderNone, wantNil: true},
		{provider: ProviderOpenAI},
		{provider: ProviderOpenRouter},
		{provider: "carrier-pigeon", wantNil: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cleaner, err := New(Config{Provider: tt.provider, APIKey: "k"}, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, cleaner == nil)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults(defaultOpenAIBaseURL, defaultOpenAIModel)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL)
	assert.Equal(t, "gemma2-9b-it", cfg.Model)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, 1000, cfg.MaxTokens)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-6)

	custom := Config{Model: "llama3", MaxTokens: 200}.withDefaults(defaultOpenAIBaseURL, defaultOpenAIModel)
	assert.Equal(t, "llama3", custom.Model)
	assert.Equal(t, 200, custom.MaxTokens)
}

func TestExtractCleanedText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain", content: "Sugar\nSalt", want: "Sugar\nSalt"},
		{name: "surrounding whitespace", content: "\n  Sugar\nSalt  \n", want: "Sugar\nSalt"},
		{name: "fenced", content: "```\nSugar\nSalt\n```", want: "Sugar\nSalt"},
		{name: "fenced with language", content: "```text\nSugar\nSalt\n```", want: "Sugar\nSalt"},
		{name: "empty", content: "   ", wantErr: true},
		{name: "empty fence", content: "```\n```", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCleanedText(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrCleanupFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAICleaner_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma2-9b-it", req["model"])
		messages := req["messages"].([]interface{})
		require.Len(t, messages, 2)
		user := messages[1].(map[string]interface{})
		assert.Contains(t, user["content"], "SUGAR 40%")

		writeJSON(w, http.StatusOK, completionBody("```\nSugar\nSalt\n```"))
	}))
	defer server.Close()

	cleaner := NewOpenAICleaner(Config{APIKey: "test-key", BaseURL: server.URL}, nil)
	got, err := cleaner.Cleanup(context.Background(), "INGREDIENTS: SUGAR 40%, SALT")
	require.NoError(t, err)
	assert.Equal(t, "Sugar\nSalt", got)
}

func TestOpenAICleaner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    interface{}
		wantErr error
	}{
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    map[string]interface{}{"error": map[string]string{"message": "slow down", "type": "rate_limit_exceeded"}},
			wantErr: domain.ErrRateLimited,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    map[string]interface{}{"error": map[string]string{"message": "boom", "type": "server_error"}},
			wantErr: domain.ErrCleanupFailed,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    map[string]interface{}{"id": "x", "object": "chat.completion", "choices": []interface{}{}},
			wantErr: domain.ErrCleanupFailed,
		},
		{
			name:    "blank reply",
			status:  http.StatusOK,
			body:    completionBody("  "),
			wantErr: domain.ErrCleanupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer server.Close()

			cleaner := NewOpenAICleaner(Config{APIKey: "k", BaseURL: server.URL}, nil)
			_, err := cleaner.Cleanup(context.Background(), "Sugar")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	ctx := context.Background()
	_, err := NewOpenAICleaner(Config{BaseURL: server.URL}, nil).Cleanup(ctx, "Sugar")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)

	_, err = NewOpenRouterCleaner(Config{BaseURL: server.URL}, nil).Cleanup(ctx, "Sugar")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)

	assert.Zero(t, atomic.LoadInt32(&hits), "no request should be sent without a key")
}

func newTestOpenRouter(baseURL string) *OpenRouterCleaner {
	c := NewOpenRouterCleaner(Config{APIKey: "test-key", BaseURL: baseURL}, nil)
	c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestOpenRouterCleaner_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultOpenRouterModel, req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		writeJSON(w, http.StatusOK, completionBody("Wheat Flour\nSugar"))
	}))
	defer server.Close()

	got, err := newTestOpenRouter(server.URL).Cleanup(context.Background(), "wheat fl0ur, sugar")
	require.NoError(t, err)
	assert.Equal(t, "Wheat Flour\nSugar", got)
}

func TestOpenRouterCleaner_Retries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   error
		wantCalls int32
	}{
		{
			name:      "recovers after server error",
			statuses:  []int{http.StatusBadGateway, http.StatusOK},
			wantCalls: 2,
		},
		{
			name:      "recovers after rate limit",
			statuses:  []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK},
			wantCalls: 3,
		},
		{
			name:      "gives up after three attempts",
			statuses:  []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
			wantErr:   domain.ErrCleanupFailed,
			wantCalls: 3,
		},
		{
			name:      "reports rate limit when exhausted",
			statuses:  []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests},
			wantErr:   domain.ErrRateLimited,
			wantCalls: 3,
		},
		{
			name:      "does not retry client errors",
			statuses:  []int{http.StatusUnauthorized},
			wantErr:   domain.ErrCleanupFailed,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				status := tt.statuses[n-1]
				if status == http.StatusOK {
					writeJSON(w, status, completionBody("Sugar"))
					return
				}
				writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			}))
			defer server.Close()

			got, err := newTestOpenRouter(server.URL).Cleanup(context.Background(), "sugar")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Sugar", got)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestOpenRouterCleaner_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	}))
	defer server.Close()

	c := newTestOpenRouter(server.URL)
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Cleanup(ctx, "sugar")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}
