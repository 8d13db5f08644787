package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.LLM {
	return config.LLM{
		BaseURL: baseURL,
		APIKey:  "secret",
		Model:   "test-model",
		Timeout: 2 * time.Second,
		Referer: "http://localhost:3000",
		Title:   "ExpenseTracker AI",
	}
}

func TestHTTPClient_Complete(t *testing.T) {
	t.Run("should send chat completion request and return content", func(t *testing.T) {
		// given
		var received chatCompletionRequest
		var headers http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			headers = r.Header.Clone()
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Food\n"}}]}`))
		}))
		defer server.Close()
		client := NewHTTPClient(testConfig(server.URL + "/"))

		// when
		content, err := client.Complete(context.Background(), Request{
			Purpose:     "categorize",
			Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "Categorize: \"pizza\""}},
			Temperature: 0.1,
			MaxTokens:   10,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Food", content)
		assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
		assert.Equal(t, "http://localhost:3000", headers.Get("HTTP-Referer"))
		assert.Equal(t, "ExpenseTracker AI", headers.Get("X-Title"))
		assert.Equal(t, "test-model", received.Model)
		assert.Equal(t, 0.1, received.Temperature)
		assert.Equal(t, 10, received.MaxTokens)
		require.Len(t, received.Messages, 2)
		assert.Equal(t, RoleUser, received.Messages[1].Role)
	})

	t.Run("should fail on non 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
		}))
		defer server.Close()

		_, err := NewHTTPClient(testConfig(server.URL)).Complete(context.Background(), Request{Purpose: "insights"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("should fail on empty content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		_, err := NewHTTPClient(testConfig(server.URL)).Complete(context.Background(), Request{Purpose: "answer"})

		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("should fail on invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer server.Close()

		_, err := NewHTTPClient(testConfig(server.URL)).Complete(context.Background(), Request{Purpose: "answer"})

		assert.Error(t, err)
	})

	t.Run("should not call provider without api key", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()
		cfg := testConfig(server.URL)
		cfg.APIKey = ""

		_, err := NewHTTPClient(cfg).Complete(context.Background(), Request{Purpose: "answer"})

		assert.ErrorIs(t, err, ErrDisabled)
		assert.False(t, called)
	})

	t.Run("should respect timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()
		cfg := testConfig(server.URL)
		cfg.Timeout = 50 * time.Millisecond

		_, err := NewHTTPClient(cfg).Complete(context.Background(), Request{Purpose: "answer"})

		assert.Error(t, err)
	})
}
