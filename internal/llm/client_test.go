package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.arena.debate/internal/config"
)

func testConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: 3,
		RetryStep:  time.Millisecond,
	}
}

func completionBody(content string) string {
	b, _ := json.Marshal(wireResponse{
		ID: "cmpl-1",
		Choices: []wireChoice{
			{Message: Message{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	})
	return string(b)
}

func TestClient_CompleteReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req CompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		w.Write([]byte(completionBody("counterpoint")))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: "user", Content: "argue"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "counterpoint", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestClient_RetriesTransportFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("recovered")))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	resp, err := client.Complete(context.Background(), &CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_ExhaustedRetriesSurfaceError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	_, err := client.Complete(context.Background(), &CompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "first call plus three retries")
}

func TestClient_NonRetryableStatusFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	_, err := client.Complete(context.Background(), &CompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_ToolCallsPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(wireResponse{
			Choices: []wireChoice{{
				Message: Message{
					Role: "assistant",
					ToolCalls: []ToolCall{{
						ID:   "call-1",
						Type: "function",
						Function: FunctionCall{
							Name:      "search_web",
							Arguments: `{"query":"carbon tax"}`,
						},
					}},
				},
				FinishReason: "tool_calls",
			}},
		})
		w.Write(b)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	resp, err := client.Complete(context.Background(), &CompletionRequest{})

	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "search_web", resp.ToolCalls[0].Function.Name)
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(http.StatusTooManyRequests))
	assert.True(t, IsRetryableStatusCode(http.StatusBadGateway))
	assert.False(t, IsRetryableStatusCode(http.StatusOK))
	assert.False(t, IsRetryableStatusCode(http.StatusUnauthorized))
}

func TestIsRetryableError_ContextErrorsAreNot(t *testing.T) {
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(context.DeadlineExceeded))
	assert.False(t, IsRetryableError(nil))
}

func TestExecuteWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteWithRetry(ctx, DefaultRetryConfig(), func() (*http.Response, error) {
		t.Fatal("fn must not run on a cancelled context")
		return nil, nil
	})
	require.Error(t, err)
}
