package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/config"
	"dev.arena.debate/internal/metrics"
)

// wire structures for the OpenAI-compatible completion endpoint.
type wireResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
}

type wireChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Client calls an OpenAI-compatible chat-completion endpoint with retry on
// transport failures. It implements Completer.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	retryConfig RetryConfig
	log         *logrus.Logger
}

// NewClient creates a completion client from configuration.
func NewClient(cfg config.LLMConfig, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryStep > 0 {
		retry.Step = cfg.RetryStep
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		// No per-call deadline: a single model call is allowed to run as
		// long as the provider keeps the connection open.
		httpClient:  &http.Client{},
		retryConfig: retry,
		log:         log,
	}
}

// Complete sends one chat-completion request, retrying transport failures
// with linear backoff. Schema validation of the completion text is not done
// here; that is the calling agent's responsibility.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	resp, err := ExecuteWithRetry(ctx, c.retryConfig, func() (*http.Response, error) {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, reqErr
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		return c.httpClient.Do(httpReq)
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("completion call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ModelCalls.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ModelCalls.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("provider error: %d - %s", resp.StatusCode, string(body))
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		metrics.ModelCalls.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if len(wire.Choices) == 0 {
		metrics.ModelCalls.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("provider returned no choices")
	}

	metrics.ModelCalls.WithLabelValues("ok").Inc()

	choice := wire.Choices[0]
	return &CompletionResponse{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
	}, nil
}
