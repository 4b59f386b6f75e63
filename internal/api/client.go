package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lamim/blogforge/internal/config"
)

// DefaultHTTPTimeout bounds a completion call when the model config does not
// specify one.
const DefaultHTTPTimeout = 60 * time.Second

// ErrEmptyCompletion is returned when the service answers successfully but
// produces no usable text.
var ErrEmptyCompletion = errors.New("completion contained no usable text")

// followUpMessage asks the model to finish a truncated completion. Used at
// most once per call, per the follow-up turn budget.
const followUpMessage = "Continue exactly where you left off. Do not repeat any text you already produced."

// Client handles HTTP requests to OpenAI-compatible API endpoints.
// Each call is a single blocking round trip: failures are surfaced to the
// caller rather than retried, since a failed stage ends the pipeline.
type Client struct {
	httpClient      *http.Client
	rateLimiterPool *RateLimiterPool
	logger          *slog.Logger
}

// NewClient creates a new API client
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		// Per-call deadlines come from the model config via context;
		// the client timeout is a backstop.
		httpClient:      &http.Client{Timeout: 2 * DefaultHTTPTimeout},
		rateLimiterPool: NewRateLimiterPool(),
		logger:          logger,
	}
}

// Complete sends one chat completion request built from a role instruction
// and a task message, and returns the completion text. If the first response
// is truncated at the token limit and the model's follow-up budget allows it,
// exactly one continuation request is issued and the texts are concatenated.
func (c *Client) Complete(
	ctx context.Context,
	modelCfg config.ModelConfig,
	apiKey string,
	instruction string,
	task string,
) (string, error) {
	// Per-model ID for rate limiting
	modelID := fmt.Sprintf("%s:%s", modelCfg.BaseURL, modelCfg.ModelName)

	if err := c.rateLimiterPool.Wait(ctx, modelID, modelCfg.RateLimitPerMinute); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	messages := []Message{}
	if instruction != "" {
		messages = append(messages, Message{Role: "system", Content: instruction})
	}
	messages = append(messages, Message{Role: "user", Content: task})

	text, finishReason, err := c.complete(ctx, modelCfg, apiKey, messages)
	if err != nil {
		return "", err
	}

	// One automatic follow-up when the completion hit the token limit.
	// Never more than one, bounding latency and cost per stage.
	if finishReason == "length" && modelCfg.FollowUpTurns > 0 {
		c.logger.Warn("Completion truncated at token limit, issuing follow-up turn",
			"model", modelCfg.ModelName,
			"partial_length", len(text))

		messages = append(messages,
			Message{Role: "assistant", Content: text},
			Message{Role: "user", Content: followUpMessage},
		)

		more, _, err := c.complete(ctx, modelCfg, apiKey, messages)
		if err != nil {
			// The partial text is still the stage's output; the follow-up is
			// best effort.
			c.logger.Warn("Follow-up turn failed, keeping partial completion",
				"model", modelCfg.ModelName,
				"error", err)
			return text, nil
		}
		text = text + more
	}

	return text, nil
}

func (c *Client) complete(
	ctx context.Context,
	modelCfg config.ModelConfig,
	apiKey string,
	messages []Message,
) (string, string, error) {
	req := ChatCompletionRequest{
		Model:       modelCfg.ModelName,
		Messages:    messages,
		Temperature: modelCfg.Temperature,
		TopP:        modelCfg.TopP,
		MaxTokens:   modelCfg.MaxOutputTokens,
		N:           1,
	}
	if modelCfg.Seed >= 0 {
		seed := modelCfg.Seed
		req.Seed = &seed
	}

	timeout := DefaultHTTPTimeout
	if modelCfg.HTTPTimeoutSeconds > 0 {
		timeout = time.Duration(modelCfg.HTTPTimeoutSeconds) * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.doRequest(callCtx, modelCfg.BaseURL, apiKey, req)
	if err != nil {
		return "", "", err
	}
	c.logger.Debug("Completion received",
		"model", modelCfg.ModelName,
		"duration_ms", time.Since(start).Milliseconds(),
		"completion_tokens", resp.Usage.CompletionTokens)

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", "", ErrEmptyCompletion
	}

	return choice.Message.Content, choice.FinishReason, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	baseURL string,
	apiKey string,
	req ChatCompletionRequest,
) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := baseURL
	if endpoint[len(endpoint)-1] != '/' {
		endpoint += "/"
	}
	endpoint += "chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		c.logger.Debug("API request", "endpoint", endpoint, "has_key", true, "key_length", len(apiKey))
	} else {
		c.logger.Warn("API request without key", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{
			Message:    fmt.Sprintf("request failed: %v", err),
			StatusCode: 0,
		}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				Message:    errResp.Error.Message,
				StatusCode: httpResp.StatusCode,
				Type:       errResp.Error.Type,
				Code:       errResp.Error.Code,
			}
		}

		return nil, &APIError{
			Message:    fmt.Sprintf("API request failed with status %d: %s", httpResp.StatusCode, string(respBody)),
			StatusCode: httpResp.StatusCode,
		}
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	return &resp, nil
}

// APIError represents an error returned by the API or its transport.
// StatusCode 0 means the service was unreachable.
type APIError struct {
	Message    string
	StatusCode int
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}
