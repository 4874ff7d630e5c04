// Package genapi talks to the generation provider's task submission API.
package genapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/planner"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("genapi: api key is required")

const (
	defaultBaseURL = "https://api.generation.example.com/v1"
	defaultTimeout = 30 * time.Second
)

// Options configures the provider client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client submits generation tasks, effect-template renders and sound
// requests to the provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// TaskResponse is the provider's acknowledgement of a submitted task.
type TaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// NewClient validates options and builds a client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{apiKey: opts.APIKey, baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// Submit posts a planner payload to the endpoint the plan targets and
// returns the provider's task acknowledgement.
func (c *Client) Submit(ctx context.Context, endpoint planner.Endpoint, payload map[string]any) (*TaskResponse, error) {
	path, err := endpointPath(endpoint)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genapi: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug().Str("endpoint", string(endpoint)).Msg("genapi: submitting task")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genapi: submit to %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("genapi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("genapi: %s returned %d: %s: %w", path, resp.StatusCode, truncate(raw, 256), domain.ErrProviderFailure)
	}

	var task TaskResponse
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("genapi: decode response: %w", err)
	}
	if task.TaskID == "" {
		return nil, fmt.Errorf("genapi: %s response missing task id", path)
	}
	return &task, nil
}

func endpointPath(endpoint planner.Endpoint) (string, error) {
	switch endpoint {
	case planner.EndpointTask:
		return "/tasks", nil
	case planner.EndpointEffect:
		return "/effects", nil
	case planner.EndpointSound:
		return "/sounds", nil
	default:
		return "", fmt.Errorf("genapi: unknown endpoint %q", endpoint)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
