// Package ollama provides a client for a locally hosted Ollama model server
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
)

const (
	DefaultHost    = "http://localhost:11434"
	DefaultModel   = "llama3.1"
	DefaultTimeout = 60 * time.Second
)

// Client implements the NarrativeClient interface against the Ollama
// generate endpoint.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHost sets the model server host URL
func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = strings.TrimSuffix(host, "/")
	}
}

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Ollama client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		host:  DefaultHost,
		model: DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the backend
func (c *Client) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// GenerateNarrative produces a completion for the prompt.
func (c *Client) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("model", c.model).Msg("Ollama generate request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return "", fmt.Errorf("ollama server error: %s", result.Error)
		}
		return "", fmt.Errorf("ollama server returned status %d", resp.StatusCode)
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return "", errors.New("ollama server returned empty completion")
	}

	return text, nil
}

// Ensure Client implements NarrativeClient
var _ interfaces.NarrativeClient = (*Client)(nil)
