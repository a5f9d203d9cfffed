// Package anthropic provides a structured generation adapter using the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/llm/structured"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxTokens = 8192

	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic generator.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout bounds one request (default: 5m).
	Timeout time.Duration

	// HTTPClient replaces the default client. Used by tests.
	HTTPClient *http.Client
}

// Generator forces a single tool call whose input schema is the requested
// response schema, then validates the tool input.
type Generator struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	validator *structured.Validator
}

type messagesRequest struct {
	Model       string            `json:"model"`
	System      string            `json:"system,omitempty"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	Tools       []tool            `json:"tools"`
	ToolChoice  toolChoice        `json:"tool_choice"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewGenerator creates a new Anthropic generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Generator{
		client:    httpClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		validator: structured.NewValidator(),
	}, nil
}

// GenerateStructured sends one message and returns the validated tool input.
func (g *Generator) GenerateStructured(ctx context.Context, req driven.GenerateRequest) (json.RawMessage, error) {
	name := req.SchemaName
	if name == "" {
		name = "respond"
	}
	if !json.Valid(req.Schema) {
		return nil, fmt.Errorf("anthropic: decode schema %s: invalid JSON", name)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	body := messagesRequest{
		Model:       g.model,
		System:      req.SystemPrompt,
		Messages:    []messagesMessage{{Role: "user", Content: req.UserPrompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Tools: []tool{{
			Name:        name,
			Description: "Record the response. The input must match the schema exactly.",
			InputSchema: req.Schema,
		}},
		ToolChoice: toolChoice{Type: "tool", Name: name},
	}

	var resp messagesResponse
	if err := g.post(ctx, "/v1/messages", body, &resp); err != nil {
		return nil, err
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("anthropic: response truncated at %d tokens", maxTokens)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if block.Name == name && len(block.Input) > 0 {
				return g.validator.Decode(string(block.Input), req.SchemaName, req.Schema)
			}
		case "text":
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic: no response content returned")
	}
	return g.validator.Decode(text.String(), req.SchemaName, req.Schema)
}

func (g *Generator) post(ctx context.Context, path string, payload any, out *messagesResponse) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("anthropic: decode response: %w", err)
	}
	if out.Error != nil {
		return fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anthropic error (status %d)", resp.StatusCode)
	}
	return nil
}

func (g *Generator) authorize(req *http.Request) {
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the API key against the models endpoint without running
// inference.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: create ping request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
