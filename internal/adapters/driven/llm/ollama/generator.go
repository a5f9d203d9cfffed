// Package ollama provides a structured generation adapter using a local
// Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/llm/structured"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1"
	DefaultTimeout = 10 * time.Minute
)

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.1).
	Model string

	// Timeout is the request timeout (default: 10m).
	Timeout time.Duration
}

// Generator runs format-constrained chat requests against Ollama.
type Generator struct {
	client    *api.Client
	model     string
	validator *structured.Validator
}

// NewGenerator creates a new Ollama generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	return &Generator{
		client:    api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:     cfg.Model,
		validator: structured.NewValidator(),
	}, nil
}

// GenerateStructured runs one non-streaming chat with the schema as format.
func (g *Generator) GenerateStructured(ctx context.Context, req driven.GenerateRequest) (json.RawMessage, error) {
	stream := false
	chat := &api.ChatRequest{
		Model: g.model,
		Messages: []api.Message{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Format: req.Schema,
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		chat.Options["num_predict"] = req.MaxTokens
	}

	var (
		content strings.Builder
		reason  string
	)
	err := g.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			reason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: chat: %w", err)
	}
	if reason == "length" {
		return nil, fmt.Errorf("ollama: response truncated at %d tokens", req.MaxTokens)
	}

	return g.validator.Decode(content.String(), req.SchemaName, req.Schema)
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the server is reachable.
func (g *Generator) Ping(ctx context.Context) error {
	if err := g.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
