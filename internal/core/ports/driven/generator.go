package driven

import (
	"context"
	"encoding/json"
)

// Generator is the structured generation engine.
// Given prompts and a JSON schema it returns one JSON object. Responses may
// still violate the schema, time out or fail; callers validate and never
// retry automatically.
//
// Implementations may include:
//   - OpenAI (structured outputs)
//   - Ollama (format-constrained chat)
type Generator interface {
	// GenerateStructured runs one generation call and returns the raw JSON object.
	GenerateStructured(ctx context.Context, req GenerateRequest) (json.RawMessage, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateRequest is one structured generation call.
type GenerateRequest struct {
	// SystemPrompt sets the engine's role and rules.
	SystemPrompt string

	// UserPrompt carries the task and the text.
	UserPrompt string

	// SchemaName labels the schema for providers that require a name.
	SchemaName string

	// Schema is the JSON Schema the response must satisfy.
	Schema json.RawMessage

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
}
