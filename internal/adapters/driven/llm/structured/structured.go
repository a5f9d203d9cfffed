// Package structured recovers and validates JSON objects returned by
// generation engines.
package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// Validator compiles request schemas once per schema name and checks
// responses against them.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Decode extracts a JSON object from content and validates it against schema.
// Failures wrap domain.ErrSchemaViolation.
func (v *Validator) Decode(content, name string, schema json.RawMessage) (json.RawMessage, error) {
	raw, err := Parse(content)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return raw, nil
	}

	compiled, err := v.schema(name, schema)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSchemaViolation, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSchemaViolation, name, err)
	}
	return raw, nil
}

func (v *Validator) schema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	key := name + "\x00" + string(schema)

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.compiled[key]; ok {
		return s, nil
	}

	url := name + ".json"
	if name == "" {
		url = "schema.json"
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.compiled[key] = s
	return s, nil
}

// Parse returns the JSON object in content. Markdown code fences and text
// around the object are tolerated.
func Parse(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrSchemaViolation)
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" {
		candidates = append(candidates, stripped)
	}
	if obj := extractObject(content); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(c), &parsed); err == nil {
			return json.RawMessage(c), nil
		}
	}
	return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrSchemaViolation)
}

func stripCodeFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
