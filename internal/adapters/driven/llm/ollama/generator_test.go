package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

const testSchema = `{"type":"object","required":["summary"],"properties":{"summary":{"type":"string"}}}`

func chatReply(content, reason string) string {
	body, _ := json.Marshal(map[string]any{
		"model":       "llama3.1",
		"created_at":  "2026-01-01T00:00:00Z",
		"message":     map[string]any{"role": "assistant", "content": content},
		"done":        true,
		"done_reason": reason,
	})
	return string(body) + "\n"
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGenerator(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return g
}

func testRequest() driven.GenerateRequest {
	return driven.GenerateRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		SchemaName:   "section_propositions",
		Schema:       json.RawMessage(testSchema),
		Temperature:  0.2,
		MaxTokens:    8000,
	}
}

func TestNewGenerator_Defaults(t *testing.T) {
	g, err := NewGenerator(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.NoError(t, g.Close())

	_, err = NewGenerator(Config{BaseURL: "http://bad host:11434"})
	assert.Error(t, err)
}

func TestGenerator_GenerateStructured(t *testing.T) {
	var sent map[string]any
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatReply(`{"summary":"ok"}`, "stop"))
	})

	raw, err := g.GenerateStructured(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok"}`, string(raw))

	assert.Equal(t, "llama3.1", sent["model"])
	assert.Equal(t, false, sent["stream"])
	assert.Equal(t, "object", sent["format"].(map[string]any)["type"])
	options := sent["options"].(map[string]any)
	assert.InDelta(t, 0.2, options["temperature"], 1e-9)
	assert.EqualValues(t, 8000, options["num_predict"])
}

func TestGenerator_GenerateStructured_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		violation bool
	}{
		{name: "schema violation", status: http.StatusOK, body: chatReply(`{"other":1}`, "stop"), violation: true},
		{name: "truncated", status: http.StatusOK, body: chatReply(`{"summary":`, "length")},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model not loaded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := g.GenerateStructured(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.violation, errors.Is(err, domain.ErrSchemaViolation))
		})
	}
}

func TestGenerator_Ping(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, g.Ping(context.Background()))
}
