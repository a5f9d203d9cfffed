package anthropic

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

const testSchema = `{"type":"object","required":["summary"],"additionalProperties":false,"properties":{"summary":{"type":"string"}}}`

func toolUse(input, stop string) string {
	body, _ := json.Marshal(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"stop_reason": stop,
		"content": []map[string]any{{
			"type":  "tool_use",
			"id":    "toolu_1",
			"name":  "chapter_structure",
			"input": json.RawMessage(input),
		}},
	})
	return string(body)
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGenerator(Config{APIKey: "sk-ant-test", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return g
}

func testRequest() driven.GenerateRequest {
	return driven.GenerateRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		SchemaName:   "chapter_structure",
		Schema:       json.RawMessage(testSchema),
		Temperature:  0.15,
		MaxTokens:    8000,
	}
}

func TestNewGenerator_Defaults(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.Error(t, err)

	g, err := NewGenerator(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultBaseURL, g.baseURL)
	assert.NoError(t, g.Close())
}

func TestGenerator_GenerateStructured(t *testing.T) {
	var sent map[string]any
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolUse(`{"summary":"ok"}`, "tool_use"))
	})

	raw, err := g.GenerateStructured(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok"}`, string(raw))

	assert.Equal(t, DefaultModel, sent["model"])
	assert.Equal(t, "system", sent["system"])
	assert.InDelta(t, 0.15, sent["temperature"], 1e-9)
	assert.EqualValues(t, 8000, sent["max_tokens"])

	choice := sent["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "chapter_structure", choice["name"])

	tools := sent["tools"].([]any)
	require.Len(t, tools, 1)
	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestGenerator_GenerateStructured_TextFallback(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w,
			`{"stop_reason":"end_turn","content":[{"type":"text","text":"`+"```json\\n{\\\"summary\\\":\\\"fenced\\\"}\\n```"+`"}]}`)
	})

	raw, err := g.GenerateStructured(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"fenced"}`, string(raw))
}

func TestGenerator_GenerateStructured_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		violation bool
	}{
		{name: "schema violation", status: http.StatusOK, body: toolUse(`{"other":1}`, "tool_use"), violation: true},
		{name: "truncated", status: http.StatusOK, body: toolUse(`{"summary":"x"}`, "max_tokens")},
		{name: "empty content", status: http.StatusOK, body: `{"stop_reason":"end_turn","content":[]}`},
		{
			name:   "api error",
			status: http.StatusUnauthorized,
			body:   `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
		},
		{name: "gateway error", status: http.StatusBadGateway, body: "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := g.GenerateStructured(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.violation, errors.Is(err, domain.ErrSchemaViolation))
		})
	}
}

func TestGenerator_GenerateStructured_InvalidSchema(t *testing.T) {
	g, err := NewGenerator(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	req := testRequest()
	req.Schema = json.RawMessage(`{not json`)
	_, err = g.GenerateStructured(context.Background(), req)
	assert.ErrorContains(t, err, "decode schema")
}

func TestGenerator_Ping(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "sk-ant-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "denied")
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	assert.NoError(t, g.Ping(context.Background()))

	g.apiKey = "wrong"
	assert.ErrorContains(t, g.Ping(context.Background()), "status 401")
}
