package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

const testSchema = `{
  "type": "object",
  "required": ["items"],
  "additionalProperties": false,
  "properties": {
    "items": {"type": "array", "items": {"type": "string", "enum": ["remember", "apply"]}}
  }
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "plain", content: `{"items": []}`, want: `{"items": []}`},
		{name: "fenced", content: "```json\n{\"items\": []}\n```", want: `{"items": []}`},
		{name: "surrounding text", content: "Here you go: {\"items\": []} hope it helps", want: `{"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Parse(tt.content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, content := range []string{"", "   ", "no json here", `["an", "array"]`, `{"broken": `} {
		_, err := Parse(content)
		assert.ErrorIs(t, err, domain.ErrSchemaViolation, "content %q", content)
	}
}

func TestValidator_Decode(t *testing.T) {
	v := NewValidator()
	schema := json.RawMessage(testSchema)

	raw, err := v.Decode("```\n{\"items\": [\"apply\"]}\n```", "levels", schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": ["apply"]}`, string(raw))

	_, err = v.Decode(`{"items": ["create"]}`, "levels", schema)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)

	_, err = v.Decode(`{"items": [], "extra": 1}`, "levels", schema)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)

	assert.Len(t, v.compiled, 1)
}

func TestValidator_DecodeWithoutSchema(t *testing.T) {
	raw, err := NewValidator().Decode(`{"anything": true}`, "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"anything": true}`, string(raw))
}
