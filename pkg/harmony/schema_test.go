package harmony

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaToTypeScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{"string", `{"type":"string"}`, "string"},
		{"integer", `{"type":"integer"}`, "number"},
		{"enum", `{"type":"string","enum":["a","b"]}`, `"a" | "b"`},
		{"type list", `{"type":["number","string"]}`, "number | string"},
		{"array", `{"type":"array","items":{"type":"boolean"}}`, "boolean[]"},
		{"untyped array", `{"type":"array"}`, "Array<any>"},
		{"unknown", `{}`, "any"},
		{"invalid", `{`, "any"},
		{
			"object keeps property order",
			`{"type":"object","properties":{"z":{"type":"string"},"a":{"type":"number","default":3}},"required":["z"]}`,
			"{\nz: string,\na?: number, // default: 3\n}",
		},
		{
			"nested object",
			`{"type":"object","properties":{"opts":{"type":"object","properties":{"deep":{"type":"boolean"}}}}}`,
			"{\nopts?: {\n    deep?: boolean,\n    },\n}",
		},
		{
			"union",
			`{"type":"object","properties":{"v":{"oneOf":[{"type":"string","description":"text"},{"type":"null"}]}}}`,
			"{\nv?: string // text\n     | null,\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schemaToTypeScript([]byte(tt.schema)))
		})
	}
}
