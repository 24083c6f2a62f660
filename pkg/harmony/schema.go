package harmony

import (
	"strings"

	"github.com/tidwall/gjson"
)

// schemaToTypeScript renders a JSON schema as the TypeScript-like type used
// in tool signatures. Object properties keep their document order.
func schemaToTypeScript(schema []byte) string {
	if !gjson.ValidBytes(schema) {
		return "any"
	}
	return typeScriptType(gjson.ParseBytes(schema), "")
}

func typeScriptType(schema gjson.Result, indent string) string {
	if oneOf := schema.Get("oneOf"); oneOf.IsArray() {
		return unionType(oneOf, indent)
	}
	if anyOf := schema.Get("anyOf"); anyOf.IsArray() {
		return unionType(anyOf, indent)
	}

	typ := schema.Get("type")
	if typ.IsArray() {
		var parts []string
		typ.ForEach(func(_, v gjson.Result) bool {
			parts = append(parts, primitiveName(v.String()))
			return true
		})
		return strings.Join(parts, " | ")
	}

	switch typ.String() {
	case "object":
		return objectType(schema, indent)
	case "string":
		if enum := schema.Get("enum"); enum.IsArray() {
			var vals []string
			enum.ForEach(func(_, v gjson.Result) bool {
				vals = append(vals, `"`+v.String()+`"`)
				return true
			})
			return strings.Join(vals, " | ")
		}
		return "string"
	case "number", "integer":
		return "number"
	case "boolean":
		return "boolean"
	case "null":
		return "null"
	case "array":
		items := schema.Get("items")
		if !items.Exists() {
			return "Array<any>"
		}
		return typeScriptType(items, indent) + "[]"
	default:
		return "any"
	}
}

func primitiveName(t string) string {
	if t == "integer" {
		return "number"
	}
	return t
}

func unionType(variants gjson.Result, indent string) string {
	var b strings.Builder
	first := true
	variants.ForEach(func(_, v gjson.Result) bool {
		if !first {
			b.WriteString("\n" + indent + " | ")
		}
		first = false
		b.WriteString(typeScriptType(v, indent+"    "))
		if desc := v.Get("description"); desc.Exists() {
			b.WriteString(" // " + desc.String())
		}
		return true
	})
	return b.String()
}

func objectType(schema gjson.Result, indent string) string {
	required := map[string]bool{}
	schema.Get("required").ForEach(func(_, v gjson.Result) bool {
		required[v.String()] = true
		return true
	})

	var b strings.Builder
	b.WriteString("{\n")
	schema.Get("properties").ForEach(func(key, prop gjson.Result) bool {
		if title := prop.Get("title"); title.Exists() {
			b.WriteString(indent + "// " + title.String() + "\n" + indent + "//\n")
		}
		if desc := prop.Get("description"); desc.Exists() && !prop.Get("oneOf").Exists() {
			for _, line := range strings.Split(desc.String(), "\n") {
				b.WriteString(indent + "// " + line + "\n")
			}
		}
		name := key.String()
		optional := "?"
		if required[name] {
			optional = ""
		}
		b.WriteString(indent + name + optional + ": " + typeScriptType(prop, indent+"    ") + ",")
		if def := prop.Get("default"); def.Exists() {
			val := def.Raw
			if def.Type == gjson.String {
				val = def.String()
			}
			b.WriteString(" // default: " + val)
		}
		b.WriteString("\n")
		return true
	})
	b.WriteString(indent + "}")
	return b.String()
}
