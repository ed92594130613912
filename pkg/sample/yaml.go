package sample

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/getmockd/oasmock/pkg/oas"
)

// YAML generates a JSON sample and renders it as block-style YAML.
func YAML(doc *oas.Document, schema any, seed uint32) (string, error) {
	v, err := JSON(doc, schema, seed)
	if err != nil {
		return "", err
	}
	return ToYAML(v), nil
}

// ToYAML renders a value with a minimal block emitter. Strings are written
// raw, numbers and booleans as JSON, and empty collections as "[]".
func ToYAML(v any) string {
	var b strings.Builder
	writeYAML(&b, v, 0)
	return b.String()
}

func writeYAML(b *strings.Builder, v any, level int) {
	indent := strings.Repeat(" ", level)

	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(t)
	case []any:
		if len(t) == 0 {
			b.WriteString("[]")
			return
		}
		for i, item := range t {
			if level > 0 || i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(indent + "- ")
			writeYAML(b, item, level+1)
		}
	case *oas.Map:
		if t.Len() == 0 {
			b.WriteString("[]")
			return
		}
		for i, k := range t.Keys() {
			if level > 0 || i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(indent + k + ": ")
			item, _ := t.Get(k)
			writeYAML(b, item, level+1)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := oas.NewMap()
		for _, k := range keys {
			m.Set(k, t[k])
		}
		writeYAML(b, m, level)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return
		}
		b.Write(data)
	}
}
