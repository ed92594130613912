package sample

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/getmockd/oasmock/pkg/oas"
)

// JSON generates a sample value for schema. Objects are *oas.Map so
// property order survives encoding.
func JSON(doc *oas.Document, schema any, seed uint32) (any, error) {
	return newGenerator(doc, seed).jsonValue(schema, oas.TypeUnknown)
}

// JSONText generates a sample and encodes it as indented JSON.
func JSONText(doc *oas.Document, schema any, seed uint32) (string, error) {
	v, err := JSON(doc, schema, seed)
	if err != nil {
		return "", err
	}
	return PrettyJSON(v)
}

// ForMediaType generates a sample encoded for mediaType. JSON is used for
// media types that are neither XML nor YAML.
func ForMediaType(mediaType string, doc *oas.Document, schema any, seed uint32) (string, error) {
	mt := strings.ToLower(mediaType)
	switch {
	case strings.Contains(mt, "json"):
		return JSONText(doc, schema, seed)
	case strings.Contains(mt, "yaml"):
		return YAML(doc, schema, seed)
	case strings.Contains(mt, "xml"):
		return XML(doc, schema, seed)
	}
	return JSONText(doc, schema, seed)
}

// PrettyJSON encodes v with two-space indentation and without HTML escaping.
func PrettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (g *generator) jsonValue(node any, forced oas.Type) (any, error) {
	st, err := g.resolve(node, forced)
	if err != nil {
		return nil, err
	}
	if st.descend {
		defer g.leave(st.refs)
		return g.jsonValue(st.next, st.forced)
	}

	s := st.schema
	switch st.typ {
	case oas.TypeObject:
		out := oas.NewMap()
		for _, p := range g.properties(s) {
			v, err := g.jsonValue(p.schema, oas.TypeUnknown)
			if p.optional && isCycle(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out.Set(p.name, v)
		}
		return out, nil

	case oas.TypeArray:
		items, ok := s.Items()
		if !ok {
			return []any{}, nil
		}
		n := g.arrayLength(s)
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := g.jsonValue(items, oas.TypeUnknown)
			if i >= minItemsOf(s) && isCycle(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	if v, ok := g.scalar(s, st.typ); ok {
		return v, nil
	}
	return oas.NewMap(), nil
}
