package oas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when the input holds no YAML or JSON content.
var ErrEmptyDocument = errors.New("empty document")

// ErrNotOpenAPI is returned when the root object has neither an "openapi"
// nor a "swagger" version field.
var ErrNotOpenAPI = errors.New("document is not an OpenAPI description")

// Document is a parsed OpenAPI description.
type Document struct {
	// Name identifies the source, usually the file path.
	Name string
	// Root is the document root object.
	Root *Map
	// Converted is true when the source was Swagger 2.0 and has been
	// converted to OpenAPI 3.
	Converted bool
}

// Load reads and parses the description at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Name = path
	return doc, nil
}

// Parse decodes a YAML or JSON OpenAPI description.
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if node.Kind == 0 {
		return nil, ErrEmptyDocument
	}

	tree, err := fromNode(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	root, ok := tree.(*Map)
	if !ok {
		return nil, fmt.Errorf("failed to parse document: root must be an object")
	}

	if v, ok := root.Get("swagger"); ok && !root.Has("openapi") {
		if s := fmt.Sprint(v); !strings.HasPrefix(s, "2") {
			return nil, fmt.Errorf("unsupported swagger version %q", s)
		}
		converted, err := convertSwagger2(root)
		if err != nil {
			return nil, err
		}
		return &Document{Root: converted, Converted: true}, nil
	}
	if !root.Has("openapi") {
		return nil, ErrNotOpenAPI
	}

	return &Document{Root: root}, nil
}

// Version returns the value of the "openapi" field.
func (d *Document) Version() string {
	v, _ := d.Root.Get("openapi")
	s, _ := v.(string)
	return s
}

// Is31 reports whether the document declares OpenAPI 3.1.
func (d *Document) Is31() bool {
	return strings.HasPrefix(d.Version(), "3.1")
}

// Paths returns the "paths" object, or nil when absent.
func (d *Document) Paths() *Map {
	v, _ := d.Root.Get("paths")
	m, _ := v.(*Map)
	return m
}

// Title returns info.title, falling back to the document name.
func (d *Document) Title() string {
	if info, ok := d.Root.Get("info"); ok {
		if m, ok := info.(*Map); ok {
			if t, ok := m.Get("title"); ok {
				if s, ok := t.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return d.Name
}

// Validate checks the document against the OpenAPI 3 structural rules.
func (d *Document) Validate(ctx context.Context) error {
	data, err := json.Marshal(d.Root)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = ctx

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

func convertSwagger2(root *Map) (*Map, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode swagger document: %w", err)
	}

	var v2 openapi2.T
	if err := json.Unmarshal(data, &v2); err != nil {
		return nil, fmt.Errorf("failed to parse swagger document: %w", err)
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert swagger document: %w", err)
	}

	out, err := json.Marshal(v3)
	if err != nil {
		return nil, fmt.Errorf("failed to encode converted document: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(out, &node); err != nil {
		return nil, fmt.Errorf("failed to parse converted document: %w", err)
	}
	tree, err := fromNode(&node)
	if err != nil {
		return nil, err
	}
	m, ok := tree.(*Map)
	if !ok {
		return nil, fmt.Errorf("converted document root is not an object")
	}
	return m, nil
}

// fromNode converts a yaml.v3 node into the tree representation.
func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.MappingNode:
		m := NewMap()
		explicit := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Tag != "!!merge" {
				explicit[n.Content[i].Value] = true
			}
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Tag == "!!merge" {
				if err := merge(m, val, explicit); err != nil {
					return nil, err
				}
				continue
			}
			v, err := fromNode(val)
			if err != nil {
				return nil, err
			}
			m.Set(key.Value, v)
		}
		return m, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str", "!!timestamp", "!!binary":
			return n.Value, nil
		case "!!null":
			return nil, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}

	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

// merge applies a YAML merge key. Keys written explicitly in the mapping win.
func merge(m *Map, val *yaml.Node, explicit map[string]bool) error {
	sources := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		sources = val.Content
	}
	for _, src := range sources {
		v, err := fromNode(src)
		if err != nil {
			return err
		}
		sm, ok := v.(*Map)
		if !ok {
			return fmt.Errorf("line %d: merge value is not a mapping", src.Line)
		}
		for _, k := range sm.Keys() {
			if explicit[k] || m.Has(k) {
				continue
			}
			sv, _ := sm.Get(k)
			m.Set(k, sv)
		}
	}
	return nil
}
