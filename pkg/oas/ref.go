package oas

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ReferenceError reports a $ref that cannot be followed.
type ReferenceError struct {
	Pointer string
	Reason  string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("cannot resolve reference %q: %s", e.Pointer, e.Reason)
}

// HTTPStatus reports unresolvable references as server faults.
func (e *ReferenceError) HTTPStatus() int { return http.StatusInternalServerError }

// RefOf returns the $ref string of node when node is a reference object.
func RefOf(node any) (string, bool) {
	m, ok := node.(*Map)
	if !ok {
		return "", false
	}
	v, ok := m.Get("$ref")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Lookup follows a local JSON pointer such as "#/components/schemas/Pet".
// The target is returned as is, even when it is itself a reference.
func (d *Document) Lookup(ref string) (any, error) {
	if d == nil || d.Root == nil {
		return nil, &ReferenceError{Pointer: ref, Reason: "no document to resolve against"}
	}
	if !strings.HasPrefix(ref, "#") {
		return nil, &ReferenceError{Pointer: ref, Reason: "only local references are supported"}
	}

	pointer := strings.TrimPrefix(ref, "#")
	var cur any = d.Root
	if pointer == "" {
		return cur, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, &ReferenceError{Pointer: ref, Reason: "malformed pointer"}
	}

	for _, seg := range strings.Split(pointer[1:], "/") {
		seg = unescapeSegment(seg)
		switch node := cur.(type) {
		case *Map:
			next, ok := node.Get(seg)
			if !ok {
				return nil, &ReferenceError{Pointer: ref, Reason: fmt.Sprintf("segment %q not found", seg)}
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, &ReferenceError{Pointer: ref, Reason: fmt.Sprintf("index %q out of range", seg)}
			}
			cur = node[i]
		default:
			return nil, &ReferenceError{Pointer: ref, Reason: fmt.Sprintf("segment %q not found", seg)}
		}
	}
	if cur == nil {
		return nil, &ReferenceError{Pointer: ref, Reason: "target is null"}
	}
	return cur, nil
}

func unescapeSegment(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// ResolveRef follows node while it is a reference object and returns the
// first non-reference target. Other nodes are returned unchanged.
func (d *Document) ResolveRef(node any) (any, error) {
	ref, ok := RefOf(node)
	if !ok {
		return node, nil
	}

	first := ref
	seen := make(map[string]bool)
	for {
		if seen[ref] {
			return nil, &ReferenceError{Pointer: first, Reason: "cyclic reference"}
		}
		seen[ref] = true

		target, err := d.Lookup(ref)
		if err != nil {
			return nil, err
		}
		next, ok := RefOf(target)
		if !ok {
			return target, nil
		}
		ref = next
	}
}

// Dereference returns a copy of node with every reference replaced by its
// target. A reference that leads back into itself fails with a cyclic
// ReferenceError.
func (d *Document) Dereference(node any) (any, error) {
	return d.deref(node, make(map[string]bool))
}

func (d *Document) deref(node any, active map[string]bool) (any, error) {
	switch v := node.(type) {
	case *Map:
		if ref, ok := RefOf(v); ok {
			if active[ref] {
				return nil, &ReferenceError{Pointer: ref, Reason: "cyclic reference"}
			}
			target, err := d.Lookup(ref)
			if err != nil {
				return nil, err
			}
			active[ref] = true
			defer delete(active, ref)
			return d.deref(target, active)
		}
		out := NewMap()
		for _, k := range v.keys {
			child, err := d.deref(v.values[k], active)
			if err != nil {
				return nil, err
			}
			out.Set(k, child)
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			child, err := d.deref(item, active)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	}
	return node, nil
}

// StripXML returns a copy of a schema tree without "xml" annotations.
// Properties that happen to be named "xml" are kept.
func StripXML(node any) any {
	return stripXML(node, false)
}

func stripXML(node any, inProperties bool) any {
	switch v := node.(type) {
	case *Map:
		out := NewMap()
		for _, k := range v.keys {
			if !inProperties && k == "xml" {
				continue
			}
			named := !inProperties && (k == "properties" || k == "patternProperties")
			out.Set(k, stripXML(v.values[k], named))
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = stripXML(item, false)
		}
		return out
	}
	return node
}
