package oas

import "math"

// Type is the closed set of JSON Schema instance types.
type Type int

const (
	TypeUnknown Type = iota
	TypeObject
	TypeArray
	TypeString
	TypeInteger
	TypeNumber
	TypeBoolean
	TypeNull
)

var typeNames = map[string]Type{
	"object":  TypeObject,
	"array":   TypeArray,
	"string":  TypeString,
	"integer": TypeInteger,
	"number":  TypeNumber,
	"boolean": TypeBoolean,
	"null":    TypeNull,
}

// ParseType maps a type keyword to a Type. Unknown names give TypeUnknown.
func ParseType(s string) Type {
	return typeNames[s]
}

func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return "unknown"
}

// Schema is a read-only view over a schema object.
type Schema struct {
	m *Map
}

// SchemaOf wraps node when it is an object.
func SchemaOf(node any) (Schema, bool) {
	m, ok := node.(*Map)
	if !ok || m == nil {
		return Schema{}, false
	}
	return Schema{m: m}, true
}

// Map returns the underlying object.
func (s Schema) Map() *Map { return s.m }

// Get returns a raw keyword value.
func (s Schema) Get(key string) (any, bool) { return s.m.Get(key) }

// Ref returns the $ref pointer, if any.
func (s Schema) Ref() (string, bool) { return RefOf(s.m) }

// TypeUnion returns the "type" keyword. isList is true when it was written
// as an array, even a single-element one.
func (s Schema) TypeUnion() (names []string, isList bool) {
	v, ok := s.m.Get("type")
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case string:
		return []string{t}, false
	case []any:
		for _, item := range t {
			if name, ok := item.(string); ok {
				names = append(names, name)
			}
		}
		return names, true
	}
	return nil, false
}

// Type returns the single declared type. Schemas without a type that have
// properties are objects and those with items are arrays.
func (s Schema) Type() Type {
	names, isList := s.TypeUnion()
	if !isList && len(names) == 1 {
		return ParseType(names[0])
	}
	if len(names) == 0 {
		switch {
		case s.m.Has("properties"), s.m.Has("additionalProperties"):
			return TypeObject
		case s.m.Has("items"):
			return TypeArray
		}
	}
	return TypeUnknown
}

// List returns an array keyword such as "allOf" or "enum".
func (s Schema) List(key string) []any {
	v, _ := s.m.Get(key)
	list, _ := v.([]any)
	return list
}

// Properties returns the "properties" object.
func (s Schema) Properties() *Map {
	v, _ := s.m.Get("properties")
	m, _ := v.(*Map)
	return m
}

// Required returns the names listed in "required".
func (s Schema) Required() []string {
	var out []string
	for _, v := range s.List("required") {
		if name, ok := v.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

// Items returns the "items" schema.
func (s Schema) Items() (any, bool) {
	v, ok := s.m.Get("items")
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// AdditionalProperties returns "additionalProperties" when it is a schema
// object rather than a boolean.
func (s Schema) AdditionalProperties() (any, bool) {
	v, ok := s.m.Get("additionalProperties")
	if !ok {
		return nil, false
	}
	if _, isMap := v.(*Map); !isMap {
		return nil, false
	}
	return v, true
}

// Format returns the "format" keyword.
func (s Schema) Format() string {
	v, _ := s.m.Get("format")
	f, _ := v.(string)
	return f
}

// Number returns a numeric keyword.
func (s Schema) Number(key string) (float64, bool) {
	v, ok := s.m.Get(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Flag returns a boolean keyword; absent or non-boolean values are false.
func (s Schema) Flag(key string) bool {
	v, _ := s.m.Get(key)
	b, _ := v.(bool)
	return b
}

// Bounds returns the inclusive numeric range of a schema. Exclusive bounds
// shift the limit by unit, both in the OpenAPI 3.0 boolean form and the
// 3.1 numeric form.
func (s Schema) Bounds(unit float64) (lo, hi float64, hasLo, hasHi bool) {
	lo, hasLo = s.Number("minimum")
	switch v := mustGet(s.m, "exclusiveMinimum").(type) {
	case bool:
		if v && hasLo {
			lo += unit
		}
	default:
		if x, ok := ToFloat(v); ok {
			x += unit
			if !hasLo || x > lo {
				lo = x
			}
			hasLo = true
		}
	}

	hi, hasHi = s.Number("maximum")
	switch v := mustGet(s.m, "exclusiveMaximum").(type) {
	case bool:
		if v && hasHi {
			hi -= unit
		}
	default:
		if x, ok := ToFloat(v); ok {
			x -= unit
			if !hasHi || x < hi {
				hi = x
			}
			hasHi = true
		}
	}
	return lo, hi, hasLo, hasHi
}

func mustGet(m *Map, key string) any {
	v, _ := m.Get(key)
	return v
}

// XML holds the "xml" serialization annotation.
type XML struct {
	Name      string
	Prefix    string
	Namespace string
	Attribute bool
	Wrapped   bool
}

// XML returns the schema's "xml" annotation; missing fields are zero.
func (s Schema) XML() XML {
	v, _ := s.m.Get("xml")
	m, ok := v.(*Map)
	if !ok {
		return XML{}
	}
	str := func(key string) string {
		v, _ := m.Get(key)
		s, _ := v.(string)
		return s
	}
	flag := func(key string) bool {
		v, _ := m.Get(key)
		b, _ := v.(bool)
		return b
	}
	return XML{
		Name:      str("name"),
		Prefix:    str("prefix"),
		Namespace: str("namespace"),
		Attribute: flag("attribute"),
		Wrapped:   flag("wrapped"),
	}
}

// MergeAllOf shallow-merges the allOf branches of a schema. Later branches
// overwrite earlier keys.
func MergeAllOf(branches []any) *Map {
	out := NewMap()
	for _, b := range branches {
		m, ok := b.(*Map)
		if !ok {
			continue
		}
		for _, k := range m.keys {
			out.Set(k, m.values[k])
		}
	}
	return out
}

// ToFloat converts any decoded number to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	}
	return 0, false
}
