package sample

import (
	"errors"
	"math"
	"slices"

	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
)

// generator holds the state of one sampling call.
type generator struct {
	doc *oas.Document
	rng *prng.Rand
	// active lists the $ref pointers being expanded on the current path.
	active []string
}

func newGenerator(doc *oas.Document, seed uint32) *generator {
	return &generator{doc: doc, rng: prng.New(seed)}
}

// step is the outcome of the composition keywords for one schema node.
// When descend is set the caller recurses on next; otherwise schema and typ
// describe a concrete node.
type step struct {
	descend bool
	next    any
	forced  oas.Type
	refs    int

	schema oas.Schema
	typ    oas.Type
}

// resolve applies anyOf, oneOf, allOf, type unions and $ref in that order.
// Pointers entered here stay active until the caller invokes leave(refs).
func (g *generator) resolve(node any, forced oas.Type) (step, error) {
	s, ok := oas.SchemaOf(node)
	if !ok {
		return step{typ: oas.TypeUnknown}, nil
	}

	if branches := s.List("anyOf"); len(branches) > 0 {
		return step{descend: true, next: branches[g.rng.Pick(len(branches))]}, nil
	}
	if branches := s.List("oneOf"); len(branches) > 0 {
		return step{descend: true, next: branches[g.rng.Pick(len(branches))]}, nil
	}
	if branches := s.List("allOf"); len(branches) > 0 {
		return g.mergeAllOf(s, branches)
	}

	if forced == oas.TypeUnknown {
		if names, isList := s.TypeUnion(); isList && len(names) > 0 {
			t := oas.ParseType(names[g.rng.Pick(len(names))])
			if t == oas.TypeUnknown {
				return step{schema: s, typ: t}, nil
			}
			return step{descend: true, next: node, forced: t}, nil
		}
	}

	if ref, ok := s.Ref(); ok {
		if err := g.enter(ref); err != nil {
			return step{}, err
		}
		target, err := g.doc.ResolveRef(node)
		if err != nil {
			g.leave(1)
			return step{}, err
		}
		return step{descend: true, next: target, refs: 1}, nil
	}

	typ := forced
	if typ == oas.TypeUnknown {
		typ = s.Type()
	}
	return step{schema: s, typ: typ}, nil
}

// mergeAllOf combines the sibling keywords of s with every allOf branch.
// Referenced branches are resolved first so their keywords take part.
func (g *generator) mergeAllOf(s oas.Schema, branches []any) (step, error) {
	base := oas.NewMap()
	m := s.Map()
	for _, k := range m.Keys() {
		if k != "allOf" {
			v, _ := m.Get(k)
			base.Set(k, v)
		}
	}

	parts := []any{base}
	refs := 0
	for _, b := range branches {
		if ref, ok := oas.RefOf(b); ok {
			if err := g.enter(ref); err != nil {
				g.leave(refs)
				return step{}, err
			}
			refs++
			target, err := g.doc.ResolveRef(b)
			if err != nil {
				g.leave(refs)
				return step{}, err
			}
			b = target
		}
		parts = append(parts, b)
	}

	return step{descend: true, next: oas.MergeAllOf(parts), refs: refs}, nil
}

const reasonCyclic = "cyclic reference"

func (g *generator) enter(ref string) error {
	if slices.Contains(g.active, ref) {
		return &oas.ReferenceError{Pointer: ref, Reason: reasonCyclic}
	}
	g.active = append(g.active, ref)
	return nil
}

func (g *generator) leave(n int) {
	g.active = g.active[:len(g.active)-n]
}

// isCycle reports whether err is a reference that came back to itself.
// Optional properties and array items past minItems drop such a branch
// instead of failing the whole sample.
func isCycle(err error) bool {
	var refErr *oas.ReferenceError
	return errors.As(err, &refErr) && refErr.Reason == reasonCyclic
}

type property struct {
	name     string
	schema   any
	optional bool
}

// properties picks the properties of one generated object: every required
// property, a random subset of the optional ones and, when nothing was
// picked, a few synthetic names typed by additionalProperties.
func (g *generator) properties(s oas.Schema) []property {
	props := s.Properties()
	required := s.Required()

	var picked []property
	var optional []string
	for _, name := range props.Keys() {
		v, _ := props.Get(name)
		if slices.Contains(required, name) {
			picked = append(picked, property{name: name, schema: v})
		} else {
			optional = append(optional, name)
		}
	}

	need := int64(0)
	switch {
	case len(picked) == 0 && len(optional) > 0:
		need = g.rng.Int(1, int64(len(optional)))
	case len(picked) > 0 && len(optional) > 0:
		need = g.rng.Int(0, int64(len(optional)))
	}
	for ; need > 0; need-- {
		i := g.rng.Pick(len(optional))
		name := optional[i]
		optional = slices.Delete(optional, i, i+1)
		v, _ := props.Get(name)
		picked = append(picked, property{name: name, schema: v, optional: true})
	}

	extra, hasExtra := s.AdditionalProperties()

	// required names without a declared property still have to be present
	for _, name := range required {
		if props.Has(name) {
			continue
		}
		picked = append(picked, property{name: name, schema: extra})
	}

	if len(picked) == 0 && hasExtra {
		n := g.rng.Int(1, 10)
		for i := int64(0); i < n; i++ {
			picked = append(picked, property{name: g.rng.String(1, 10), schema: extra, optional: true})
		}
	}
	return picked
}

func minItemsOf(s oas.Schema) int {
	if v, ok := s.Number("minItems"); ok && v > 0 {
		return int(v)
	}
	return 0
}

// arrayLength draws the number of items for an array schema.
func (g *generator) arrayLength(s oas.Schema) int {
	minItems := int64(minItemsOf(s))
	var maxItems int64
	if v, ok := s.Number("maxItems"); ok {
		maxItems = int64(v)
	} else {
		maxItems = g.rng.Int(minItems+1, minItems+5)
	}
	return int(g.rng.Int(minItems, maxItems))
}

// scalar generates a value for a non-container schema. ok is false when the
// schema describes no scalar at all.
func (g *generator) scalar(s oas.Schema, typ oas.Type) (v any, ok bool) {
	if typ == oas.TypeNull {
		return nil, true
	}
	if c, has := s.Get("const"); has {
		return c, true
	}
	if enum := s.List("enum"); len(enum) > 0 {
		return enum[g.rng.Pick(len(enum))], true
	}

	switch typ {
	case oas.TypeBoolean:
		return g.rng.Bool(), true
	case oas.TypeString:
		return g.str(s), true
	case oas.TypeInteger:
		return g.integer(s), true
	case oas.TypeNumber:
		return g.number(s), true
	}
	return nil, false
}

func (g *generator) str(s oas.Schema) string {
	if gen, ok := formats[s.Format()]; ok {
		return gen(g.rng)
	}

	minLen, hasMin := s.Number("minLength")
	maxLen, hasMax := s.Number("maxLength")
	if !hasMin && !hasMax {
		return g.rng.String(5, 12)
	}

	lo := 0
	if hasMin && minLen > 0 {
		lo = int(minLen)
	}
	hi := lo + 1
	if hasMax {
		hi = int(maxLen)
	}
	return g.rng.String(lo, hi)
}

// numericRange applies the default 0..65536 range to missing bounds.
func numericRange(s oas.Schema) (lo, hi float64) {
	lo, hi, hasLo, hasHi := s.Bounds(1)
	switch {
	case !hasLo && !hasHi:
		return 0, 65536
	case !hasHi:
		return lo, lo + 65536
	case !hasLo:
		if hi >= 0 {
			return 0, hi
		}
		return hi - 65536, hi
	}
	return lo, hi
}

func (g *generator) integer(s oas.Schema) any {
	lo, hi := numericRange(s)
	if m, ok := s.Number("multipleOf"); ok && m > 0 {
		v, ok := g.rng.IntMultiple(lo, hi, m)
		if !ok {
			return nil
		}
		return v
	}
	if math.Ceil(lo) > math.Floor(hi) {
		return nil
	}
	return g.rng.IntF(lo, hi)
}

func (g *generator) number(s oas.Schema) any {
	lo, hi := numericRange(s)
	if m, ok := s.Number("multipleOf"); ok && m > 0 {
		v, ok := g.rng.FloatMultiple(lo, hi, m)
		if !ok {
			return nil
		}
		return v
	}

	if g.rng.Bool() && math.Ceil(lo) <= math.Floor(hi) {
		return g.rng.IntF(lo, hi)
	}
	if hi <= lo {
		return lo
	}
	return g.rng.Float(lo, hi)
}
