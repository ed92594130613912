package negotiate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
)

// DefaultMediaType is preferred when the caller expresses no preference.
const DefaultMediaType = "application/json"

// ContentChoice is a selected media type of a response.
type ContentChoice struct {
	MediaType string
	Content   *oas.Map
	// Warning explains a fallback away from what the caller asked for.
	Warning string
}

// SelectContent chooses the media type of response. It returns nil when the
// response declares no content.
//
// An Accept header that matches nothing fails when a status was requested
// too; otherwise application/json, or a random media type, is used with a
// warning.
func SelectContent(rng *prng.Rand, response *oas.Map, requestedStatus, accept string, fuzz bool) (*ContentChoice, error) {
	v, _ := response.Get("content")
	content, _ := v.(*oas.Map)
	if content.Len() == 0 {
		return nil, nil
	}
	supported := content.Keys()

	pick := func(mediaType, warning string) *ContentChoice {
		c, _ := content.Get(mediaType)
		m, _ := c.(*oas.Map)
		if m == nil {
			m = oas.NewMap()
		}
		return &ContentChoice{MediaType: mediaType, Content: m, Warning: warning}
	}
	random := func() string {
		return supported[rng.Pick(len(supported))]
	}

	switch {
	case strings.TrimSpace(accept) != "":
		if mt := BestMediaType(accept, supported); mt != "" {
			return pick(mt, ""), nil
		}
		if requestedStatus != "" {
			return nil, mockerr.Negotiationf("requested media type '%s' not supported, valid ones are: %s",
				accept, strings.Join(supported, ","))
		}
		if content.Has(DefaultMediaType) {
			return pick(DefaultMediaType, "requested media type '"+accept+"' not supported, default one chosen"), nil
		}
		return pick(random(), "requested media type '"+accept+"' not supported, random one chosen"), nil

	case fuzz:
		return pick(random(), ""), nil

	case content.Has(DefaultMediaType):
		return pick(DefaultMediaType, ""), nil
	}
	return pick(random(), ""), nil
}

// AcceptEntry is one media range of an Accept header.
type AcceptEntry struct {
	MediaType string
	Q         float64
}

// ParseAccept splits an Accept header into media ranges ordered by
// descending quality. Entries with equal quality keep header order, and a
// missing or malformed q counts as 1.
func ParseAccept(accept string) []AcceptEntry {
	var entries []AcceptEntry
	for _, part := range strings.Split(accept, ",") {
		params := strings.Split(part, ";")
		mt := strings.TrimSpace(params[0])
		if mt == "" {
			continue
		}

		entry := AcceptEntry{MediaType: mt, Q: 1}
		for _, p := range params[1:] {
			name, value, ok := strings.Cut(p, "=")
			if !ok || strings.TrimSpace(name) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				entry.Q = q
			}
			break
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Q > entries[j].Q
	})
	return entries
}

// BestMediaType returns the first supported media type matched by the
// highest ranked Accept entry, or "" when none matches.
func BestMediaType(accept string, supported []string) string {
	for _, entry := range ParseAccept(accept) {
		for _, mt := range supported {
			if MediaTypesMatch(entry.MediaType, mt) {
				return mt
			}
		}
	}
	return ""
}

// MediaTypesMatch compares two media types, honouring "*" wildcards in the
// type or subtype. Parameters are ignored unless both strings are equal.
func MediaTypesMatch(a, b string) bool {
	if a == b {
		return true
	}

	aType, aSub := splitMediaType(a)
	bType, bSub := splitMediaType(b)

	if aType != "*" && bType != "*" && aType != bType {
		return false
	}
	return aSub == "*" || bSub == "*" || (aSub != "" && aSub == bSub)
}

func splitMediaType(mt string) (typ, sub string) {
	mt, _, _ = strings.Cut(mt, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	typ, sub, _ = strings.Cut(mt, "/")
	if typ == "*" && sub == "" {
		sub = "*"
	}
	return typ, sub
}
