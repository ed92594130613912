package negotiate

import (
	"strconv"
	"strings"

	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
)

// DefaultKey is the catch-all response key.
const DefaultKey = "default"

// successStatuses are preferred, in order, when no status is requested.
var successStatuses = []string{"200", "201", "202", "203", "204", "205", "206"}

// defaultCandidates are tried in random order for a "default" response when
// the operation already declares a success status.
var defaultCandidates = []string{"400", "404", "401", "403", "500"}

// fallbackStatus is used when every default candidate is already declared.
const fallbackStatus = "420"

// ResponseChoice is a selected response.
type ResponseChoice struct {
	// Status is the concrete HTTP status to send.
	Status string
	// Key is the declared responses key, which may be "default" or a range
	// such as "4XX".
	Key      string
	Response *oas.Map
}

// StatusCode returns Status as an int.
func (c *ResponseChoice) StatusCode() int {
	n, err := strconv.Atoi(c.Status)
	if err != nil {
		return 200
	}
	return n
}

// SelectResponse chooses the response for op. A requested status must be
// declared, directly or through a range or a lone default, or the call fails
// with a NegotiationError. With fuzz set the status is random; otherwise the
// first declared success status wins.
func SelectResponse(rng *prng.Rand, op *Operation, requested string, fuzz bool) (*ResponseChoice, error) {
	responses := op.Responses()
	if responses.Len() == 0 {
		return nil, mockerr.NotFoundf("no responses found for operationId: %s", op.ID)
	}
	statuses := responses.Keys()

	switch {
	case requested != "":
		key, status := bestStatus(requested, responses)
		if key == "" {
			return nil, mockerr.Negotiationf("requested status '%s' not found, valid ones are: %s",
				requested, strings.Join(statuses, ","))
		}
		if key == DefaultKey && status == "" {
			return choose(op, responses, defaultStatus(rng, statuses), key)
		}
		return choose(op, responses, status, key)

	case fuzz:
		return randomResponse(rng, op, responses)
	}

	if status := successStatus(statuses); status != "" {
		return choose(op, responses, status, status)
	}
	return randomResponse(rng, op, responses)
}

// bestStatus maps a requested status to a declared key and a concrete status.
func bestStatus(requested string, responses *oas.Map) (key, status string) {
	if responses.Has(requested) {
		if requested == DefaultKey {
			return DefaultKey, ""
		}
		return requested, concreteStatus(requested)
	}
	if len(requested) == 3 {
		if r := requested[:1] + "XX"; responses.Has(r) {
			return r, requested
		}
		if r := requested[:1] + "xx"; responses.Has(r) {
			return r, requested
		}
	}
	if responses.Len() == 1 && responses.Has(DefaultKey) {
		if _, err := strconv.Atoi(requested); err == nil && len(requested) == 3 {
			return DefaultKey, requested
		}
		return DefaultKey, ""
	}
	return "", ""
}

func successStatus(statuses []string) string {
	for _, s := range successStatuses {
		for _, declared := range statuses {
			if declared == s {
				return s
			}
		}
	}
	return ""
}

func randomResponse(rng *prng.Rand, op *Operation, responses *oas.Map) (*ResponseChoice, error) {
	statuses := responses.Keys()
	if len(statuses) == 1 && statuses[0] == DefaultKey {
		return choose(op, responses, successStatuses[0], DefaultKey)
	}

	key := statuses[rng.Pick(len(statuses))]
	if key == DefaultKey {
		return choose(op, responses, defaultStatus(rng, statuses), key)
	}
	return choose(op, responses, concreteStatus(key), key)
}

// defaultStatus synthesizes a status for the "default" response: 200 when
// no success status is declared, otherwise a random undeclared error code.
func defaultStatus(rng *prng.Rand, statuses []string) string {
	if successStatus(statuses) == "" {
		return successStatuses[0]
	}

	declared := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		declared[s] = true
	}

	candidates := append([]string(nil), defaultCandidates...)
	for len(candidates) > 0 {
		i := rng.Pick(len(candidates))
		c := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)
		if !declared[c] {
			return c
		}
	}
	return fallbackStatus
}

// concreteStatus turns a range key such as "4XX" into "400".
func concreteStatus(key string) string {
	if len(key) == 3 && strings.EqualFold(key[1:], "XX") {
		return key[:1] + "00"
	}
	return key
}

func choose(op *Operation, responses *oas.Map, status, key string) (*ResponseChoice, error) {
	raw, _ := responses.Get(key)
	resolved, err := op.Doc.ResolveRef(raw)
	if err != nil {
		return nil, err
	}
	resp, _ := resolved.(*oas.Map)
	if resp == nil {
		resp = oas.NewMap()
	}
	return &ResponseChoice{Status: status, Key: key, Response: resp}, nil
}
