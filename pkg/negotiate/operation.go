package negotiate

import (
	"regexp"
	"strings"
	"sync"

	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Operation is one verb of a path item.
type Operation struct {
	Doc      *oas.Document
	Template string
	Method   string
	ID       string
	Node     *oas.Map
}

var (
	placeholder   = regexp.MustCompile(`\{[^}]+}`)
	templateCache sync.Map // template -> *regexp.Regexp
)

// templateRegexp converts a path template such as /pets/{id} into an
// anchored regular expression where each placeholder matches one segment.
func templateRegexp(template string) *regexp.Regexp {
	if re, ok := templateCache.Load(template); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholder.FindAllStringIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		b.WriteString("[^/]+")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")

	re := regexp.MustCompile(b.String())
	templateCache.Store(template, re)
	return re
}

// PathMatches reports whether path matches the template.
func PathMatches(path, template string) bool {
	return templateRegexp(template).MatchString(path)
}

// MatchTemplate returns the template in paths that matches path with the
// fewest placeholders. Ties keep document order.
func MatchTemplate(paths *oas.Map, path string) (string, bool) {
	best, bestCount := "", -1
	for _, template := range paths.Keys() {
		if !PathMatches(path, template) {
			continue
		}
		n := len(placeholder.FindAllStringIndex(template, -1))
		if bestCount < 0 || n < bestCount {
			best, bestCount = template, n
		}
	}
	return best, bestCount >= 0
}

// FindOperation returns the operation for method on the most concrete path
// template matching path.
func FindOperation(doc *oas.Document, method, path string) (*Operation, error) {
	verb := strings.ToLower(method)
	notFound := mockerr.NotFoundf("no operation found for verb: %s, path: %s", verb, path)

	paths := doc.Paths()
	template, ok := MatchTemplate(paths, path)
	if !ok {
		return nil, notFound
	}

	raw, _ := paths.Get(template)
	item, err := doc.ResolveRef(raw)
	if err != nil {
		return nil, err
	}
	itemMap, ok := item.(*oas.Map)
	if !ok {
		return nil, notFound
	}
	opNode, ok := itemMap.Get(verb)
	if !ok {
		return nil, notFound
	}
	node, ok := opNode.(*oas.Map)
	if !ok {
		return nil, notFound
	}

	op := &Operation{Doc: doc, Template: template, Method: verb, Node: node}
	if id, ok := node.Get("operationId"); ok {
		op.ID, _ = id.(string)
	}
	return op, nil
}

// Responses returns the operation's responses object.
func (op *Operation) Responses() *oas.Map {
	v, _ := op.Node.Get("responses")
	m, _ := v.(*oas.Map)
	return m
}
