package sample

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/getmockd/oasmock/pkg/oas"
)

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// XML generates a sample document for schema. The root element is named by
// the schema's xml.name or "root", and a root array is always wrapped.
// Schemas that yield no element produce an empty string.
func XML(doc *oas.Document, schema any, seed uint32) (string, error) {
	nodes, err := newGenerator(doc, seed).xmlNodes(schema, oas.TypeUnknown, "root", true)
	if err != nil {
		return "", err
	}
	if len(nodes) != 1 || nodes[0].Attribute {
		return "", nil
	}
	return nodes[0].String(), nil
}

// Node is an element or attribute of a generated XML document.
type Node struct {
	Name      string
	Prefix    string
	Namespace string
	// Attribute marks nodes rendered as attributes of their parent.
	Attribute  bool
	Attributes []*Node
	Children   []*Node
	// Value is the text content; nil renders nothing and "" self-closes.
	Value any
}

func newNode(name string, s oas.Schema) *Node {
	x := s.XML()
	n := &Node{Name: name, Prefix: x.Prefix, Namespace: x.Namespace, Attribute: x.Attribute}
	if x.Name != "" {
		n.Name = x.Name
	}
	return n
}

// Push appends children, routing attribute nodes to Attributes.
func (n *Node) Push(nodes ...*Node) {
	for _, c := range nodes {
		if c.Attribute {
			n.Attributes = append(n.Attributes, c)
		} else {
			n.Children = append(n.Children, c)
		}
	}
}

// String serializes the node with one space of indentation per level.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *Node) qualifiedName() string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Name
	}
	return n.Name
}

func (n *Node) write(b *strings.Builder, level int) {
	indent := strings.Repeat(" ", level)
	name := n.qualifiedName()

	b.WriteString(indent + "<" + name)
	if n.Namespace != "" {
		if n.Prefix != "" {
			b.WriteString(" xmlns:" + n.Prefix)
		} else {
			b.WriteString(" xmlns")
		}
		b.WriteString(`="` + escapeXML(n.Namespace) + `"`)
	}
	for _, a := range n.Attributes {
		b.WriteString(" " + a.qualifiedName() + `="` + escapeXML(text(a.Value)) + `"`)
	}

	if len(n.Children) == 0 {
		if s, ok := n.Value.(string); ok && s == "" {
			b.WriteString("/>")
			return
		}
		b.WriteString(">" + escapeXML(text(n.Value)) + "</" + name + ">")
		return
	}

	b.WriteString(">")
	for _, c := range n.Children {
		b.WriteByte('\n')
		c.write(b, level+1)
	}
	b.WriteString("\n" + indent + "</" + name + ">")
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// text renders a scalar as element or attribute text.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func (g *generator) xmlNodes(node any, forced oas.Type, name string, wrap bool) ([]*Node, error) {
	st, err := g.resolve(node, forced)
	if err != nil {
		return nil, err
	}
	if st.descend {
		defer g.leave(st.refs)
		return g.xmlNodes(st.next, st.forced, name, wrap)
	}
	if _, ok := oas.SchemaOf(node); !ok {
		return nil, nil
	}

	s := st.schema
	switch st.typ {
	case oas.TypeObject:
		n := newNode(name, s)
		for _, p := range g.properties(s) {
			children, err := g.xmlNodes(p.schema, oas.TypeUnknown, p.name, false)
			if p.optional && isCycle(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			n.Push(children...)
		}
		return []*Node{n}, nil

	case oas.TypeArray:
		x := s.XML()
		childName := name
		if x.Name != "" {
			childName = x.Name
		}

		var wrapper *Node
		if wrap || x.Wrapped {
			wrapper = newNode(name, s)
		}
		items, ok := s.Items()
		if !ok {
			if wrapper != nil {
				return []*Node{wrapper}, nil
			}
			return nil, nil
		}

		var out []*Node
		n := g.arrayLength(s)
		for i := 0; i < n; i++ {
			children, err := g.xmlNodes(items, oas.TypeUnknown, childName, false)
			if i >= minItemsOf(s) && isCycle(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			if wrapper != nil {
				wrapper.Push(children...)
			} else {
				out = append(out, children...)
			}
		}
		if wrapper != nil {
			return []*Node{wrapper}, nil
		}
		return out, nil

	case oas.TypeNull:
		n := newNode(name, s)
		n.Attributes = append(n.Attributes,
			&Node{Name: "xsi", Prefix: "xmlns", Attribute: true, Value: xsiNamespace},
			&Node{Name: "nil", Prefix: "xsi", Attribute: true, Value: "true"},
		)
		return []*Node{n}, nil
	}

	v, ok := g.scalar(s, st.typ)
	if !ok {
		return nil, nil
	}
	n := newNode(name, s)
	n.Value = v
	return []*Node{n}, nil
}
