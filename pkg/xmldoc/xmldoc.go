// Package xmldoc is a small, namespace-agnostic XML reader with path queries.
//
// Documents are parsed into an in-memory tree of [Node] values. Namespace
// prefixes are dropped from every element and attribute name, so a Maven POM
// declared with xmlns="http://maven.apache.org/POM/4.0.0" is queried with
// plain names:
//
//	doc, _ := xmldoc.ParseFile("scijava-common-2.90.0.pom")
//	version, ok, _ := doc.Value("parent/version")
//
// Paths are slash-separated element names evaluated relative to the root
// element. "*" matches any child and "." the current node. Element text is
// whitespace-trimmed.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrAmbiguous is returned by Value when a path matches more than one element.
var ErrAmbiguous = errors.New("path matches more than one element")

// Node is a parsed XML element.
type Node struct {
	Name  string            // local name, namespace stripped
	Attrs map[string]string // attribute local names to values

	// Text is all character data directly inside the element, trimmed.
	// Text between or after child elements is included, so for mixed
	// content it is not just the text before the first child.
	Text string

	Children []*Node
}

// Document is a parsed XML document.
type Document struct {
	Root *Node
}

// Parse reads an XML document from r.
// Non-UTF-8 encodings declared in the XML prolog (ISO-8859-1 is common in
// older POMs) are converted transparently.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*Node
		texts []*strings.Builder
		root  *Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				if n.Attrs == nil {
					n.Attrs = make(map[string]string)
				}
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("parse xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.Text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		}
	}

	if root == nil {
		return nil, errors.New("parse xml: no root element")
	}
	return &Document{Root: root}, nil
}

// ParseString parses an XML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the XML document stored at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Elements returns the elements matching path relative to the root, in
// document order.
func (d *Document) Elements(path string) []*Node {
	return d.Root.Elements(path)
}

// Value returns the text of the single element matching path.
// ok is false when nothing matches; ErrAmbiguous is returned when several do.
func (d *Document) Value(path string) (string, bool, error) {
	return d.Root.Value(path)
}

// Elements returns the descendants of n matching path, in document order.
func (n *Node) Elements(path string) []*Node {
	current := []*Node{n}
	for _, step := range strings.Split(path, "/") {
		if step == "" || step == "." {
			continue
		}
		var next []*Node
		for _, c := range current {
			for _, child := range c.Children {
				if step == "*" || child.Name == step {
					next = append(next, child)
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// Value returns the text of the single descendant matching path.
func (n *Node) Value(path string) (string, bool, error) {
	matches := n.Elements(path)
	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
		return matches[0].Text, true, nil
	default:
		return "", false, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguous, path, len(matches))
	}
}

// TextAt returns the text at path, or "" when it is absent or ambiguous.
func (n *Node) TextAt(path string) string {
	v, _, _ := n.Value(path)
	return v
}

// Child returns the first direct child named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}
