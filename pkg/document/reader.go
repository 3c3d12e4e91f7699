package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	tagRoot     = "Root"
	tagProperty = "property"
	tagElement  = "element"

	attrName  = "name"
	attrValue = "value"
	attrType  = "type"
	attrID    = "id"
)

// ErrNoRoot is reported when the stream ends before any tag was read.
var ErrNoRoot = errors.New("document: no root tag")

// ParseError describes one malformed part of a document. Parsing continues
// past it whenever the stream allows.
type ParseError struct {
	// Line is the 1-based line where the problem was detected.
	Line int
	// Tag is the tag being read, if any.
	Tag string
	// Err describes the problem.
	Err error
}

func (e *ParseError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("line %d: <%s>: %v", e.Line, e.Tag, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a document from r.
//
// Parsing is best effort. Malformed property tags and element tags (missing
// type, non-numeric id) are skipped together with their subtree, unknown tags
// are looked through as if only their content were there, and a truncated or otherwise broken stream yields the tree
// read so far. The returned document is never nil; the error joins every
// problem encountered and is nil for a clean document.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{
		dec: xml.NewDecoder(r),
		doc: &Document{},
	}
	p.run()
	return p.doc, errors.Join(p.problems...)
}

type parser struct {
	dec      *xml.Decoder
	doc      *Document
	stack    []*Node // open tags inside the root; nil is the document scope
	inRoot   bool
	problems []error
}

func (p *parser) run() {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			if !p.inRoot {
				p.fail("", ErrNoRoot)
			}
			return
		}
		if err != nil {
			p.fail("", err)
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !p.inRoot {
				p.inRoot = true
				continue
			}
			if !p.start(t) {
				return
			}
		case xml.EndElement:
			if len(p.stack) == 0 {
				// Root closed; anything after it is not part of the document.
				return
			}
			p.stack = p.stack[:len(p.stack)-1]
		}
	}
}

// start handles a tag opened inside the root. It returns false when the
// stream broke while consuming the tag.
func (p *parser) start(t xml.StartElement) bool {
	switch t.Name.Local {
	case tagProperty:
		name, okName := attr(t, attrName)
		value, okValue := attr(t, attrValue)
		if !okName || !okValue {
			p.fail(tagProperty, errors.New("property needs name and value"))
		} else {
			prop := Property{Name: name, Value: value}
			if top := p.top(); top != nil {
				top.Properties = append(top.Properties, prop)
			} else {
				p.doc.Properties = append(p.doc.Properties, prop)
			}
		}
		return p.skip()

	case tagElement:
		node, err := elementNode(t)
		if err != nil {
			p.fail(tagElement, err)
			return p.skip()
		}
		if top := p.top(); top != nil {
			top.Children = append(top.Children, node)
		} else {
			p.doc.Elements = append(p.doc.Elements, node)
		}
		p.stack = append(p.stack, node)
		return true

	default:
		// Unknown tags are transparent: what they contain belongs to the
		// enclosing element, or to the document scope at the top.
		p.stack = append(p.stack, p.top())
		return true
	}
}

func (p *parser) top() *Node {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) skip() bool {
	if err := p.dec.Skip(); err != nil {
		p.fail("", err)
		return false
	}
	return true
}

func (p *parser) fail(tag string, err error) {
	line, _ := p.dec.InputPos()
	p.problems = append(p.problems, &ParseError{Line: line, Tag: tag, Err: err})
}

func elementNode(t xml.StartElement) (*Node, error) {
	typeName, ok := attr(t, attrType)
	if !ok || typeName == "" {
		return nil, errors.New("element has no type")
	}
	node := &Node{Type: typeName}
	if raw, ok := attr(t, attrID); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("element %s has invalid id %q", typeName, raw)
		}
		node.ID = id
		node.HasID = true
	}
	return node, nil
}

func attr(t xml.StartElement, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
