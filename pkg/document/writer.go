package document

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
)

const indentUnit = "  "

// Encode writes doc to w in canonical form: the XML declaration, a Root tag,
// the document-scope properties, then one element tag per node with its own properties before
// its children. Encoding the result of parsing an encoded document yields
// the same bytes.
func Encode(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}
	e.raw(xml.Header)
	e.open(0, tagRoot)
	e.raw(">\n")
	if doc != nil {
		for _, p := range doc.Properties {
			e.property(1, p)
		}
		for _, n := range doc.Elements {
			e.node(1, n)
		}
	}
	e.raw("</" + tagRoot + ">\n")
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// Marshal returns the canonical encoding of doc.
func Marshal(doc *Document) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = Encode(&buf, doc)
	return buf.Bytes()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) raw(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *encoder) open(depth int, tag string) {
	for range depth {
		e.raw(indentUnit)
	}
	e.raw("<" + tag)
}

func (e *encoder) attr(name, value string) {
	e.raw(" " + name + `="`)
	if e.err != nil {
		return
	}
	e.err = xml.EscapeText(e.w, []byte(value))
	e.raw(`"`)
}

func (e *encoder) property(depth int, p Property) {
	e.open(depth, tagProperty)
	e.attr(attrName, p.Name)
	e.attr(attrValue, p.Value)
	e.raw("/>\n")
}

func (e *encoder) node(depth int, n *Node) {
	e.open(depth, tagElement)
	e.attr(attrType, n.Type)
	if n.HasID {
		e.attr(attrID, strconv.FormatInt(n.ID, 10))
	}
	if len(n.Properties) == 0 && len(n.Children) == 0 {
		e.raw("/>\n")
		return
	}
	e.raw(">\n")
	for _, p := range n.Properties {
		e.property(depth+1, p)
	}
	for _, c := range n.Children {
		e.node(depth+1, c)
	}
	for range depth {
		e.raw(indentUnit)
	}
	e.raw("</" + tagElement + ">\n")
}
