// Package document reads and writes the shell layout document.
//
// A document is a tagged, nested text file:
//
//	<Root>
//	  <property name="iconTheme" value="oxygen"/>
//	  <element type="Panel" id="2">
//	    <property name="position" value="bottom"/>
//	    <element type="Clock" id="7"/>
//	  </element>
//	</Root>
//
// Parsing produces an immutable intermediate tree of [Node] values. The
// tree is consumed by the reconciliation engine in package core and then
// discarded. Values are always strings; typing them is the live object's
// business.
package document

// Property is a single name/value pair declared in the document.
type Property struct {
	Name  string
	Value string
}

// Node is one element tag of a parsed document.
type Node struct {
	// Type is the element type name passed to the factory.
	Type string
	// ID is the stable element id. Only meaningful when HasID is true.
	ID int64
	// HasID reports whether the tag carried an id attribute.
	HasID bool
	// Properties are the declared properties in document order.
	Properties []Property
	// Children are the nested element tags in document order.
	Children []*Node
}

// Document is a parsed layout document.
type Document struct {
	// Properties are the document-scope properties applied to the root.
	Properties []Property
	// Elements are the top-level element nodes.
	Elements []*Node
}

// Walk visits every node depth-first in document order. Returning false from
// visit prunes the node's subtree.
func (d *Document) Walk(visit func(n *Node) bool) {
	if d == nil {
		return
	}
	for _, n := range d.Elements {
		n.walk(visit)
	}
}

func (n *Node) walk(visit func(n *Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(visit)
	}
}

// MaxID returns the largest declared id in the document, or 0.
func (d *Document) MaxID() int64 {
	var max int64
	d.Walk(func(n *Node) bool {
		if n.HasID && n.ID > max {
			max = n.ID
		}
		return true
	})
	return max
}
