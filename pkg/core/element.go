package core

import (
	"slices"

	"github.com/go-drift/shellconf/pkg/factory"
)

// Element is one live node of the shell layout.
type Element struct {
	id         int64
	typeName   string
	properties []string
	parent     *Element // weak back reference; the root scope for top-level elements
	children   []*Element
	object     factory.Object
	released   bool
	root       bool
}

// ID returns the element's stable id. The root scope has id 0.
func (e *Element) ID() int64 {
	return e.id
}

// TypeName returns the type the element was created with.
func (e *Element) TypeName() string {
	return e.typeName
}

// Properties returns the names of the properties set from the document on
// the last load, plus any set through [Engine.SetProperty] since then.
func (e *Element) Properties() []string {
	return slices.Clone(e.properties)
}

// Parent returns the element's parent, or nil for top-level elements, the
// root scope and released elements.
func (e *Element) Parent() *Element {
	if e.parent == nil || e.parent.root {
		return nil
	}
	return e.parent
}

// Children returns the child elements in document order.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// Object returns the live toolkit object.
func (e *Element) Object() factory.Object {
	return e.object
}

// Alive reports whether the element is still part of the tree. An element
// stops being alive when it is removed or its object is destroyed.
func (e *Element) Alive() bool {
	return !e.released
}

// IsRoot reports whether e is the engine's root scope.
func (e *Element) IsRoot() bool {
	return e.root
}

// Depth returns the number of ancestors below the root scope; top-level
// elements have depth 0.
func (e *Element) Depth() int {
	depth := 0
	for p := e.parent; p != nil && !p.root; p = p.parent {
		depth++
	}
	return depth
}

// Walk visits e and its descendants depth-first in document order.
// Returning false from visit prunes that subtree.
func (e *Element) Walk(visit func(*Element) bool) {
	if !visit(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(visit)
	}
}

func (e *Element) appendChild(child *Element) {
	child.parent = e
	e.children = append(e.children, child)
}

// removeChild unlinks child from e. It is a no-op if child is not there.
func (e *Element) removeChild(child *Element) bool {
	idx := slices.Index(e.children, child)
	if idx < 0 {
		return false
	}
	e.children = slices.Delete(e.children, idx, idx+1)
	child.parent = nil
	return true
}

func (e *Element) detach() {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
	e.parent = nil
}

// recordProperty adds name to the declared property list once.
func (e *Element) recordProperty(name string) {
	if !slices.Contains(e.properties, name) {
		e.properties = append(e.properties, name)
	}
}

// syncChildren pushes the ordered child objects to a container object.
func (e *Element) syncChildren() {
	container, ok := e.object.(factory.Container)
	if !ok || e.released {
		return
	}
	objects := make([]factory.Object, 0, len(e.children))
	for _, child := range e.children {
		objects = append(objects, child.object)
	}
	container.SetChildren(objects)
}

// postOrder appends e's descendants, children before parents, then e.
func (e *Element) postOrder(out []*Element) []*Element {
	for _, c := range e.children {
		out = c.postOrder(out)
	}
	return append(out, e)
}
