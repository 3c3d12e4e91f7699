package core

import (
	"github.com/go-drift/shellconf/pkg/factory"
)

// destroy removes el and its subtree from the tree and the index and
// releases their objects, children first. Safe to call on a released
// element.
func (e *Engine) destroy(el *Element) {
	if el.released {
		return
	}
	el.released = true
	for len(el.children) > 0 {
		e.destroy(el.children[len(el.children)-1])
	}
	parent := el.parent
	el.detach()
	e.forget(el)
	// Release notifies synchronously; objectDestroyed finds el already
	// forgotten and does nothing.
	e.factory.Release(el.object)
	if parent != nil && !parent.released {
		parent.syncChildren()
	}
}

// objectDestroyed handles a destruction notification from the factory.
// The object may already be gone from the tree (engine-initiated release,
// repeated notification, element replaced under the same id); those cases
// are no-ops.
func (e *Engine) objectDestroyed(id int64, obj factory.Object) {
	el := e.findByObject(id, obj)
	if el == nil || el.released {
		return
	}
	el.released = true
	parent := el.parent
	el.detach()
	e.forget(el)
	// Descendants cannot stay indexed without a path to the root.
	for len(el.children) > 0 {
		e.destroy(el.children[len(el.children)-1])
	}
	if parent != nil && !parent.released {
		parent.syncChildren()
	}
}

func (e *Engine) findByObject(id int64, obj factory.Object) *Element {
	if el, ok := e.index.Get(id); ok && el.object == obj {
		return el
	}
	// During a reload an element displaced from the index by a same-id
	// replacement is still tracked as unclaimed.
	if e.unclaimed != nil {
		var found *Element
		e.unclaimed.Each(func(el *Element) bool {
			if el.id == id && el.object == obj {
				found = el
				return true
			}
			return false
		})
		return found
	}
	return nil
}

// forget drops el from the index and from the current reload's bookkeeping.
func (e *Engine) forget(el *Element) {
	e.index.remove(el)
	if e.unclaimed != nil {
		e.unclaimed.Remove(el)
	}
}
