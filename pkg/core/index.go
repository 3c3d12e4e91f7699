package core

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Index maps element ids to live elements. It is a cache over the tree and
// never the source of truth: every indexed element is reachable from the
// root scope outside of an in-progress reload.
type Index struct {
	elements map[int64]*Element
}

func newIndex() *Index {
	return &Index{elements: make(map[int64]*Element)}
}

// Get returns the element indexed under id.
func (x *Index) Get(id int64) (*Element, bool) {
	el, ok := x.elements[id]
	return el, ok
}

// Len returns the number of indexed elements.
func (x *Index) Len() int {
	return len(x.elements)
}

// IDs returns the indexed ids in ascending order.
func (x *Index) IDs() []int64 {
	ids := make([]int64, 0, len(x.elements))
	for id := range x.elements {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (x *Index) put(el *Element) {
	x.elements[el.id] = el
}

// remove erases id only while it still maps to el, so a stale element can
// never evict the element that replaced it.
func (x *Index) remove(el *Element) bool {
	if cur, ok := x.elements[el.id]; ok && cur == el {
		delete(x.elements, el.id)
		return true
	}
	return false
}

// snapshot returns the indexed elements as a set.
func (x *Index) snapshot() mapset.Set[*Element] {
	set := mapset.NewThreadUnsafeSetWithSize[*Element](len(x.elements))
	for _, el := range x.elements {
		set.Add(el)
	}
	return set
}
