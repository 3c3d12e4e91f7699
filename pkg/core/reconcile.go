package core

import (
	"fmt"

	"github.com/containerd/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/shellconf/pkg/document"
	"github.com/go-drift/shellconf/pkg/errors"
)

// Stats summarizes one reconciliation pass.
type Stats struct {
	// Created counts elements built through the factory.
	Created int
	// Reused counts elements kept with their existing object.
	Reused int
	// Destroyed counts elements the pass removed because the document no
	// longer declares them.
	Destroyed int
	// Skipped counts document nodes that were not placed (factory failure,
	// duplicate id), not including their descendants.
	Skipped int
}

type reconcileResult struct {
	Stats
	topLevelFailures []error
}

// reconcile runs one pass:
//  1. unlink every element from its parent and mark all of them unclaimed;
//  2. walk the document depth-first, reusing unclaimed elements by id or
//     creating new ones, relinking them in document order and applying
//     properties;
//  3. destroy whatever is still unclaimed, children before parents;
//  4. apply the document-scope properties to the root scope.
func (e *Engine) reconcile(doc *document.Document) reconcileResult {
	if doc == nil {
		doc = &document.Document{}
	}
	var res reconcileResult

	old := make([]*Element, 0, e.index.Len())
	for _, el := range e.root.children {
		old = el.postOrder(old)
	}
	for _, el := range old {
		el.parent = nil
		el.children = nil
	}
	e.root.children = nil

	e.unclaimed = e.index.snapshot()
	e.placed = mapset.NewThreadUnsafeSet[int64]()
	defer func() {
		e.unclaimed = nil
		e.placed = nil
		e.declared = nil
	}()
	e.reserveIDs(doc)

	for _, n := range doc.Elements {
		e.place(n, e.root, &res)
	}
	e.root.syncChildren()

	for _, el := range old {
		if e.unclaimed.Contains(el) {
			e.destroy(el)
			res.Destroyed++
		}
	}

	e.root.properties = e.root.properties[:0]
	for _, p := range doc.Properties {
		e.applyProperty(e.root, p, true)
	}

	log.L.WithFields(log.Fields{
		"created":   res.Created,
		"reused":    res.Reused,
		"destroyed": res.Destroyed,
		"skipped":   res.Skipped,
		"live":      e.index.Len(),
	}).Debug("reconciled shell layout")
	return res
}

// place reconciles one document node under parent, then its subtree.
func (e *Engine) place(n *document.Node, parent *Element, res *reconcileResult) {
	id := n.ID
	if !n.HasID {
		var err error
		if id, err = e.allocID(); err != nil {
			errors.Report(&errors.ShellError{
				Op:   "core.Reconcile",
				Kind: errors.KindDocument,
				Type: n.Type,
				Err:  err,
			})
			res.Skipped++
			return
		}
	}
	if e.placed.Contains(id) {
		errors.Report(&errors.ShellError{
			Op:   "core.Reconcile",
			Kind: errors.KindDocument,
			ID:   id,
			Type: n.Type,
			Err:  ErrDuplicateID,
		})
		res.Skipped++
		return
	}

	el := e.claim(id, n.Type)
	reused := el != nil
	if reused {
		el.properties = el.properties[:0]
		res.Reused++
	} else {
		obj, err := e.factory.Create(n.Type, id)
		if err != nil {
			shellErr := &errors.ShellError{
				Op:   "core.Reconcile",
				Kind: errors.KindFactory,
				ID:   id,
				Type: n.Type,
				Err:  err,
			}
			errors.Report(shellErr)
			res.Skipped++
			if parent.root {
				res.topLevelFailures = append(res.topLevelFailures, shellErr)
			}
			return
		}
		el = &Element{id: id, typeName: n.Type, object: obj}
		res.Created++
	}
	if parent.released {
		// A notification during Create took the parent down; the new
		// element has nowhere to go.
		e.destroy(el)
		return
	}

	e.unclaimed.Remove(el)
	e.placed.Add(id)
	e.index.put(el)
	parent.appendChild(el)

	for _, p := range n.Properties {
		e.applyProperty(el, p, reused)
		if el.released {
			return
		}
	}
	for _, child := range n.Children {
		e.place(child, el, res)
		if el.released {
			return
		}
	}
	el.syncChildren()
}

// claim returns the unclaimed element indexed under id if it can be reused
// for typeName. An element whose type changed is left unclaimed so that it
// gets destroyed; the node is then built from scratch under the same id.
func (e *Engine) claim(id int64, typeName string) *Element {
	el, ok := e.index.Get(id)
	if !ok || el.released || !e.unclaimed.Contains(el) {
		return nil
	}
	if el.typeName != typeName {
		return nil
	}
	return el
}

// applyProperty writes p to el's object and records the name. On a reused
// object a value that already matches is not written again. Failed writes
// are reported and leave the name unrecorded.
func (e *Engine) applyProperty(el *Element, p document.Property, reused bool) {
	if reused {
		if cur, err := el.object.Property(p.Name); err == nil && cur == p.Value {
			el.recordProperty(p.Name)
			return
		}
	}
	if err := el.object.SetProperty(p.Name, p.Value); err != nil {
		errors.Report(&errors.ShellError{
			Op:   "core.Reconcile",
			Kind: errors.KindProperty,
			ID:   el.id,
			Type: el.typeName,
			Err:  fmt.Errorf("write %s=%q: %w", p.Name, p.Value, err),
		})
		return
	}
	el.recordProperty(p.Name)
}
