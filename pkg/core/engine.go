package core

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/containerd/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/shellconf/pkg/document"
	"github.com/go-drift/shellconf/pkg/errors"
	"github.com/go-drift/shellconf/pkg/factory"
)

// PropertyIconTheme is the document-scope property holding the icon theme.
const PropertyIconTheme = "iconTheme"

// rootTypeName is the type name of the default root scope object.
const rootTypeName = "Root"

var (
	// ErrNotLive is returned when an operation targets an element that was
	// removed or belongs to another engine.
	ErrNotLive = stderrors.New("core: element is not live")

	// ErrDuplicateID is reported when a document declares an id twice.
	ErrDuplicateID = stderrors.New("core: duplicate element id")

	// ErrMandatoryElement is wrapped by the fatal error Load returns when a
	// top-level element cannot be built on a fresh load.
	ErrMandatoryElement = stderrors.New("core: top-level element could not be created")

	// ErrIDsExhausted is returned when every positive id is in use.
	ErrIDsExhausted = stderrors.New("core: no free element id")
)

// Options configures an Engine.
type Options struct {
	// Factory builds and releases live objects. Required.
	Factory factory.Factory

	// Path is the document file used by Load, Reload and Save.
	Path string

	// SearchPath lists read-only fallback documents, tried in order when
	// Path cannot be read. Save always writes to Path.
	SearchPath []string

	// Root is the object backing the root scope. Document-scope properties
	// are written to it. Defaults to a factory.BasicObject.
	Root factory.Object
}

// Engine owns the live element tree and its identity index.
type Engine struct {
	factory  factory.Factory
	path     string
	search   []string
	source   string
	root     *Element
	index    *Index
	nextID   int64
	editMode *EditMode

	// Reconcile state; nil outside a reload.
	unclaimed mapset.Set[*Element]
	placed    mapset.Set[int64]
	declared  mapset.Set[int64]

	unsubscribe func()
}

// New creates an engine with an empty tree. It panics if opts.Factory is nil.
func New(opts Options) *Engine {
	if opts.Factory == nil {
		panic("core: Options.Factory is required")
	}
	rootObject := opts.Root
	if rootObject == nil {
		rootObject = factory.NewBasicObject(rootTypeName)
	}
	e := &Engine{
		factory:  opts.Factory,
		path:     opts.Path,
		search:   slices.Clone(opts.SearchPath),
		root:     &Element{typeName: rootObject.TypeName(), object: rootObject, root: true},
		index:    newIndex(),
		nextID:   1,
		editMode: &EditMode{},
	}
	e.unsubscribe = e.factory.OnDestroyed(e.objectDestroyed)
	e.editMode.AddListener(e.editModeChanged)
	return e
}

// Close releases every element and stops listening to the factory. The
// engine must not be used afterwards.
func (e *Engine) Close() {
	for len(e.root.children) > 0 {
		e.destroy(e.root.children[len(e.root.children)-1])
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Path returns the document path.
func (e *Engine) Path() string {
	return e.path
}

// Source returns the file the last Load or Reload read, or "" if the
// built-in default was used.
func (e *Engine) Source() string {
	return e.source
}

// Root returns the root scope. Its children are the top-level elements.
func (e *Engine) Root() *Element {
	return e.root
}

// Elements returns the top-level elements in document order.
func (e *Engine) Elements() []*Element {
	return e.root.Children()
}

// Lookup returns the live element with the given id, or nil.
func (e *Engine) Lookup(id int64) *Element {
	el, _ := e.index.Get(id)
	return el
}

// Index returns the identity index.
func (e *Engine) Index() *Index {
	return e.index
}

// Len returns the number of live elements, excluding the root scope.
func (e *Engine) Len() int {
	return e.index.Len()
}

// Walk visits every live element depth-first in document order, excluding
// the root scope.
func (e *Engine) Walk(visit func(*Element) bool) {
	for _, el := range e.root.children {
		el.Walk(visit)
	}
}

// Load reads the document at the configured path and reconciles the tree
// against it. A missing or unreadable file falls back to the built-in default
// document. Parse problems are reported and the partial tree is used.
//
// When the tree was empty before the call, failure to build any top-level
// element is fatal: Load returns a *errors.ShellError of kind KindFatal. The
// elements that could be built stay live.
func (e *Engine) Load() error {
	fresh := e.index.Len() == 0
	doc := e.open("core.Load")
	res := e.reconcile(doc)
	if fresh && len(res.topLevelFailures) > 0 {
		return &errors.ShellError{
			Op:   "core.Load",
			Kind: errors.KindFatal,
			Err:  fmt.Errorf("%w: %w", ErrMandatoryElement, stderrors.Join(res.topLevelFailures...)),
		}
	}
	return nil
}

// Reload re-reads the document at the configured path and reconciles the
// tree against it. Every problem is reported and none is fatal.
func (e *Engine) Reload() Stats {
	return e.reconcile(e.open("core.Reload")).Stats
}

// Reconcile updates the tree to match doc. Problems are reported to the
// error handler; the returned stats describe what changed.
func (e *Engine) Reconcile(doc *document.Document) Stats {
	return e.reconcile(doc).Stats
}

func (e *Engine) open(op string) *document.Document {
	doc, source, err := document.OpenFirst(append([]string{e.path}, e.search...)...)
	e.source = source
	if source != "" && source != e.path {
		log.L.WithField("source", source).Debug("layout document read from search path")
	}
	if err == nil {
		return doc
	}
	var openErr *document.OpenError
	if stderrors.As(err, &openErr) {
		errors.Report(&errors.ShellError{Op: op, Kind: errors.KindFile, Err: err})
		return doc
	}
	errors.Report(&errors.ShellError{Op: op, Kind: errors.KindDocument, Err: err})
	return doc
}

// Snapshot builds a document from the live tree. Property values are read
// back from the live objects, so the result reflects current state rather
// than what was last loaded.
func (e *Engine) Snapshot() *document.Document {
	doc := &document.Document{Properties: e.readProperties(e.root)}
	for _, child := range e.root.children {
		doc.Elements = append(doc.Elements, e.snapshotNode(child))
	}
	return doc
}

func (e *Engine) snapshotNode(el *Element) *document.Node {
	n := &document.Node{
		Type:       el.typeName,
		ID:         el.id,
		HasID:      true,
		Properties: e.readProperties(el),
	}
	for _, child := range el.children {
		n.Children = append(n.Children, e.snapshotNode(child))
	}
	return n
}

func (e *Engine) readProperties(el *Element) []document.Property {
	var props []document.Property
	for _, name := range el.properties {
		value, err := el.object.Property(name)
		if err != nil {
			errors.Report(&errors.ShellError{
				Op:   "core.Snapshot",
				Kind: errors.KindProperty,
				ID:   el.id,
				Type: el.typeName,
				Err:  fmt.Errorf("read %s: %w", name, err),
			})
			continue
		}
		props = append(props, document.Property{Name: name, Value: value})
	}
	return props
}

// Encode writes the current live tree to w in document format.
func (e *Engine) Encode(w io.Writer) error {
	return document.Encode(w, e.Snapshot())
}

// Save writes the current live tree to the configured path.
func (e *Engine) Save() error {
	if e.path == "" {
		return &errors.ShellError{Op: "core.Save", Kind: errors.KindFile, Err: stderrors.New("no document path configured")}
	}
	if err := document.WriteFile(e.path, e.Snapshot()); err != nil {
		return &errors.ShellError{Op: "core.Save", Kind: errors.KindFile, Err: err}
	}
	return nil
}

// EditMode returns the engine's edit-mode toggle.
func (e *Engine) EditMode() *EditMode {
	return e.editMode
}

// SetEditMode switches edit mode. Leaving edit mode saves the live tree; a
// failed save is reported.
func (e *Engine) SetEditMode(active bool) {
	e.editMode.Set(active)
}

func (e *Engine) editModeChanged(active bool) {
	if active {
		return
	}
	if err := e.Save(); err != nil {
		var shellErr *errors.ShellError
		if stderrors.As(err, &shellErr) {
			errors.Report(shellErr)
			return
		}
		errors.Report(&errors.ShellError{Op: "core.SetEditMode", Kind: errors.KindFile, Err: err})
	}
}

// CreateElement creates an element of typeName under parent, or under the
// root scope if parent is nil, and appends it to the parent's children.
// The element gets a freshly allocated id that no document element seen so
// far uses; it is persisted by the next Save. On failure the tree is left
// unchanged.
func (e *Engine) CreateElement(typeName string, parent *Element) (*Element, error) {
	if parent == nil {
		parent = e.root
	}
	if !e.owns(parent) {
		return nil, ErrNotLive
	}
	prevNextID := e.nextID
	id, err := e.allocID()
	if err != nil {
		return nil, &errors.ShellError{Op: "core.CreateElement", Kind: errors.KindFactory, Type: typeName, Err: err}
	}
	obj, err := e.factory.Create(typeName, id)
	if err != nil {
		e.nextID = prevNextID
		return nil, &errors.ShellError{
			Op:   "core.CreateElement",
			Kind: errors.KindFactory,
			ID:   id,
			Type: typeName,
			Err:  err,
		}
	}
	if !e.owns(parent) {
		// The parent went away while the object was being built.
		e.factory.Release(obj)
		return nil, ErrNotLive
	}
	el := &Element{id: id, typeName: typeName, object: obj}
	e.index.put(el)
	parent.appendChild(el)
	parent.syncChildren()
	return el, nil
}

// RemoveElement destroys el and its descendants and releases their objects.
func (e *Engine) RemoveElement(el *Element) error {
	if el == nil || el.root || !e.owns(el) {
		return ErrNotLive
	}
	e.destroy(el)
	return nil
}

// SetProperty writes a property on el's live object and records it so that
// Save persists it. el may be the root scope.
func (e *Engine) SetProperty(el *Element, name, value string) error {
	if el == nil || !e.owns(el) {
		return ErrNotLive
	}
	if err := el.object.SetProperty(name, value); err != nil {
		return &errors.ShellError{
			Op:   "core.SetProperty",
			Kind: errors.KindProperty,
			ID:   el.id,
			Type: el.typeName,
			Err:  err,
		}
	}
	el.recordProperty(name)
	return nil
}

// IconTheme returns the root scope's icon theme, or "" if unset.
func (e *Engine) IconTheme() string {
	value, err := e.root.object.Property(PropertyIconTheme)
	if err != nil {
		return ""
	}
	return value
}

// SetIconTheme sets the root scope's icon theme.
func (e *Engine) SetIconTheme(name string) error {
	return e.SetProperty(e.root, PropertyIconTheme, name)
}

// owns reports whether el is the root scope or a live indexed element of e.
func (e *Engine) owns(el *Element) bool {
	if el == e.root {
		return true
	}
	if el.released {
		return false
	}
	cur, ok := e.index.Get(el.id)
	return ok && cur == el
}

// allocID returns a fresh id that no live element, no element placed by the
// running reload and no node of the document being reconciled uses. Ids
// count up from nextID; once the top of the id space is taken the lowest
// free id is reused.
func (e *Engine) allocID() (int64, error) {
	for id := e.nextID; id > 0; id++ {
		if !e.idTaken(id) {
			if id < math.MaxInt64 {
				e.nextID = id + 1
			}
			return id, nil
		}
		if id == math.MaxInt64 {
			break
		}
	}
	for id := int64(1); id > 0; id++ {
		if !e.idTaken(id) {
			return id, nil
		}
		if id == math.MaxInt64 {
			break
		}
	}
	return 0, ErrIDsExhausted
}

func (e *Engine) idTaken(id int64) bool {
	if _, ok := e.index.Get(id); ok {
		return true
	}
	if e.placed != nil && e.placed.Contains(id) {
		return true
	}
	return e.declared != nil && e.declared.Contains(id)
}

// reserveIDs keeps allocation above every id in doc, saturating at the top
// of the id space, and records the declared ids for the running reload.
func (e *Engine) reserveIDs(doc *document.Document) {
	e.declared = mapset.NewThreadUnsafeSet[int64]()
	var max int64
	doc.Walk(func(n *document.Node) bool {
		if n.HasID {
			e.declared.Add(n.ID)
			if n.ID > max {
				max = n.ID
			}
		}
		return true
	})
	switch {
	case max == math.MaxInt64:
		e.nextID = math.MaxInt64
	case max >= e.nextID:
		e.nextID = max + 1
	}
}
