package core

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/go-drift/shellconf/pkg/document"
	"github.com/go-drift/shellconf/pkg/errors"
	"github.com/go-drift/shellconf/pkg/factory"
)

// fakeObject is a toolkit object that records every write.
type fakeObject struct {
	typeName string
	id       int64
	props    map[string]string
	writes   []string
	children []factory.Object
	rejects  map[string]bool
}

func (o *fakeObject) TypeName() string { return o.typeName }

func (o *fakeObject) SetProperty(name, value string) error {
	if o.rejects[name] {
		return fmt.Errorf("%s rejects %s", o.typeName, name)
	}
	o.props[name] = value
	o.writes = append(o.writes, name+"="+value)
	return nil
}

func (o *fakeObject) Property(name string) (string, error) {
	v, ok := o.props[name]
	if !ok {
		return "", factory.ErrUnknownProperty
	}
	return v, nil
}

func (o *fakeObject) SetChildren(children []factory.Object) {
	o.children = children
}

func (o *fakeObject) childIDs() []int64 {
	ids := make([]int64, 0, len(o.children))
	for _, c := range o.children {
		ids = append(ids, c.(*fakeObject).id)
	}
	return ids
}

// fakeFactory is a Factory that keeps a log of creations and destruction
// notifications and lets tests hook into Create.
type fakeFactory struct {
	failTypes      map[string]bool
	rejects        map[string]map[string]bool
	live           map[*fakeObject]bool
	created        []*fakeObject
	notified       []int64
	listeners      map[int]factory.DestroyListener
	nextListenerID int
	beforeCreate   func(typeName string, id int64)
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		failTypes: make(map[string]bool),
		rejects:   make(map[string]map[string]bool),
		live:      make(map[*fakeObject]bool),
		listeners: make(map[int]factory.DestroyListener),
	}
}

func (f *fakeFactory) Create(typeName string, id int64) (factory.Object, error) {
	if f.beforeCreate != nil {
		f.beforeCreate(typeName, id)
	}
	if f.failTypes[typeName] {
		return nil, fmt.Errorf("%w: %q", factory.ErrUnknownType, typeName)
	}
	obj := &fakeObject{
		typeName: typeName,
		id:       id,
		props:    make(map[string]string),
		rejects:  f.rejects[typeName],
	}
	f.live[obj] = true
	f.created = append(f.created, obj)
	return obj, nil
}

func (f *fakeFactory) Release(obj factory.Object) {
	f.kill(obj.(*fakeObject))
}

// destroyExternally tears an object down without the engine asking.
func (f *fakeFactory) destroyExternally(obj factory.Object) {
	f.kill(obj.(*fakeObject))
}

// renotify repeats a notification for an already destroyed object.
func (f *fakeFactory) renotify(obj factory.Object) {
	o := obj.(*fakeObject)
	for _, fn := range f.sortedListeners() {
		fn(o.id, o)
	}
}

func (f *fakeFactory) kill(o *fakeObject) {
	if !f.live[o] {
		return
	}
	delete(f.live, o)
	f.notified = append(f.notified, o.id)
	for _, fn := range f.sortedListeners() {
		fn(o.id, o)
	}
}

func (f *fakeFactory) sortedListeners() []factory.DestroyListener {
	keys := make([]int, 0, len(f.listeners))
	for k := range f.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]factory.DestroyListener, 0, len(keys))
	for _, k := range keys {
		out = append(out, f.listeners[k])
	}
	return out
}

func (f *fakeFactory) OnDestroyed(fn factory.DestroyListener) func() {
	id := f.nextListenerID
	f.nextListenerID++
	f.listeners[id] = fn
	return func() { delete(f.listeners, id) }
}

// reportCollector captures reported errors.
type reportCollector struct {
	errors.LogHandler
	reports []*errors.ShellError
}

func (h *reportCollector) HandleError(err *errors.ShellError) {
	h.reports = append(h.reports, err)
}

func (h *reportCollector) kinds() []errors.ErrorKind {
	out := make([]errors.ErrorKind, 0, len(h.reports))
	for _, r := range h.reports {
		out = append(out, r.Kind)
	}
	return out
}

func collectReports(t *testing.T) *reportCollector {
	t.Helper()
	h := &reportCollector{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return h
}

func newTestEngine(t *testing.T) (*Engine, *fakeFactory) {
	t.Helper()
	f := newFakeFactory()
	eng := New(Options{Factory: f})
	t.Cleanup(eng.Close)
	return eng, f
}

func parseDoc(t *testing.T, src string) *document.Document {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// shape describes the live tree as (type#id[props]) strings in pre-order
// with indentation, for readable diffs.
func shape(eng *Engine) []string {
	var out []string
	eng.Walk(func(el *Element) bool {
		out = append(out, fmt.Sprintf("%s%s#%d%v", strings.Repeat("  ", el.Depth()), el.TypeName(), el.ID(), el.Properties()))
		return true
	})
	return out
}

// objects maps each live id to its object.
func objects(eng *Engine) map[int64]factory.Object {
	out := make(map[int64]factory.Object)
	eng.Walk(func(el *Element) bool {
		out[el.ID()] = el.Object()
		return true
	})
	return out
}
