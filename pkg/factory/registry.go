package factory

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/go-drift/shellconf/pkg/errors"
)

// Constructor builds a new object for a registered type.
type Constructor func(typeName string) (Object, error)

// Disposer is implemented by objects that need cleanup when destroyed.
type Disposer interface {
	Dispose()
}

// Registry is a Factory backed by a table of constructors keyed by type name.
// It tracks every live object it created and emits exactly one destruction
// notification per object, whether the object was released by the engine or
// destroyed by the toolkit through [Registry.Destroy].
//
// Registry is safe for concurrent use. Listeners are invoked synchronously on
// the goroutine that released or destroyed the object.
type Registry struct {
	constructors   map[string]Constructor
	live           map[Object]int64
	listeners      map[int]DestroyListener
	nextListenerID int
	mu             sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		live:         make(map[Object]int64),
		listeners:    make(map[int]DestroyListener),
	}
}

// Register installs the constructor for typeName, replacing any previous one.
func (r *Registry) Register(typeName string, ctor Constructor) {
	r.mu.Lock()
	r.constructors[typeName] = ctor
	r.mu.Unlock()
}

// RegisterBasic registers each type name with a property-bag constructor.
func (r *Registry) RegisterBasic(typeNames ...string) {
	for _, name := range typeNames {
		r.Register(name, func(typeName string) (Object, error) {
			return NewBasicObject(typeName), nil
		})
	}
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Create builds an object of the given type. A panicking constructor is
// reported and turned into an error.
func (r *Registry) Create(typeName string, id int64) (obj Object, err error) {
	r.mu.RLock()
	ctor, ok := r.constructors[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				errors.ReportPanic(&errors.PanicError{
					Op:         "factory.Create",
					Value:      rec,
					StackTrace: errors.CaptureStack(),
				})
				obj, err = nil, fmt.Errorf("constructor for %q panicked: %v", typeName, rec)
			}
		}()
		obj, err = ctor(typeName)
	}()
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("constructor for %q returned no object", typeName)
	}

	r.mu.Lock()
	r.live[obj] = id
	r.mu.Unlock()
	return obj, nil
}

// Release destroys an object on behalf of the engine.
func (r *Registry) Release(obj Object) {
	r.destroy(obj)
}

// Destroy destroys an object independently of the engine, as a toolkit
// component tearing itself down would. It returns false if the object was
// not live.
func (r *Registry) Destroy(obj Object) bool {
	return r.destroy(obj)
}

// DestroyID destroys every live object created with id. It returns the
// number of objects destroyed.
func (r *Registry) DestroyID(id int64) int {
	r.mu.RLock()
	var victims []Object
	for obj, objID := range r.live {
		if objID == id {
			victims = append(victims, obj)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, obj := range victims {
		if r.destroy(obj) {
			n++
		}
	}
	return n
}

// Live returns the number of live objects.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// IsLive reports whether obj was created by this registry and not destroyed.
func (r *Registry) IsLive(obj Object) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.live[obj]
	return ok
}

// OnDestroyed adds a destruction listener.
// Returns an unsubscribe function.
func (r *Registry) OnDestroyed(fn DestroyListener) func() {
	r.mu.Lock()
	id := r.nextListenerID
	r.nextListenerID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *Registry) destroy(obj Object) bool {
	if obj == nil {
		return false
	}
	r.mu.Lock()
	id, ok := r.live[obj]
	if ok {
		delete(r.live, obj)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	if d, ok := obj.(Disposer); ok {
		d.Dispose()
	}
	r.notify(id, obj)
	return true
}

// notify calls listeners in registration order.
func (r *Registry) notify(id int64, obj Object) {
	r.mu.RLock()
	keys := make([]int, 0, len(r.listeners))
	for k := range r.listeners {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	listeners := make([]DestroyListener, 0, len(keys))
	for _, k := range keys {
		listeners = append(listeners, r.listeners[k])
	}
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(id, obj)
	}
}
