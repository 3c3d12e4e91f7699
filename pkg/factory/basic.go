package factory

import (
	"fmt"
	"sync"
)

// BasicObject is a property-bag Object. It stores every property as the
// string it was given and remembers its children. It stands in for toolkit
// types whose behavior lives outside this module, and backs the root scope.
type BasicObject struct {
	typeName   string
	properties map[string]string
	children   []Object
	released   bool
	mu         sync.RWMutex
}

// NewBasicObject creates a BasicObject of the given type.
func NewBasicObject(typeName string) *BasicObject {
	return &BasicObject{
		typeName:   typeName,
		properties: make(map[string]string),
	}
}

// TypeName returns the object's type name.
func (o *BasicObject) TypeName() string {
	return o.typeName
}

// SetProperty stores value under name.
func (o *BasicObject) SetProperty(name, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return ErrReleased
	}
	o.properties[name] = value
	return nil
}

// Property returns the stored value for name.
func (o *BasicObject) Property(name string) (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.released {
		return "", ErrReleased
	}
	value, ok := o.properties[name]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownProperty, o.typeName, name)
	}
	return value, nil
}

// SetChildren records the ordered child objects.
func (o *BasicObject) SetChildren(children []Object) {
	o.mu.Lock()
	o.children = append(o.children[:0], children...)
	o.mu.Unlock()
}

// Children returns a copy of the child objects last pushed by the engine.
func (o *BasicObject) Children() []Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Object(nil), o.children...)
}

// Dispose marks the object released; later property access fails.
func (o *BasicObject) Dispose() {
	o.mu.Lock()
	o.released = true
	o.children = nil
	o.mu.Unlock()
}

// Released reports whether Dispose was called.
func (o *BasicObject) Released() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.released
}
