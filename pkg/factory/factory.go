// Package factory defines the boundary between the configuration engine and
// the toolkit that actually builds shell elements.
//
// The engine never constructs objects itself. It asks a [Factory] to turn a
// type name into an [Object], writes and reads string properties through the
// object, and learns about the object's destruction through a notification.
// Destruction may be triggered by the engine ([Factory.Release]) or happen
// independently inside the toolkit; either way the factory notifies exactly
// once per instance.
package factory

import "errors"

// Sentinel errors for factory operations.
var (
	// ErrUnknownType is returned when no constructor is registered for a type.
	ErrUnknownType = errors.New("factory: unknown element type")

	// ErrReleased is returned when operating on an object that was destroyed.
	ErrReleased = errors.New("factory: object released")

	// ErrUnknownProperty is returned when reading a property that was never set.
	ErrUnknownProperty = errors.New("factory: unknown property")
)

// Object is a live toolkit object backing one element. Implementations must
// be comparable, which in practice means pointer types.
type Object interface {
	// TypeName returns the type the object was created for.
	TypeName() string

	// SetProperty writes a string-valued property. Converting the value to
	// its typed form is the object's job.
	SetProperty(name, value string) error

	// Property reads the current value of a property back as a string.
	Property(name string) (string, error)
}

// Container is implemented by objects that hold child objects. The engine
// pushes the ordered child list after every change to an element's children.
type Container interface {
	SetChildren(children []Object)
}

// DestroyListener is called when an object has been destroyed. id is the id
// the object was created with.
type DestroyListener func(id int64, obj Object)

// Factory creates and releases live objects.
type Factory interface {
	// Create builds an object for typeName. id is the element id the object
	// will be known by; it is passed back in destruction notifications.
	Create(typeName string, id int64) (Object, error)

	// Release destroys obj. The destruction notification fires before
	// Release returns.
	Release(obj Object)

	// OnDestroyed registers a listener for destruction notifications.
	// Returns an unsubscribe function.
	OnDestroyed(fn DestroyListener) func()
}
