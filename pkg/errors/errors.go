// Package errors provides structured error reporting for the shell
// configuration engine.
//
// Most failures inside a reload are not returned to the caller. A node that
// cannot be built is skipped, the failure is reported to the global
// [ErrorHandler], and reconciliation continues with the rest of the document.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindDocument indicates a malformed document node (missing attribute,
	// bad numeric id, duplicate id, syntax error).
	KindDocument
	// KindFactory indicates the factory could not construct an element.
	KindFactory
	// KindProperty indicates a property could not be written or read back.
	KindProperty
	// KindFile indicates the document file could not be read or written.
	KindFile
	// KindFatal indicates the shell cannot present its layout.
	KindFatal
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindWatch indicates a file watcher failure.
	KindWatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindFactory:
		return "factory"
	case KindProperty:
		return "property"
	case KindFile:
		return "file"
	case KindFatal:
		return "fatal"
	case KindPanic:
		return "panic"
	case KindWatch:
		return "watch"
	default:
		return "unknown"
	}
}

// ShellError represents a structured engine error.
type ShellError struct {
	// Op is the operation that failed (e.g., "core.Reconcile").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// ID is the element id involved, if any.
	ID int64
	// Type is the element type name involved, if any.
	Type string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ShellError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s [%s] %s#%d: %v", e.Op, e.Kind, e.Type, e.ID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ShellError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Reload").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *ShellError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
