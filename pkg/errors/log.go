package errors

import (
	"github.com/containerd/log"
)

// LogHandler is an ErrorHandler that writes reports to the process logger.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

// HandleError logs a ShellError. Fatal errors are logged at error level,
// everything else is a warning since the engine has already recovered.
func (h *LogHandler) HandleError(err *ShellError) {
	if err == nil {
		return
	}
	entry := log.L.WithFields(log.Fields{
		"op":   err.Op,
		"kind": err.Kind.String(),
	})
	if err.Type != "" {
		entry = entry.WithFields(log.Fields{"id": err.ID, "type": err.Type})
	}
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry = entry.WithError(err.Err)
	if err.Kind == KindFatal {
		entry.Error("shell configuration error")
		return
	}
	entry.Warn("shell configuration problem")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	entry := log.L.WithFields(log.Fields{
		"kind":  KindPanic.String(),
		"panic": err.Value,
	})
	if err.Op != "" {
		entry = entry.WithField("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry.Error("recovered panic")
}
