// Package core keeps the live element tree of the shell in step with its
// layout document.
//
// # Elements
//
// An Element wraps one live toolkit object created through a
// [factory.Factory]. It carries a stable numeric id, its type name, the names
// of the properties the document set on it, and its position in the tree.
// Top-level elements hang off an implicit root scope whose object receives
// the document-scope properties.
//
// # Reconciliation
//
// [Engine.Reconcile] updates the live tree to match a parsed document while
// reusing as much as it can:
//
//	eng := core.New(core.Options{Factory: registry, Path: path})
//	if err := eng.Load(); err != nil {
//	    return err // the shell cannot present its layout
//	}
//	...
//	eng.Reload() // after the file changed on disk
//
// Elements whose id appears in the new document keep their object and
// identity and only get their properties re-applied. Ids that are new are
// created. Ids that vanished are destroyed. Reload is not transactional: a
// truncated document destroys whatever it no longer mentions, and a new
// reload repairs it.
//
// # Destruction notifications
//
// Toolkit objects can disappear without the engine asking. The engine
// subscribes to the factory's destruction notifications and removes the
// matching element from the tree and the identity index. Notifications may
// arrive in the middle of a reload (from inside factory calls) and may be
// repeated; both are handled.
//
// # Threading
//
// Engine is not safe for concurrent use. Drive it from a single goroutine,
// typically the one running a [platform.Loop]; callers on other goroutines
// should hand work over with platform.Loop.Dispatch.
//
// [platform.Loop]: github.com/go-drift/shellconf/pkg/platform.Loop
package core
