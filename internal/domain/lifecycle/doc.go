// Package lifecycle tracks running apps and broadcasts lifecycle events.
//
// An app is running while it has at least one mounted window. Every
// transition (mount, unmount, focus, blur, activate, deactivate) is appended
// to a bounded history and delivered synchronously to the registered
// listeners. A panicking listener is logged and skipped; delivery to the
// remaining listeners continues.
//
// Mounting a window for an app the catalog does not know is ignored with a
// warning.
package lifecycle
