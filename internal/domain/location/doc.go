// Package location keeps the browser address bar and the window store in
// agreement.
//
// The location is always derived from the store: the focused window's app,
// id, bounds and state, or "/" when nothing is focused. It is pushed to a
// Navigator whenever the store changes. In the other direction a navigation
// event (back/forward, a pasted deep link) is parsed and reconciled into the
// store: an existing window is updated and focused, an existing app window
// is focused, or a new window is launched.
//
// Routes:
//
//	/                     desktop
//	/apps/{appId}         an app window
//	/projects/{slug}      the projects app plus a project.selected message
//	/files?path=...       the file explorer plus a files.navigate message
//
// Each route accepts windowId, x, y, w, h, maximized and minimized.
//
// A guard with three states (idle, syncing from store, syncing from
// location) stops the two directions from feeding each other. Invalid
// locations redirect: stripped parameters for a known app, the owning app
// for project and files routes, the desktop otherwise. A location that fails
// to restore three times is abandoned and redirects to the desktop.
package location
