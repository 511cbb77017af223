// Package session keeps the preferences of one browsing session.
//
// The only state that outlives a window is where each app was last placed.
// While a window is open its position is captured on a timer; closing the
// window cancels the timer and performs a final save. The location service
// falls back to these saved positions when a deep link carries no geometry.
//
// Components:
//   - Manager: Snapshot, per-window auto-save timers, saved-position lookup
//   - FileStore: JSON file via sonic, optionally zstd-compressed
//   - MemoryStore: In-memory store for tests and ephemeral sessions
//
// Auto-save lifecycle:
//  1. Register(windowID, appID) when the window opens
//  2. Every interval, capture bounds and persist if they changed
//  3. Unregister(windowID) before the window is removed
//  4. Close() on shutdown stops every timer and saves once more
//
// Example Usage:
//
//	prefs := session.NewManager(session.NewFileStore(path, true), windows, 30*time.Second, logger)
//	_ = prefs.Load(ctx)
//	prefs.Register(windowID, "terminal")
//	defer prefs.Unregister(windowID)
package session
