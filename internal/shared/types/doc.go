// Package types provides shared data structures for the desktop backend.
//
// This package defines the core types exchanged between the window store,
// lifecycle manager, launcher and location sync service, so that no component
// needs to import another component's internals.
//
// Core Types:
//   - AppRegistration: Installable application and its window policy
//   - Window: Open window state (bounds, focus, minimized, maximized)
//   - WindowState: Snapshot of every window plus the z-order
//   - RunningAppState: Mounted windows per application
//   - LifecycleEvent: mount/unmount/focus/blur/activate/deactivate
//   - LocationDescriptor: Shareable route plus parameters
//
// Request Types:
//   - LaunchRequest, SnapRequest, NavigateRequest: HTTP bodies
//   - WSMessage: WebSocket communication
//
// Example Usage:
//
//	reg := types.AppRegistration{
//	    ID:          "terminal",
//	    Name:        "Terminal",
//	    DefaultSize: types.Size{Width: 720, Height: 480},
//	    MinSize:     types.Size{Width: 320, Height: 240},
//	    Resizable:   true,
//	}
package types
