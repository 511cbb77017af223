// Package server assembles the desktop backend.
//
// New constructs every component explicitly, with no package-level state:
//
//  1. Logger, metrics and tracer
//  2. App registry, seeded with built-ins and manifests
//  3. Window store, lifecycle manager and session preferences
//  4. Launcher with auto-save, usage and prefetch hooks
//  5. WebSocket hub and the location sync service it navigates for
//  6. Middleware stack and routes
//
// Close stops accepting requests, disconnects WebSocket clients, stops
// location sync and writes window positions one last time.
//
// Example usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close()
package server
