// Package main is the entry point for the WebDesk backend server.
//
// The server hosts the desktop's window manager: the app registry, the
// window store, app lifecycle tracking, launching, and the sync between the
// browser address bar and the open windows.
//
// Configuration:
//   - Environment variables (PORT, LOG_LEVEL, VIEWPORT_WIDTH, ...)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -manifests ./apps
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, open window positions are saved
package main
