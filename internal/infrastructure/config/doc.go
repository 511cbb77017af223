// Package config provides 12-factor configuration management for the desktop backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Desktop: Viewport, app manifests, restoration retries, event history
//   - Session: Window position preferences and auto-save
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - VIEWPORT_WIDTH, VIEWPORT_HEIGHT, TASKBAR_HEIGHT, MANIFESTS_DIR
//   - RESTORE_MAX_ATTEMPTS, EVENT_HISTORY_SIZE
//   - PREFS_PATH, AUTOSAVE_INTERVAL, PREFS_COMPRESS
package config
