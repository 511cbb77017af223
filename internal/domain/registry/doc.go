// Package registry provides the application catalog for the desktop.
//
// The registry is a pure data provider: it answers which apps exist, how
// large their windows start, how small they may shrink, and whether more than
// one window of an app may be open at once. It performs no state transitions.
//
// Components:
//   - Manager: Catalog CRUD (register, unregister, lookup, list)
//   - Seeder: Loads built-ins and *.app.yaml / *.app.toml manifests on startup
//
// Registration may happen at startup or dynamically (plugin-style). Registering
// an ID that already exists replaces the previous entry.
//
// Example Usage:
//
//	apps := registry.NewManager(logger)
//	seeder := registry.NewSeeder(apps, "./manifests", logger)
//	_ = seeder.SeedBuiltins()
//	reg, ok := apps.Get("terminal")
package registry
