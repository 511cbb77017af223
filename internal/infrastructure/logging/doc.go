// Package logging builds the service's zap loggers.
//
// Production mode writes JSON, development mode writes coloured console
// lines. The level can be changed at runtime with SetLevel, and each domain
// component gets its own named child logger:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	windows := window.NewStore(registry, viewport, logger.Component("windows"))
//
// Domain packages accept a plain *zap.Logger and fall back to a no-op logger
// when handed nil.
package logging
