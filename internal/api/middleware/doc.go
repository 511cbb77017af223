// Package middleware provides the HTTP middleware for the desktop API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for the desktop shell's origins
//   - RateLimit: Per-IP token bucket rate limiting with idle client cleanup
//   - Recovery: Panic recovery with a JSON error response
//   - Logger: Request logging via zap
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
