// Package middleware provides the HTTP middleware stack: request IDs,
// request-scoped logging, Prometheus metrics, and panic recovery.
package middleware

// contextKey is a private type for context values set by middleware.
type contextKey string
