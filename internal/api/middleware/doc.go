// Package middleware holds the gin middleware shared by the kernel API:
// CORS for the UI shell, per-client rate limiting and request ids.
package middleware
