// Package middleware provides the Gin middleware chain of the HTTP server:
// CORS, per-IP rate limiting and request identification with access logging.
package middleware
