// Package httpserver wraps net/http with graceful shutdown and configurable
// timeouts. Run blocks until the context is cancelled or an interrupt/TERM
// signal arrives, then drains in-flight requests within the shutdown
// deadline.
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown, so callers can tell them apart with errors.Is.
package httpserver
