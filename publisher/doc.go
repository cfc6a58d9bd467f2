// Package publisher defines the posting collaborator contract and the
// resilience wrapper the job queue calls through.
//
// A Poster returns structured errors for ordinary failures (network, auth,
// rate limit); panics are reserved for programmer errors. Resilient wraps
// any Poster with a named circuit breaker and classified retries, so a
// misbehaving downstream fails fast instead of stalling every sweep.
package publisher
