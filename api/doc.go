// Package api exposes the scheduling and queue operations over HTTP.
//
// The surface is a small JSON API mounted on chi. Domain sentinel errors map
// onto HTTP status codes in one place; handlers stay thin and delegate to the
// scheduler service and queue processor. Callers are identified by the
// X-User-ID header; an API gateway in front of this service is expected to
// authenticate requests and set it.
package api
