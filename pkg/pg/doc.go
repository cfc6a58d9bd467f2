// Package pg wires the PostgreSQL connection pool used by the job store:
// pgx pool construction with startup retries, a health check closure, and
// goose migrations applied from an embedded filesystem.
package pg
