// Package postgres persists jobs in PostgreSQL via pgx. It implements the
// repository interfaces of both the queue and scheduler packages.
//
// Every state transition that matters for correctness is a single conditional
// UPDATE; the row count tells the caller whether the transition happened.
// ClaimJob in particular relies on this to guarantee a job is never processed
// by two workers at once, without advisory locks or SELECT FOR UPDATE.
package postgres
