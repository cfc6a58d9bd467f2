// Package queue drives scheduled posts through their delivery state machine.
//
// Jobs are persisted rows produced by the scheduler package. A periodic
// sweep (cron, HTTP trigger, or operator action) calls Processor.ProcessQueue,
// which claims due jobs one at a time via an atomic conditional update and
// hands them to the posting collaborator. Failed deliveries walk a fixed
// backoff ladder (1m, 5m, 30m) until retries are exhausted, at which point
// the job is terminally failed and surfaces for manual intervention.
//
// The conditional claim is the sole concurrency-safety mechanism: multiple
// sweep invocations, potentially from separate processes, may race on the
// same due set, and exactly one wins each row. No in-process locking is
// involved, so safety holds across process boundaries as long as the backing
// store reports rows affected on conditional updates.
//
// Components interact only through the Repository interface. MemoryStore
// backs tests and local development; storage/postgres backs production.
package queue
