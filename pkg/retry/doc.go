// Package retry executes operations against flaky downstream APIs with
// classified retries and pluggable backoff strategies.
//
// Unlike a blanket retry-on-any-failure policy, Do inspects every failure
// through apierr.Classify and retries only transient classes (network,
// timeout, server error, service unavailable, rate limit). Authentication
// and malformed-response failures propagate immediately no matter how many
// attempts remain, because repeating them cannot succeed.
//
// The package also hosts the backoff strategies shared across the delivery
// pipeline: Exponential for in-attempt retries and Ladder for the job
// queue's fixed 1m/5m/30m re-arm cadence.
package retry
