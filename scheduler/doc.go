// Package scheduler accepts desired delivery times, validates them against
// business rules, and writes the job rows the queue package consumes.
//
// A schedule request carries the user's local (date, time, timezone) triple;
// the service resolves it to a single UTC instant under IANA rules, rejects
// past or too-distant times, and refuses slots that collide with the user's
// other scheduled posts inside a symmetric conflict window. The downstream
// platform penalizes near-simultaneous posts from one account, which is why
// the conflict check exists; the symmetric window keeps it a single range
// scan.
package scheduler
