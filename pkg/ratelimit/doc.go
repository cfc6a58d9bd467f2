// Package ratelimit implements a sliding-window rate limiter with block
// durations, protecting client-facing surfaces (login, password reset, the
// general API) from abuse.
//
// Each client key accumulates attempts inside a rolling window. Once the
// attempt count reaches the configured maximum, the key is blocked until the
// block duration elapses, independent of window expiry. Entries are evicted
// lazily on the next check and swept periodically; an absent entry means "no
// history" and is treated as not limited.
//
// The limiter is per-process and in-memory by design: it is an advisory
// abuse guard, not a cross-process coordination mechanism, and tolerates
// being reset to a clean state on restart.
//
// Distinct Config presets exist per action class, each with independent
// thresholds:
//
//	login := ratelimit.New(ratelimit.LoginConfig())
//	defer login.Close()
//
//	if res := login.Allow(clientKey); !res.Allowed {
//	    // reject with res.RetryAfter
//	}
package ratelimit
