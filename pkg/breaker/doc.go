// Package breaker implements a circuit breaker guarding calls to flaky
// downstream dependencies, plus a bounded registry of named breakers.
//
// A breaker is a per-process advisory guard: it is not persisted, not shared
// across processes, and resets to a clean closed state on restart. One
// breaker instance belongs to one logical downstream dependency and is owned
// by the calling component; the Registry exists only so an operator can
// force-reset every breaker without restarting the process.
//
// Usage:
//
//	cb := breaker.New("poster-api")
//
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return client.Post(ctx, payload)
//	})
//	if errors.Is(err, breaker.ErrOpen) {
//	    // failed fast, downstream was not called
//	}
package breaker
