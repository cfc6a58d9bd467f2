package breaker

import "sync"

// DefaultRegistrySize caps how many named breakers a registry holds. One
// breaker per logical downstream dependency keeps this small; the cap exists
// so dynamically derived names cannot grow the map without bound.
const DefaultRegistrySize = 64

// Registry holds named circuit breakers with a bounded size. It exists so an
// operator can reset every breaker in the process at once; individual
// breakers remain owned by their calling components.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	maxSize  int
	opts     []Option
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxSize caps the number of breakers the registry will create.
func WithMaxSize(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// WithBreakerOptions sets default options applied to every breaker the
// registry creates.
func WithBreakerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.opts = opts
	}
}

// NewRegistry creates an empty bounded registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		breakers: make(map[string]*CircuitBreaker),
		maxSize:  DefaultRegistrySize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the breaker registered under name, or nil.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.breakers[name]
}

// GetOrCreate returns the breaker registered under name, creating it if
// absent. Returns ErrRegistryFull once the size cap is reached.
func (r *Registry) GetOrCreate(name string) (*CircuitBreaker, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock, another goroutine may have won.
	if cb, ok := r.breakers[name]; ok {
		return cb, nil
	}
	if len(r.breakers) >= r.maxSize {
		return nil, ErrRegistryFull
	}

	cb = New(name, r.opts...)
	r.breakers[name] = cb
	return cb, nil
}

// ResetAll force-closes every registered breaker. Operator action.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
}

// Stats returns a snapshot of every registered breaker, keyed by name.
func (r *Registry) Stats() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]Stats, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.Stats()
	}
	return stats
}

// Len returns the number of registered breakers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.breakers)
}
