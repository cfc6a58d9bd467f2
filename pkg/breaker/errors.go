package breaker

import "errors"

var (
	// ErrOpen is returned by Execute when the circuit is open and the
	// wrapped operation was not invoked.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrNameRequired is returned when constructing a breaker without a name.
	ErrNameRequired = errors.New("breaker name is required")

	// ErrRegistryFull is returned when the registry has reached its size cap.
	ErrRegistryFull = errors.New("breaker registry is full")
)

// IsOpen checks if an error indicates a fast-failed call on an open circuit.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}
