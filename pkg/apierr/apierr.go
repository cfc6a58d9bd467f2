package apierr

import "fmt"

// Type identifies the failure class of a downstream API error.
type Type string

const (
	TypeAuthentication     Type = "authentication"
	TypeRateLimit          Type = "rate_limit"
	TypeServerError        Type = "server_error"
	TypeNetworkError       Type = "network_error"
	TypeTimeout            Type = "timeout"
	TypeInvalidResponse    Type = "invalid_response"
	TypeServiceUnavailable Type = "service_unavailable"
	TypeUnknown            Type = "unknown"
)

// Severity grades how urgently a failure class needs operator attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityFor maps each failure class to its default severity.
// Authentication failures are critical: they never self-heal and block
// every delivery for the affected account.
func severityFor(t Type) Severity {
	switch t {
	case TypeAuthentication:
		return SeverityCritical
	case TypeServerError, TypeServiceUnavailable, TypeInvalidResponse:
		return SeverityHigh
	case TypeRateLimit, TypeNetworkError, TypeTimeout:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// retryableFor reports whether a failure class is transient enough to retry.
// Rate limits count as transient: the penalty window expires on its own, so
// a backed-off retry is expected to succeed.
func retryableFor(t Type) bool {
	switch t {
	case TypeNetworkError, TypeTimeout, TypeServerError, TypeServiceUnavailable, TypeRateLimit:
		return true
	default:
		return false
	}
}

// Error is an immutable value describing one classified downstream failure.
// A fresh Error is constructed for every failure; instances are never mutated.
type Error struct {
	Type      Type
	Severity  Severity
	Retryable bool
	Message   string

	// Context tags for logging and alert routing.
	Service  string
	Endpoint string
	UserID   string

	cause error
}

// New constructs a classified error with severity and retryability derived
// from the type. Options may override the derived retryability.
func New(t Type, message string, opts ...Option) *Error {
	e := &Error{
		Type:      t,
		Severity:  severityFor(t),
		Retryable: retryableFor(t),
		Message:   message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Error) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s: %s: %s", e.Service, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the original cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Option customizes a classified error at construction time.
type Option func(*Error)

// WithService tags the error with the downstream service name.
func WithService(service string) Option {
	return func(e *Error) {
		e.Service = service
	}
}

// WithEndpoint tags the error with the endpoint that failed.
func WithEndpoint(endpoint string) Option {
	return func(e *Error) {
		e.Endpoint = endpoint
	}
}

// WithUserID tags the error with the affected user.
func WithUserID(userID string) Option {
	return func(e *Error) {
		e.UserID = userID
	}
}

// WithRetryable overrides the retryability derived from the error type.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.Retryable = retryable
	}
}

// WithCause attaches the underlying error for unwrapping.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}
