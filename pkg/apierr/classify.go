package apierr

import (
	"errors"
	"strings"
)

// Classify normalizes an arbitrary error into a classified *Error.
//
// If err is already an *Error it is returned unchanged (options are not
// re-applied; classification happens once at the boundary). Otherwise the
// error message is matched against known substrings. This heuristic is
// deliberately contained here as a single pure function: collaborators that
// return tagged errors bypass it entirely, and novel error strings from new
// collaborators fall through to TypeUnknown rather than being misclassified
// elsewhere in the pipeline.
func Classify(err error, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}

	t := classifyMessage(err.Error())
	opts = append(opts, WithCause(err))
	return New(t, err.Error(), opts...)
}

// classifyMessage maps an error message onto a failure class by substring
// inspection. Match order matters: more specific markers are checked before
// the broad network/server buckets.
func classifyMessage(msg string) Type {
	m := strings.ToLower(msg)

	switch {
	case contains(m, "401", "unauthorized", "authentication", "invalid credentials"):
		return TypeAuthentication
	case contains(m, "429", "rate limit", "too many requests"):
		return TypeRateLimit
	case contains(m, "timeout", "timed out", "deadline exceeded"):
		return TypeTimeout
	case contains(m, "503", "service unavailable"):
		return TypeServiceUnavailable
	case contains(m, "500", "server error", "internal error"):
		return TypeServerError
	case contains(m, "invalid response", "malformed", "unexpected response"):
		return TypeInvalidResponse
	case contains(m, "network", "connection", "no such host", "broken pipe"):
		return TypeNetworkError
	default:
		return TypeUnknown
	}
}

func contains(msg string, markers ...string) bool {
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
