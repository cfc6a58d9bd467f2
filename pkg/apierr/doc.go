// Package apierr provides a small classified error taxonomy for failures
// returned by downstream posting APIs.
//
// Every failure crossing the collaborator boundary is normalized into an
// *Error carrying a Type, a Severity derived from that type, and a retryable
// flag. Classification of opaque error strings is isolated in the pure
// Classify function so the substring heuristics stay contained and easy to
// replace with tagged errors from better-behaved collaborators.
//
// Usage:
//
//	if err := poster.Post(ctx, req); err != nil {
//	    aerr := apierr.Classify(err, apierr.WithService("twitter"))
//	    if aerr.Retryable {
//	        // schedule another attempt
//	    }
//	}
package apierr
