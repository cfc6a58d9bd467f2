package publisher

import (
	"context"

	"github.com/google/uuid"
)

// PostRequest carries one post to the downstream platform.
type PostRequest struct {
	UserID    uuid.UUID
	Content   string
	MediaRefs []string
}

// PostResult is returned on successful delivery.
type PostResult struct {
	// ExternalID is the identifier the downstream platform assigned.
	ExternalID string
}

// Poster delivers posts to the downstream social platform.
//
// Implementations must return an error for ordinary failures rather than
// panicking, and should respect ctx cancellation. The error may be a
// pre-classified *apierr.Error; opaque errors are classified by the caller.
type Poster interface {
	Post(ctx context.Context, req PostRequest) (*PostResult, error)
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(ctx context.Context, req PostRequest) (*PostResult, error)

func (f PosterFunc) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	return f(ctx, req)
}
