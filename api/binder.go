package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodySize bounds request bodies; posts are small.
const maxBodySize = 1 << 20

var (
	errMissingContentType   = errors.New("missing content-type header, expected application/json")
	errUnsupportedMediaType = errors.New("unsupported media type, expected application/json")
	errBodyTooLarge         = errors.New("request body too large")
)

// decodeJSON binds a JSON request body into v, rejecting unknown media types
// and oversized bodies.
func decodeJSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return errMissingContentType
	}
	if mediaType, _, _ := strings.Cut(contentType, ";"); strings.TrimSpace(mediaType) != "application/json" {
		return errUnsupportedMediaType
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(body) > maxBodySize {
		return errBodyTooLarge
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse request body: %w", err)
	}
	return nil
}
