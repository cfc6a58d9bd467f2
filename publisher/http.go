package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/apierr"
)

// HTTPConfig configures the HTTP posting collaborator.
type HTTPConfig struct {
	Endpoint string        `env:"POSTER_ENDPOINT,required"`
	Token    string        `env:"POSTER_TOKEN"`
	Timeout  time.Duration `env:"POSTER_TIMEOUT" envDefault:"30s"`
}

// HTTPPoster delivers posts as JSON to a configured HTTP endpoint. It maps
// HTTP status classes onto classified errors so the retry layer can tell
// transient failures from terminal ones. Platform-specific API clients
// implement Poster directly and bypass this generic collaborator.
type HTTPPoster struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPPoster creates an HTTP posting collaborator.
func NewHTTPPoster(cfg HTTPConfig) *HTTPPoster {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPoster{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

type httpPostPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	MediaRefs []string  `json:"media_refs,omitempty"`
}

type httpPostResponse struct {
	ID string `json:"id"`
}

// Post implements Poster.
func (p *HTTPPoster) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	body, err := json.Marshal(httpPostPayload{
		UserID:    req.UserID,
		Content:   req.Content,
		MediaRefs: req.MediaRefs,
	})
	if err != nil {
		return nil, apierr.New(apierr.TypeUnknown, fmt.Sprintf("encode payload: %v", err),
			apierr.WithService("poster"), apierr.WithCause(err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apierr.New(apierr.TypeUnknown, fmt.Sprintf("build request: %v", err),
			apierr.WithService("poster"), apierr.WithCause(err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		// Transport errors carry no status; classify by message (timeouts
		// and connection failures both land in the retryable set).
		return nil, apierr.Classify(err, apierr.WithService("poster"), apierr.WithEndpoint(p.endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out httpPostResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
			return nil, apierr.New(apierr.TypeInvalidResponse, "malformed response body",
				apierr.WithService("poster"), apierr.WithEndpoint(p.endpoint), apierr.WithCause(err))
		}
		return &PostResult{ExternalID: out.ID}, nil
	}

	msg := fmt.Sprintf("%s: %s", resp.Status, truncateBody(resp.Body))
	return nil, apierr.New(classifyStatus(resp.StatusCode), msg,
		apierr.WithService("poster"), apierr.WithEndpoint(p.endpoint))
}

// classifyStatus maps HTTP status codes onto failure classes, replacing the
// substring heuristic with a tagged error at this boundary.
func classifyStatus(code int) apierr.Type {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apierr.TypeAuthentication
	case code == http.StatusTooManyRequests:
		return apierr.TypeRateLimit
	case code == http.StatusServiceUnavailable:
		return apierr.TypeServiceUnavailable
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return apierr.TypeTimeout
	case code >= 500:
		return apierr.TypeServerError
	default:
		return apierr.TypeUnknown
	}
}

func truncateBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return string(b)
}
