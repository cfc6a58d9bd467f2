package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// KeyFunc extracts a rate limit key from an HTTP request.
type KeyFunc func(*http.Request) string

// ClientKey derives a client identifier from the network address and a
// user-agent fingerprint. The fingerprint makes NAT'd clients behind one IP
// distinguishable without identifying individual users.
func ClientKey(r *http.Request) string {
	return ClientIP(r) + ":" + fingerprint(r)
}

// ClientIP extracts the originating client IP, honoring the usual proxy
// headers before falling back to the socket address.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For holds a comma-separated chain; the first hop is the
	// original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(xff)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return strings.TrimSpace(xrip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// fingerprint hashes stable request headers into a short hex string.
func fingerprint(r *http.Request) string {
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
	}

	var filtered []string
	for _, c := range components {
		if c != "" {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return "anonymous"
	}

	sum := sha256.Sum256([]byte(strings.Join(filtered, "|")))
	return hex.EncodeToString(sum[:8])
}
