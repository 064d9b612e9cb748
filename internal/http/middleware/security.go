// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which attaches a conservative set of
// HTTP security and caching headers for a JSON/NDJSON API behind a reverse
// proxy:
//
//   - baseline hardening on every response
//   - HSTS only when the request actually arrived over HTTPS
//   - caching: reads are revalidated (so list ETags work), writes are never
//     stored, streams are never buffered by proxies
//   - CORS-exposed response headers clients need to read
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultExposeHeaders are the response headers browser clients may read.
var DefaultExposeHeaders = []string{
	requestIDHeader,
	"ETag",
	HeaderIdempotencyReplayed,
	"Retry-After",
}

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security for HTTPS requests. Enable
	// only when traffic is HTTPS end to end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration
	// NoStore sets Cache-Control: no-store on writes and
	// "private, no-cache" on reads.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ExposeHeaders overrides DefaultExposeHeaders when non-empty.
	ExposeHeaders []string
}

// SecurityHeaders returns the hardening middleware.
//
// Always: X-Content-Type-Options: nosniff, X-Frame-Options: DENY,
// Referrer-Policy: no-referrer, Access-Control-Expose-Headers.
// Stream routes (…/stream) additionally get Cache-Control: no-cache and
// X-Accel-Buffering: no.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"
	expose := opt.ExposeHeaders
	if len(expose) == 0 {
		expose = DefaultExposeHeaders
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		switch {
		case IsStreamRoute(c.FullPath()):
			h.Set("Cache-Control", "no-cache")
			h.Set("X-Accel-Buffering", "no")
		case opt.NoStore && isSafeMethod(c.Request.Method):
			h.Set("Cache-Control", "private, no-cache")
		case opt.NoStore:
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		h.Set("Access-Control-Expose-Headers", mergeHeaderList(h.Get("Access-Control-Expose-Headers"), expose))

		c.Next()
	}
}

// mergeHeaderList appends names to a comma-separated header value, skipping
// names already present (case-insensitive).
func mergeHeaderList(cur string, names []string) string {
	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" && !seen[strings.ToLower(p)] {
			seen[strings.ToLower(p)] = true
			out = append(out, p)
		}
	}
	for _, n := range names {
		if !seen[strings.ToLower(n)] {
			seen[strings.ToLower(n)] = true
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// isHTTPS reports whether the request used TLS directly or via a proxy that
// set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
