// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, an access logger that scrubs obvious
// PII (emails, phone numbers) from query strings and header values and masks
// credential headers. Bodies are never logged. Entity ids are UUIDs that
// operators need for debugging, so UUID scrubbing is opt-in.
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	    SkipPaths:   []string{"/health", "/metrics"},
//	}))
//
// Like Logger, it stores a request-scoped logger for LoggerFrom.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-movies-backend/internal/sysutil"
)

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// digits only, so hex segments of a UUID never match
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are fully replaced with "[REDACTED]" in addition to
	// Authorization, Proxy-Authorization, Cookie and Set-Cookie.
	MaskHeaders []string
	// RedactIDs also scrubs UUIDs.
	RedactIDs bool
	// SkipPaths are served without an access log line (exact route match).
	SkipPaths []string
}

type redactor struct {
	ids  bool
	mask map[string]struct{}
}

// foldName case-folds a header name. A Caser is stateful, so each call gets
// its own.
func foldName(h string) string {
	return cases.Fold().String(strings.TrimSpace(h))
}

func newRedactor(opts RedactOptions) redactor {
	mask := map[string]struct{}{
		"authorization":       {},
		"proxy-authorization": {},
		"cookie":              {},
		"set-cookie":          {},
	}
	for _, h := range opts.MaskHeaders {
		if h = foldName(h); h != "" {
			mask[h] = struct{}{}
		}
	}
	return redactor{ids: opts.RedactIDs, mask: mask}
}

// scrub redacts ids before phones so the looser phone pattern cannot eat
// UUID digit runs.
func (r redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	if r.ids {
		s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r redactor) headers(in map[string][]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, vv := range in {
		if _, ok := r.mask[foldName(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.scrub(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger logs one scrubbed line per request: info for < 400, warn
// for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID := sysutil.FirstNonEmpty(RequestIDFrom(c), c.GetHeader(requestIDHeader))

		l := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		safeQuery := rd.scrub(c.Request.URL.RawQuery)
		safeHeaders := rd.headers(c.Request.Header)

		c.Next()

		if _, ok := skip[path]; ok {
			return
		}

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}

		msg := "http_request"
		if IsStreamRoute(path) {
			msg = "http_stream_closed"
		}
		ev.
			Str("query", truncate(safeQuery, maxQueryLogLength)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Bool("replay", IsReplay(c)).
			Interface("headers", safeHeaders).
			Msg(msg)
	}
}
