package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
)

// bindJSON decodes the request body into dst. A body over the size limit is
// 413; any other decode failure is a validation error. It reports whether
// the handler should continue.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	failErr(c, apperrors.NewValidation("request body must be a valid JSON object"))
	return false
}

// markReplayed flags a create answered from an earlier idempotent request.
func markReplayed(c *gin.Context) {
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	key, _ := middleware.GetIdempotencyKey(c)
	middleware.LoggerFrom(c).Debug().
		Str("idempotency_scope", middleware.GetIdempotencyScope(c)).
		Str("idempotency_key", key).
		Msg("idempotent create replayed")
}

// pathID returns the trimmed :id path parameter.
func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

// queryInt parses an optional integer query parameter. Absent or blank
// yields nil; anything else must parse.
func queryInt(c *gin.Context, name string) (*int, error) {
	raw, present := c.GetQuery(name)
	raw = strings.TrimSpace(raw)
	if !present || raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidation(name + " must be an integer")
	}
	return &n, nil
}

// queryString returns an optional query parameter exactly as sent; absent
// or whitespace-only is nil.
func queryString(c *gin.Context, name string) *string {
	raw, present := c.GetQuery(name)
	if !present || strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}

// statsFunc reports the row count and latest update time of a collection.
type statsFunc func(ctx context.Context) (int64, *time.Time, error)

// notModified sets a weak ETag derived from the collection stats and the
// query string, and answers 304 when If-None-Match carries it. Stats
// failures skip the ETag; the list is then served normally.
func notModified(c *gin.Context, collection string, stats statsFunc) bool {
	if stats == nil {
		return false
	}
	count, maxTS, err := stats(c.Request.Context())
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d:%x"`, collection, count, ts, xxhash.Sum64String(c.Request.URL.RawQuery))
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// etagMatches checks a possibly comma-separated If-None-Match list.
func etagMatches(header, etag string) bool {
	for _, t := range strings.Split(header, ",") {
		if t = strings.TrimSpace(t); t == "*" || t == etag {
			return true
		}
	}
	return false
}
