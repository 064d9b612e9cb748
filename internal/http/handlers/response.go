// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint:
//
//   - fail() writes the ErrorResponse envelope and logs 5xx.
//   - failErr() classifies an error with apperrors.Map and calls fail(); it is
//     the only place a failure becomes user-visible text.
//   - ok() and noContent() write success responses.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_error",
//	  "message": "Movie info name must be present, Year must be greater than 0"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"MovieInfo not found for the given MovieInfo id : abc"`
}

// fail aborts the request with the error envelope. 5xx are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err to its status, code and message and writes the envelope.
func failErr(c *gin.Context, err error) {
	m := apperrors.Map(err)
	if m.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, m.Status, m.Code, m.Message)
}

// ok writes body as JSON with status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes 204 No Content.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
