// Package handlers defines the error codes of the JSON error envelope.
//
// Failures raised by services and remote clients carry their code through
// apperrors.Map; the codes below cover what the transport itself rejects.
// Clients branch on the code, never on the message.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "MovieInfo not found for the given MovieInfo id : abc"
//	}
package handlers

import "github.com/tbourn/go-movies-backend/internal/apperrors"

const (
	ErrCodeValidation = apperrors.CodeValidation
	ErrCodeNotFound   = apperrors.CodeNotFound
	ErrCodeInternal   = apperrors.CodeInternal

	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeUnavailable      = "unavailable"
)
