// Package services defines the business logic for movie infos, reviews and
// the composite movie view. This file centralizes the messages and helpers
// used when a service reports a missing entity.
//
// Failures are returned as apperrors types; translation into HTTP status
// codes happens once, in the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/repo"
)

// Not-found message prefixes; the requested id is appended.
const (
	MovieInfoNotFoundPrefix = "MovieInfo not found for the given MovieInfo id : "
	ReviewNotFoundPrefix    = "Review not found for the given Review id : "
)

// notFoundOr turns repo.ErrNotFound into a NotFoundError for id and passes
// every other error through.
func notFoundOr(err error, prefix, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperrors.NotFound(prefix, id)
	}
	return err
}
