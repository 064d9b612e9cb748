// Package services – MovieService
//
// MovieService assembles the composite Movie view from two backends: the
// movie info is fetched first, then the reviews keyed by the movie info's own
// id. A failure in either step is returned unchanged.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/domain"
)

// errNoMovieInfoID rejects a fetched movie info that cannot key a review
// lookup; an empty key would select every review.
var errNoMovieInfoID = errors.New("fetched movie info has no id")

// MovieInfoFetcher reads one movie info by id.
type MovieInfoFetcher interface {
	RetrieveMovieInfo(ctx context.Context, id string) (*domain.MovieInfo, error)
}

// ReviewFetcher reads the reviews of one movie info.
type ReviewFetcher interface {
	RetrieveReviews(ctx context.Context, movieInfoID string) ([]domain.Review, error)
}

// MovieService joins a movie info with its reviews.
type MovieService struct {
	Infos   MovieInfoFetcher
	Reviews ReviewFetcher
}

// NewMovieService constructs a MovieService.
func NewMovieService(infos MovieInfoFetcher, reviews ReviewFetcher) *MovieService {
	return &MovieService{Infos: infos, Reviews: reviews}
}

// Composite returns the movie info with id together with all of its reviews.
// Each backend is called at most once; the review fetch is skipped when the
// movie info fetch fails.
func (s *MovieService) Composite(ctx context.Context, id string) (*domain.Movie, error) {
	ctx, span := otel.Tracer("services/MovieService").Start(ctx, "Composite",
		trace.WithAttributes(attribute.String("movie_info.id", id)),
	)
	defer span.End()

	info, err := s.Infos.RetrieveMovieInfo(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if info == nil || info.ID == "" {
		err := &apperrors.DecodeError{Err: errNoMovieInfoID}
		span.RecordError(err)
		return nil, err
	}

	reviews, err := s.Reviews.RetrieveReviews(ctx, info.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	mv := domain.NewMovie(*info, reviews)
	span.SetAttributes(attribute.Int("reviews.count", len(mv.ReviewList)))
	return &mv, nil
}
