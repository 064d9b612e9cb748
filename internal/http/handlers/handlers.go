// Package handlers provides the HTTP handlers of the public API.
//
// Handlers are transport-thin: they decode input, call an application
// service and translate the result (or failure) into an HTTP response.
package handlers

import (
	"context"

	"github.com/tbourn/go-movies-backend/internal/broadcast"
	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// MovieInfoService is the movie info lifecycle consumed by the handlers.
type MovieInfoService interface {
	Create(ctx context.Context, in domain.MovieInfo) (*domain.MovieInfo, error)
	// CreateIdempotent reports replayed=true when key was already used.
	CreateIdempotent(ctx context.Context, key string, in domain.MovieInfo) (*domain.MovieInfo, bool, error)
	Update(ctx context.Context, id string, in domain.MovieInfo) (*domain.MovieInfo, error)
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, id string) (*domain.MovieInfo, error)
	FindAll(ctx context.Context, f services.MovieInfoFilter) ([]domain.MovieInfo, error)
}

// ReviewService is the review lifecycle consumed by the handlers.
type ReviewService interface {
	Create(ctx context.Context, in domain.Review) (*domain.Review, error)
	CreateIdempotent(ctx context.Context, key string, in domain.Review) (*domain.Review, bool, error)
	Update(ctx context.Context, id string, in domain.Review) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, id string) (*domain.Review, error)
	FindAll(ctx context.Context, f services.ReviewFilter) ([]domain.Review, error)
}

// MovieService builds the composite movie view.
type MovieService interface {
	Composite(ctx context.Context, id string) (*domain.Movie, error)
}

// Subscriber hands out live subscriptions; *broadcast.Hub satisfies it.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) *broadcast.Subscription[T]
}

//
// Handler wiring
//

// Handlers groups the movie info, review, movie and stream endpoints.
type Handlers struct {
	infoSvc   MovieInfoService
	reviewSvc ReviewService
	movieSvc  MovieService

	infoStream   Subscriber[domain.MovieInfo]
	reviewStream Subscriber[domain.Review]
}

// Deps carries everything New needs. Stream subscribers may be nil, in which
// case the stream endpoints answer 503.
type Deps struct {
	MovieInfos MovieInfoService
	Reviews    ReviewService
	Movies     MovieService

	MovieInfoStream Subscriber[domain.MovieInfo]
	ReviewStream    Subscriber[domain.Review]
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		infoSvc:      d.MovieInfos,
		reviewSvc:    d.Reviews,
		movieSvc:     d.Movies,
		infoStream:   d.MovieInfoStream,
		reviewStream: d.ReviewStream,
	}
}
