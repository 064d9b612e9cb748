// Package services – ReviewService
//
// ReviewService owns the lifecycle of reviews. It has the same contract as
// MovieInfoService; reviews are filtered by the movie info they belong to.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-movies-backend/internal/broadcast"
	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/repo"
)

const reviewScope = "reviews"

// ReviewFilter selects reviews. An empty MovieInfoID lists every review.
type ReviewFilter struct {
	MovieInfoID string
}

// ReviewService provides CRUD over reviews.
type ReviewService struct {
	Store *repo.ReviewStore
	Hub   broadcast.Publisher[domain.Review]

	IdempotencyTTL time.Duration
}

// NewReviewService constructs a ReviewService with a 24h key TTL.
func NewReviewService(store *repo.ReviewStore, hub broadcast.Publisher[domain.Review]) *ReviewService {
	return &ReviewService{Store: store, Hub: hub, IdempotencyTTL: 24 * time.Hour}
}

// Create validates in, stores it and publishes the stored value.
func (s *ReviewService) Create(ctx context.Context, in domain.Review) (*domain.Review, error) {
	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("review.movie_info_id", in.MovieInfoID)),
	)
	defer span.End()

	r, err := prepareReview(in)
	if err != nil {
		return nil, err
	}
	saved, err := s.Store.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	s.publish(*saved)
	return saved, nil
}

// CreateIdempotent is Create guarded by a client key; see
// MovieInfoService.CreateIdempotent.
func (s *ReviewService) CreateIdempotent(ctx context.Context, key string, in domain.Review) (*domain.Review, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		r, err := s.Create(ctx, in)
		return r, false, err
	}

	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "CreateIdempotent",
		trace.WithAttributes(attribute.String("idempotency.key", key)),
	)
	defer span.End()

	db := s.Store.DB()
	if rec, err := repo.GetIdempotency(ctx, db, reviewScope, key, time.Now().UTC()); err == nil {
		r, err := s.FindOne(ctx, rec.EntityID)
		return r, err == nil, err
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	r, err := prepareReview(in)
	if err != nil {
		return nil, false, err
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.NewReviewStore(tx).Save(ctx, r); err != nil {
			return err
		}
		_, err := repo.CreateIdempotency(ctx, tx, reviewScope, key, r.ID, 201, ttl)
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		rec, gerr := repo.GetIdempotency(ctx, db, reviewScope, key, time.Now().UTC())
		if gerr != nil {
			return nil, false, gerr
		}
		out, ferr := s.FindOne(ctx, rec.EntityID)
		return out, ferr == nil, ferr
	}
	if err != nil {
		return nil, false, err
	}
	s.publish(*r)
	return r, false, nil
}

// Update overlays MovieInfoID, Comment and Rating onto the stored review.
// The review id is never taken from in.
func (s *ReviewService) Update(ctx context.Context, id string, in domain.Review) (*domain.Review, error) {
	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("review.id", id)),
	)
	defer span.End()

	existing, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ReviewNotFoundPrefix, id)
	}
	next, err := prepareReview(in)
	if err != nil {
		return nil, err
	}
	existing.MovieInfoID = next.MovieInfoID
	existing.Comment = next.Comment
	existing.Rating = next.Rating

	return s.Store.Save(ctx, existing)
}

// Delete removes the review with id. Deleting an absent id succeeds.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("review.id", id)),
	)
	defer span.End()

	_, err := s.Store.DeleteByID(ctx, id)
	return err
}

// FindOne returns the review with id or a NotFoundError.
func (s *ReviewService) FindOne(ctx context.Context, id string) (*domain.Review, error) {
	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "FindOne",
		trace.WithAttributes(attribute.String("review.id", id)),
	)
	defer span.End()

	r, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ReviewNotFoundPrefix, id)
	}
	return r, nil
}

// FindAll lists reviews, optionally only those of one movie info.
func (s *ReviewService) FindAll(ctx context.Context, f ReviewFilter) ([]domain.Review, error) {
	ctx, span := otel.Tracer("services/ReviewService").Start(ctx, "FindAll",
		trace.WithAttributes(attribute.String("filter.movie_info_id", f.MovieInfoID)),
	)
	defer span.End()

	if f.MovieInfoID != "" {
		return repo.ReviewsByMovieInfoID(ctx, s.Store, f.MovieInfoID)
	}
	return s.Store.FindAll(ctx)
}

func (s *ReviewService) publish(r domain.Review) {
	if s.Hub != nil {
		s.Hub.Publish(r)
	}
}

func prepareReview(in domain.Review) (*domain.Review, error) {
	r := &domain.Review{
		MovieInfoID: in.MovieInfoID,
		Comment:     in.Comment,
		Rating:      in.Rating,
	}
	if err := validateEntity(r); err != nil {
		return nil, err
	}
	return r, nil
}
