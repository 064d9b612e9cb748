// Package services – MovieInfoService
//
// MovieInfoService owns the lifecycle of movie infos: it validates input,
// persists through the generic store and, after a
// successful create, publishes the stored value to the movie info stream.
//
// Observability: all public methods are OpenTelemetry-instrumented.
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

// idempotency scope for movie info creates
const movieInfoScope = "movieinfos"

// MovieInfoFilter selects a subset of movie infos. At most one dimension is
// applied: YearBefore wins over Name.
type MovieInfoFilter struct {
	// YearBefore keeps entries whose year is strictly below the value.
	YearBefore *int
	// Name keeps entries whose name matches exactly.
	Name *string
}

// MovieInfoService provides CRUD over movie infos.
type MovieInfoService struct {
	Store *repo.MovieInfoStore
	Hub   broadcast.Publisher[domain.MovieInfo]

	// IdempotencyTTL bounds how long a create key is remembered.
	IdempotencyTTL time.Duration
}

// NewMovieInfoService constructs a MovieInfoService with a 24h key TTL.
func NewMovieInfoService(store *repo.MovieInfoStore, hub broadcast.Publisher[domain.MovieInfo]) *MovieInfoService {
	return &MovieInfoService{Store: store, Hub: hub, IdempotencyTTL: 24 * time.Hour}
}

// Create validates in, stores it under a new id and publishes the stored
// value. Nothing is published when the store fails.
func (s *MovieInfoService) Create(ctx context.Context, in domain.MovieInfo) (*domain.MovieInfo, error) {
	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("movie_info.name", in.Name)),
	)
	defer span.End()

	mi, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	saved, err := s.Store.Save(ctx, mi)
	if err != nil {
		return nil, err
	}
	s.publish(*saved)
	return saved, nil
}

// CreateIdempotent is Create guarded by a client key. The first call with a
// key creates and publishes; a repeat within the TTL returns the entity
// created first with replayed=true and publishes nothing. An empty key is a
// plain Create.
func (s *MovieInfoService) CreateIdempotent(ctx context.Context, key string, in domain.MovieInfo) (*domain.MovieInfo, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		mi, err := s.Create(ctx, in)
		return mi, false, err
	}

	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "CreateIdempotent",
		trace.WithAttributes(attribute.String("idempotency.key", key)),
	)
	defer span.End()

	db := s.Store.DB()
	if rec, err := repo.GetIdempotency(ctx, db, movieInfoScope, key, time.Now().UTC()); err == nil {
		mi, err := s.replay(ctx, rec.EntityID)
		return mi, err == nil, err
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	mi, err := s.prepare(in)
	if err != nil {
		return nil, false, err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.NewMovieInfoStore(tx).Save(ctx, mi); err != nil {
			return err
		}
		_, err := repo.CreateIdempotency(ctx, tx, movieInfoScope, key, mi.ID, 201, s.ttl())
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// lost the race to a concurrent request with the same key
		rec, gerr := repo.GetIdempotency(ctx, db, movieInfoScope, key, time.Now().UTC())
		if gerr != nil {
			return nil, false, gerr
		}
		out, rerr := s.replay(ctx, rec.EntityID)
		return out, rerr == nil, rerr
	}
	if err != nil {
		return nil, false, err
	}
	s.publish(*mi)
	return mi, false, nil
}

// Update overlays every mutable field of in onto the stored entity with id.
// The id is kept; a missing id is a NotFoundError.
func (s *MovieInfoService) Update(ctx context.Context, id string, in domain.MovieInfo) (*domain.MovieInfo, error) {
	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("movie_info.id", id)),
	)
	defer span.End()

	existing, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MovieInfoNotFoundPrefix, id)
	}
	next, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	existing.Name = next.Name
	existing.Year = next.Year
	existing.Cast = next.Cast
	existing.ReleaseDate = next.ReleaseDate

	return s.Store.Save(ctx, existing)
}

// Delete removes the entity with id. Deleting an absent id succeeds.
func (s *MovieInfoService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("movie_info.id", id)),
	)
	defer span.End()

	_, err := s.Store.DeleteByID(ctx, id)
	return err
}

// FindOne returns the entity with id or a NotFoundError.
func (s *MovieInfoService) FindOne(ctx context.Context, id string) (*domain.MovieInfo, error) {
	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "FindOne",
		trace.WithAttributes(attribute.String("movie_info.id", id)),
	)
	defer span.End()

	mi, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MovieInfoNotFoundPrefix, id)
	}
	return mi, nil
}

// FindAll lists movie infos, narrowed by at most one filter dimension.
func (s *MovieInfoService) FindAll(ctx context.Context, f MovieInfoFilter) ([]domain.MovieInfo, error) {
	ctx, span := otel.Tracer("services/MovieInfoService").Start(ctx, "FindAll")
	defer span.End()

	switch {
	case f.YearBefore != nil:
		span.SetAttributes(attribute.Int("filter.year_before", *f.YearBefore))
		return repo.MovieInfosBeforeYear(ctx, s.Store, *f.YearBefore)
	case f.Name != nil:
		span.SetAttributes(attribute.String("filter.name", *f.Name))
		return repo.MovieInfosByName(ctx, s.Store, *f.Name)
	default:
		return s.Store.FindAll(ctx)
	}
}

// prepare validates in, returning a fresh entity without id.
func (s *MovieInfoService) prepare(in domain.MovieInfo) (*domain.MovieInfo, error) {
	mi := &domain.MovieInfo{
		Name:        in.Name,
		Year:        in.Year,
		Cast:        in.Cast,
		ReleaseDate: in.ReleaseDate,
	}
	if err := validateEntity(mi); err != nil {
		return nil, err
	}
	return mi, nil
}

func (s *MovieInfoService) replay(ctx context.Context, id string) (*domain.MovieInfo, error) {
	mi, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MovieInfoNotFoundPrefix, id)
	}
	return mi, nil
}

func (s *MovieInfoService) publish(mi domain.MovieInfo) {
	if s.Hub != nil {
		s.Hub.Publish(mi)
	}
}

func (s *MovieInfoService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}
