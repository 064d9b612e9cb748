package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-movies-backend/internal/domain"
)

// ReviewStore persists domain.Review.
type ReviewStore = Store[domain.Review, *domain.Review]

// NewReviewStore returns a ReviewStore over db.
func NewReviewStore(db *gorm.DB) *ReviewStore {
	return NewStore[domain.Review](db)
}

// ReviewsByMovieInfoID returns the reviews attached to movieInfoID in
// insertion order.
func ReviewsByMovieInfoID(ctx context.Context, s *ReviewStore, movieInfoID string) ([]domain.Review, error) {
	return s.FindWhere(ctx, "movie_info_id = ?", movieInfoID)
}
