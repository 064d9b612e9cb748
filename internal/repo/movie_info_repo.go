package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-movies-backend/internal/domain"
)

// MovieInfoStore persists domain.MovieInfo.
type MovieInfoStore = Store[domain.MovieInfo, *domain.MovieInfo]

// NewMovieInfoStore returns a MovieInfoStore over db.
func NewMovieInfoStore(db *gorm.DB) *MovieInfoStore {
	return NewStore[domain.MovieInfo](db)
}

// MovieInfosBeforeYear returns the movie infos released strictly before year.
func MovieInfosBeforeYear(ctx context.Context, s *MovieInfoStore, year int) ([]domain.MovieInfo, error) {
	return s.FindWhere(ctx, "year < ?", year)
}

// MovieInfosByName returns the movie infos whose name equals name exactly.
func MovieInfosByName(ctx context.Context, s *MovieInfoStore, name string) ([]domain.MovieInfo, error) {
	return s.FindWhere(ctx, "name = ?", name)
}
