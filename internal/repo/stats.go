// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) on list endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movies-backend/internal/domain"
)

// MovieInfosStats returns the number of movie infos and the greatest
// UpdatedAt among them. With no rows, count is 0 and maxUpdatedAt is nil.
func MovieInfosStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.MovieInfo{}))
}

// ReviewsStats is MovieInfosStats for reviews, optionally scoped to one
// movie info when movieInfoID is non-empty.
func ReviewsStats(ctx context.Context, db *gorm.DB, movieInfoID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Review{})
	if movieInfoID != "" {
		q = q.Where("movie_info_id = ?", movieInfoID)
	}
	return tableStats(q)
}

func tableStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
