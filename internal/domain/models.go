// Package domain defines the persistence models for movie information and
// reviews, plus the composite Movie view assembled on read. The persisted
// types are mapped with GORM and form the core data layer of the service.
package domain

import (
	"time"
)

// MovieInfo is the primary catalogue entry for a movie.
//
// Fields:
//   - ID: store-assigned UUID; empty until first save, immutable afterwards.
//   - Name: display name (must not be blank).
//   - Year: release year (must be > 0).
//   - Cast: ordered list of cast members, stored as a JSON column.
//   - ReleaseDate: optional calendar date.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM, not exposed in JSON.
type MovieInfo struct {
	ID          string    `json:"movieInfoId"           gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name"                  gorm:"type:varchar(255);not null;index:idx_movie_infos_name"  validate:"notblank" vmsg:"Movie info name must be present"`
	Year        int       `json:"year"                  gorm:"not null;index:idx_movie_infos_year"                    validate:"gt=0"     vmsg:"Year must be greater than 0"`
	Cast        []string  `json:"cast"                  gorm:"type:text;serializer:json"                              validate:"dive,notblank" vmsg:"Movie cast must be present"`
	ReleaseDate *Date     `json:"releaseDate,omitempty" gorm:"type:date"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName returns the database table name for MovieInfo.
func (MovieInfo) TableName() string { return "movie_infos" }

// GetID returns the primary key.
func (m *MovieInfo) GetID() string { return m.ID }

// SetID assigns the primary key.
func (m *MovieInfo) SetID(id string) { m.ID = id }

// Review is a user review attached to a movie info by MovieInfoID.
//
// MovieInfoID holds the string id of the reviewed MovieInfo. Referential
// integrity is not enforced by the store; the field is only required to be
// present at validation time.
type Review struct {
	ID          string    `json:"reviewId"    gorm:"type:char(36);primaryKey"`
	MovieInfoID string    `json:"movieInfoId" gorm:"type:char(36);not null;index:idx_reviews_movie_info" validate:"required" vmsg:"movieInfoId : must not be null"`
	Comment     string    `json:"comment"     gorm:"type:text"`
	Rating      float64   `json:"rating"      gorm:"not null;default:0"                                  validate:"gte=0"    vmsg:"rating.negative : please pass a non-negative value"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// GetID returns the primary key.
func (r *Review) GetID() string { return r.ID }

// SetID assigns the primary key.
func (r *Review) SetID(id string) { r.ID = id }

// Movie is the composite read model: one MovieInfo with every Review whose
// MovieInfoID matches it. It is built per request and never stored.
type Movie struct {
	MovieInfo  MovieInfo `json:"movieInfo"`
	ReviewList []Review  `json:"reviewList"`
}

// NewMovie joins info with reviews. A nil review slice is normalized to an
// empty one so the JSON form is always an array.
func NewMovie(info MovieInfo, reviews []Review) Movie {
	if reviews == nil {
		reviews = []Review{}
	}
	return Movie{MovieInfo: info, ReviewList: reviews}
}
