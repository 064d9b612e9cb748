// Package repo implements the data persistence layer for domain entities,
// backed by GORM.
//
// Store is a small generic document store: it persists whole entities by
// string id and offers only the capabilities the service layer consumes
// (save, find by id, find all, find by predicate, delete). It holds no
// business rules. Entity-specific predicates live in the *_repo.go files as
// thin wrappers around FindWhere.
//
// Error semantics:
//   - FindByID returns ErrNotFound when no row has the id.
//   - DeleteByID on an absent id is not an error.
//   - Any other DB failure is propagated unchanged.
package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Record is the constraint for entities kept in a Store: a pointer to a
// GORM model that exposes its string primary key.
type Record[T any] interface {
	*T
	GetID() string
	SetID(string)
}

// Store persists values of T. P is inferred from T, so callers write
// NewStore[domain.MovieInfo](db).
type Store[T any, P Record[T]] struct {
	db *gorm.DB
}

// NewStore returns a Store over db.
func NewStore[T any, P Record[T]](db *gorm.DB) *Store[T, P] {
	return &Store[T, P]{db: db}
}

// DB exposes the underlying handle for aggregate queries.
func (s *Store[T, P]) DB() *gorm.DB { return s.db }

// Save inserts v when it has no id yet, assigning a fresh UUID, and
// otherwise overwrites the stored row with the same id. The id of a saved
// entity is never rewritten.
func (s *Store[T, P]) Save(ctx context.Context, v *T) (*T, error) {
	p := P(v)
	if strings.TrimSpace(p.GetID()) == "" {
		p.SetID(uuid.NewString())
		if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
			p.SetID("")
			return nil, err
		}
		return v, nil
	}
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// SaveAll saves every value in one transaction.
func (s *Store[T, P]) SaveAll(ctx context.Context, vs []*T) ([]*T, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &Store[T, P]{db: tx}
		for _, v := range vs {
			if _, err := inner.Save(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// FindByID returns the entity with id or ErrNotFound.
func (s *Store[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	var out T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAll returns every entity, oldest first.
func (s *Store[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return s.find(s.db.WithContext(ctx))
}

// FindWhere returns every entity matching the GORM condition, oldest first.
func (s *Store[T, P]) FindWhere(ctx context.Context, query any, args ...any) ([]T, error) {
	return s.find(s.db.WithContext(ctx).Where(query, args...))
}

func (s *Store[T, P]) find(q *gorm.DB) ([]T, error) {
	out := make([]T, 0)
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored entities.
func (s *Store[T, P]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

// DeleteByID removes the entity with id. It reports whether a row was
// removed; an absent id is not an error.
func (s *Store[T, P]) DeleteByID(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAll removes every entity.
func (s *Store[T, P]) DeleteAll(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T)).Error
}
