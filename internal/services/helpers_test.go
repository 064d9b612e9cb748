package services

import (
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-movies-backend/internal/domain"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.MovieInfo{}, &domain.Review{}, &domain.Idempotency{}}
}

type recordingPublisher[T any] struct {
	mu   sync.Mutex
	seen []T
}

func (p *recordingPublisher[T]) Publish(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, v)
}

func (p *recordingPublisher[T]) values() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.seen...)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
