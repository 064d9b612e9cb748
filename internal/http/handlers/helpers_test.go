package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-movies-backend/internal/broadcast"
	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
	"github.com/tbourn/go-movies-backend/internal/repo"
	"github.com/tbourn/go-movies-backend/internal/services"
)

// ---------- test DB + wiring ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubMovies is a canned MovieService.
type stubMovies struct {
	movie *domain.Movie
	err   error
	gotID string
}

func (s *stubMovies) Composite(_ context.Context, id string) (*domain.Movie, error) {
	s.gotID = id
	return s.movie, s.err
}

type testEnv struct {
	r         *gin.Engine
	db        *gorm.DB
	infoHub   *broadcast.Hub[domain.MovieInfo]
	reviewHub *broadcast.Hub[domain.Review]
	movies    *stubMovies
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	env := &testEnv{
		db:        db,
		infoHub:   broadcast.NewHub[domain.MovieInfo]("movieinfos", 8, zerolog.Nop()),
		reviewHub: broadcast.NewHub[domain.Review]("reviews", 8, zerolog.Nop()),
		movies:    &stubMovies{},
	}
	h := New(Deps{
		MovieInfos:      services.NewMovieInfoService(repo.NewMovieInfoStore(db), env.infoHub),
		Reviews:         services.NewReviewService(repo.NewReviewStore(db), env.reviewHub),
		Movies:          env.movies,
		MovieInfoStream: env.infoHub,
		ReviewStream:    env.reviewHub,
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 4<<10)
		c.Next()
	})
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil)
	v1 := r.Group("/v1")
	v1.POST("/movieinfos", idem, h.CreateMovieInfo)
	v1.GET("/movieinfos", h.ListMovieInfos)
	v1.GET("/movieinfos/stream", h.StreamMovieInfos)
	v1.GET("/movieinfos/:id", h.GetMovieInfo)
	v1.PUT("/movieinfos/:id", h.UpdateMovieInfo)
	v1.DELETE("/movieinfos/:id", h.DeleteMovieInfo)
	v1.POST("/reviews", idem, h.CreateReview)
	v1.GET("/reviews", h.ListReviews)
	v1.GET("/reviews/stream", h.StreamReviews)
	v1.GET("/reviews/:id", h.GetReview)
	v1.PUT("/reviews/:id", h.UpdateReview)
	v1.DELETE("/reviews/:id", h.DeleteReview)
	v1.GET("/movies/:id", h.GetMovie)
	env.r = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func batmanBegins() map[string]any {
	return map[string]any{
		"name":        "BatmanBegins",
		"year":        2005,
		"cast":        []string{"Christian Bale", "Michael Cane"},
		"releaseDate": "2005-06-15",
	}
}

func (e *testEnv) createMovieInfo(t *testing.T, body map[string]any) domain.MovieInfo {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/movieinfos", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create movie info: %d %s", w.Code, w.Body.String())
	}
	return decode[domain.MovieInfo](t, w)
}
