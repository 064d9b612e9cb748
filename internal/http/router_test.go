package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-movies-backend/internal/broadcast"
	"github.com/tbourn/go-movies-backend/internal/config"
	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
	"github.com/tbourn/go-movies-backend/internal/repo"
	"github.com/tbourn/go-movies-backend/internal/services"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type noMovies struct{}

func (noMovies) Composite(context.Context, string) (*domain.Movie, error) {
	return nil, fmt.Errorf("not wired")
}

func testDeps(db *gorm.DB) Deps {
	infoHub := broadcast.NewHub[domain.MovieInfo]("movieinfos", 4, zerolog.Nop())
	reviewHub := broadcast.NewHub[domain.Review]("reviews", 4, zerolog.Nop())
	return Deps{
		DB:              db,
		MovieInfos:      services.NewMovieInfoService(repo.NewMovieInfoStore(db), infoHub),
		Reviews:         services.NewReviewService(repo.NewReviewStore(db), reviewHub),
		Movies:          noMovies{},
		MovieInfoStream: infoHub,
		ReviewStream:    reviewHub,
	}
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/v1",
		RateRPS:     100,
		RateBurst:   10,
		MaxBodySize: 1 << 20,
		LogRedact:   true,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, testDeps(db), cfg)
	return r, db
}

func serve(r http.Handler, method, path string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var batman = []byte(`{"name":"BatmanBegins","year":2005,"cast":["Christian Bale"],"releaseDate":"2005-06-15"}`)

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	w = serve(r, http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = serve(r, http.MethodGet, "/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = serve(r, http.MethodPost, "/health", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// swagger is off by default
	w = serve(r, http.MethodGet, "/swagger/index.html", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	cfg.LogRedact = false
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_MovieInfoLifecycle(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/v1/movieinfos", batman, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var mi domain.MovieInfo
	if err := json.Unmarshal(w.Body.Bytes(), &mi); err != nil || mi.ID == "" {
		t.Fatalf("decode created: %v %s", err, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/v1/movieinfos/"+mi.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/v1/movieinfos?year=2010", nil, nil)
	var list []domain.MovieInfo
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodPost, "/v1/reviews", []byte(`{"movieInfoId":"`+mi.ID+`","comment":"ok","rating":4}`), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create review = %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodDelete, "/v1/movieinfos/"+mi.ID, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = serve(r, http.MethodGet, "/v1/movieinfos/"+mi.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}
}

func TestRegisterRoutes_ReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, _ := newRouter(t, cfg)

	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-1"}

	w := serve(r, http.MethodPost, "/v1/movieinfos", batman, hdr)
	if w.Code != http.StatusCreated || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first create = %d %v", w.Code, w.Header())
	}
	first := w.Body.String()

	// bucket is empty now, but the replay is let through
	w = serve(r, http.MethodPost, "/v1/movieinfos", batman, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" || w.Body.String() != first {
		t.Fatalf("replay mismatch: %v %s", w.Header(), w.Body.String())
	}

	w = serve(r, http.MethodGet, "/v1/movieinfos", nil, nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d %v", w.Code, w.Header())
	}
}

func TestRegisterRoutes_InvalidIdempotencyKey(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/v1/reviews", []byte(`{}`), map[string]string{middleware.HeaderIdempotencyKey: "bad key!"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterRoutes_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodySize = 16
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodPost, "/v1/movieinfos", batman, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_GzipListButNotStream(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/v1/movieinfos", nil, map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip list, got %d %v", w.Code, w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, _ := io.ReadAll(zr)
	if string(bytes.TrimSpace(raw)) != "[]" {
		t.Fatalf("unexpected list body %q", raw)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/movieinfos/stream", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	if ce := resp.Header.Get("Content-Encoding"); ce != "" {
		t.Fatalf("stream must not be compressed, got %q", ce)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("stream content type = %q", ct)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/swagger/doc.json", nil, nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("/movieinfos")) {
		t.Fatalf("swagger doc = %d %s", w.Code, w.Body.String())
	}
}

func Test_idempotencyLookup(t *testing.T) {
	if idempotencyLookup(nil) != nil {
		t.Fatalf("nil db should disable the lookup")
	}

	db := newTestDB(t)
	lookup := idempotencyLookup(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if ok, err := lookup(ctx, "movieinfos", "k", now); ok || err != nil {
		t.Fatalf("miss = %v %v", ok, err)
	}
	if _, err := repo.CreateIdempotency(ctx, db, "movieinfos", "k", "mi-1", http.StatusCreated, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, err := lookup(ctx, "movieinfos", "k", now); !ok || err != nil {
		t.Fatalf("hit = %v %v", ok, err)
	}
	if ok, _ := lookup(ctx, "reviews", "k", now); ok {
		t.Fatalf("scope must isolate keys")
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()
	if ok, err := lookup(ctx, "movieinfos", "k", now); ok || err == nil {
		t.Fatalf("closed db should error, got %v %v", ok, err)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, http.MethodPost, "/echo", []byte("0123456789AB"), nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r, _ := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("expected HSTS on forwarded https")
	}
}
