// Package httpapi wires the HTTP transport (Gin) to the movie services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, idempotency and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-movies-backend/docs"
	"github.com/tbourn/go-movies-backend/internal/config"
	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/http/handlers"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
	"github.com/tbourn/go-movies-backend/internal/repo"
)

// Deps are the collaborators RegisterRoutes mounts. DB backs the idempotency
// lookup and may be nil, in which case replays are still detected by the
// services but do not bypass the rate limiter. Nil streams answer 503.
type Deps struct {
	DB *gorm.DB

	MovieInfos handlers.MovieInfoService
	Reviews    handlers.ReviewService
	Movies     handlers.MovieService

	MovieInfoStream handlers.Subscriber[domain.MovieInfo]
	ReviewStream    handlers.Subscriber[domain.Review]
}

var corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

var corsAllowHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	"If-None-Match", middleware.HeaderClientID, middleware.HeaderIdempotencyKey,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r and mounts
// the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Access log (redacting unless LOG_REDACT=false)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, security headers, gzip (streams excluded)
//
// Per route, create endpoints run the idempotency validator before the rate
// limiter so a replayed create is never throttled.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
			SkipPaths:   []string{"/health", "/metrics"},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// NDJSON streams must reach the client record by record
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/stream$`})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		MovieInfos:      d.MovieInfos,
		Reviews:         d.Reviews,
		Movies:          d.Movies,
		MovieInfoStream: d.MovieInfoStream,
		ReviewStream:    d.ReviewStream,
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP())
	limit := rl.Handler()
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(d.DB))

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Movie infos
		api.POST("/movieinfos", idem, limit, h.CreateMovieInfo)
		api.GET("/movieinfos", limit, h.ListMovieInfos)
		api.GET("/movieinfos/stream", limit, h.StreamMovieInfos)
		api.GET("/movieinfos/:id", limit, h.GetMovieInfo)
		api.PUT("/movieinfos/:id", limit, h.UpdateMovieInfo)
		api.DELETE("/movieinfos/:id", limit, h.DeleteMovieInfo)

		// Reviews
		api.POST("/reviews", idem, limit, h.CreateReview)
		api.GET("/reviews", limit, h.ListReviews)
		api.GET("/reviews/stream", limit, h.StreamReviews)
		api.GET("/reviews/:id", limit, h.GetReview)
		api.PUT("/reviews/:id", limit, h.UpdateReview)
		api.DELETE("/reviews/:id", limit, h.DeleteReview)

		// Composite movies
		api.GET("/movies/:id", limit, h.GetMovie)
	}
}

// idempotencyLookup reports live keys from the idempotency table.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, scope, key, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
}

// corsMiddleware returns the CORS chain. With no allowlist every origin is
// accepted without credentials; otherwise allowed origins are echoed back.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	expose := append([]string{"Content-Length"}, middleware.DefaultExposeHeaders...)

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// ACAO: * even for requests without an Origin header
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsAllowHeaders,
				ExposeHeaders:    expose,
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body at maxBytes; reads past the cap fail with
// *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
