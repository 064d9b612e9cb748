package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-movies-backend/internal/broadcast"
	"github.com/tbourn/go-movies-backend/internal/config"
	"github.com/tbourn/go-movies-backend/internal/domain"
	httpapi "github.com/tbourn/go-movies-backend/internal/http"
	"github.com/tbourn/go-movies-backend/internal/observability"
	"github.com/tbourn/go-movies-backend/internal/remote"
	"github.com/tbourn/go-movies-backend/internal/repo"
	"github.com/tbourn/go-movies-backend/internal/retry"
	"github.com/tbourn/go-movies-backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Run the HTTP server (default)",
		UsageText:   "moviesvc serve",
		Description: "Migrates the schema, then serves the API until SIGINT or SIGTERM.",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServe(ctx, f.Config, f.Logger)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	gin.SetMode(cfg.GinMode)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Live streams, optionally shared across replicas through Redis
	infoHub := broadcast.NewHub[domain.MovieInfo]("movieinfos", cfg.Stream.Buffer, logger)
	reviewHub := broadcast.NewHub[domain.Review]("reviews", cfg.Stream.Buffer, logger)
	var (
		infoPub   broadcast.Publisher[domain.MovieInfo] = infoHub
		reviewPub broadcast.Publisher[domain.Review]    = reviewHub
	)
	if rdb := dialRedis(ctx, cfg.Stream.RedisAddr, logger); rdb != nil {
		defer rdb.Close()
		infoRelay := broadcast.NewRedisRelay(rdb, cfg.Stream.ChannelPrefix+":movieinfos", infoHub, logger)
		reviewRelay := broadcast.NewRedisRelay(rdb, cfg.Stream.ChannelPrefix+":reviews", reviewHub, logger)
		infoPub, reviewPub = infoRelay, reviewRelay
		g.Go(func() error { return infoRelay.Run(gctx) })
		g.Go(func() error { return reviewRelay.Run(gctx) })
	}

	infoSvc := services.NewMovieInfoService(repo.NewMovieInfoStore(db), infoPub)
	infoSvc.IdempotencyTTL = cfg.IdempotencyTTL
	reviewSvc := services.NewReviewService(repo.NewReviewStore(db), reviewPub)
	reviewSvc.IdempotencyTTL = cfg.IdempotencyTTL

	movieSvc, err := newMovieService(cfg.Remote, logger)
	if err != nil {
		return err
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:              db,
		MovieInfos:      infoSvc,
		Reviews:         reviewSvc,
		Movies:          movieSvc,
		MovieInfoStream: infoHub,
		ReviewStream:    reviewHub,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Str("version", build()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	if cfg.IdempotencyPurge > 0 {
		g.Go(func() error {
			return purgeIdempotency(gctx, db, cfg.IdempotencyPurge, logger)
		})
	}

	return g.Wait()
}

// newMovieService builds the composite movie service over the two remote
// backends.
func newMovieService(rc config.RemoteConfig, logger zerolog.Logger) (*services.MovieService, error) {
	rp := &retry.Config{MaxRetries: rc.MaxRetries, Delay: rc.RetryDelay}

	infos, err := remote.NewMovieInfoClient(remote.Options{
		BaseURL: rc.MovieInfoURL,
		Timeout: rc.Timeout,
		Retry:   rp,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("movie info client: %w", err)
	}
	reviews, err := remote.NewReviewsClient(remote.Options{
		BaseURL: rc.ReviewsURL,
		Timeout: rc.Timeout,
		Retry:   rp,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("reviews client: %w", err)
	}
	return services.NewMovieService(infos, reviews), nil
}

// dialRedis returns nil when addr is empty or Redis does not answer; streams
// then stay local to this process.
func dialRedis(ctx context.Context, addr string, logger zerolog.Logger) *goredis.Client {
	if addr == "" {
		return nil
	}
	rdb, err := broadcast.NewRedisClient(ctx, addr)
	if err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("redis unavailable; streams are process-local")
		return nil
	}
	return rdb
}

// purgeIdempotency deletes expired idempotency keys every interval until ctx
// is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration, logger zerolog.Logger) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
