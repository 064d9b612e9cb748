// Command moviesvc serves the movies API: movie infos, reviews, their live
// NDJSON streams and the composite movie view.
//
//	@title			Movies API
//	@version		1.0
//	@description	Movie infos, reviews, live NDJSON streams and composite movies.
//	@BasePath		/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tbourn/go-movies-backend/internal/config"
	"github.com/tbourn/go-movies-backend/internal/sysutil"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}
	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

// flags is shared state filled by the root Before hook.
type flags struct {
	EnvFile string
	Config  config.Config
	Logger  zerolog.Logger
}

func main() {
	f := &flags{}

	app := &cli.Command{
		Name:      "moviesvc",
		Usage:     "Movies API server",
		UsageText: "moviesvc [global options] [command]",
		Description: `Serves movie infos and reviews from SQLite, streams new entries as
NDJSON and assembles composite movies from the movie info and reviews backends.

Run 'moviesvc' with no command to start the server.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file loaded before the environment is read",
				Sources:     cli.EnvVars("MOVIES_ENV_FILE"),
				Value:       ".env",
				Destination: &f.EnvFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := loadEnvFile(f.EnvFile); err != nil {
				return ctx, err
			}
			cfg, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			f.Config = cfg

			sysutil.SetLogLevel(cfg.LogLevel)
			f.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)
			log.Logger = f.Logger
			return ctx, nil
		},
	}

	serve := newServeCmd(f)
	app.Commands = append(app.Commands, serve, newMigrateCmd(f))
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'moviesvc --help' for usage", c.Args().First())
		}
		return serve.Action(ctx, c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("moviesvc failed")
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
