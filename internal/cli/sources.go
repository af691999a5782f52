package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/config"
	"quiz-calibration/internal/infra/csvfile"
	pgloader "quiz-calibration/internal/infra/postgres"
	redissource "quiz-calibration/internal/infra/redis"
)

// buildSource composes the configured submission sources (CSV files,
// Postgres, Redis) into one. The cleanup function closes any connections.
func buildSource(ctx context.Context, cfg config.Config) (app.SubmissionSource, *goredis.Client, func(), error) {
	var sources app.MultiSource
	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if len(cfg.Input.CSV) > 0 {
		sources = append(sources, csvfile.NewSubmissionSource(cfg.Input.CSV...))
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		sources = append(sources, pgloader.NewSubmissionLoader(pool))
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		sources = append(sources, redissource.NewSubmissionSource(redisClient, cfg.Redis.KeyPrefix))
	}

	if len(sources) == 0 {
		cleanup()
		return nil, nil, nil, fmt.Errorf("no submission sources configured")
	}
	return sources, redisClient, cleanup, nil
}

func analysisParams(cfg config.Config) app.Params {
	return app.Params{
		Bins:                cfg.Analysis.Bins,
		Options:             cfg.Analysis.Options,
		ReferenceSampleSize: cfg.Analysis.ReferenceSampleSize,
		GuesserRuns:         cfg.Analysis.GuesserRuns,
		Seed:                cfg.Analysis.Seed,
	}
}
