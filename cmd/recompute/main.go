// Package main is the entry point for the batch recompute CLI. It runs one
// ranking recompute cycle and/or one leaderboard refresh and exits, for use
// from cron or an operator shell alongside the in-process schedulers.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/mimyapp/tasteranker/internal/config"
	"github.com/mimyapp/tasteranker/internal/leaderboard"
	"github.com/mimyapp/tasteranker/internal/middleware"
	"github.com/mimyapp/tasteranker/internal/ranking"
	"github.com/mimyapp/tasteranker/internal/visit"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	job := flag.String("job", "all", "job to run: ranking, leaderboard, or all")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("TasteRanker Batch Recompute")
		fmt.Println()
		fmt.Println("Usage: recompute [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *job != "ranking" && *job != "leaderboard" && *job != "all" {
		fmt.Fprintf(os.Stderr, "unknown job %q\n", *job)
		os.Exit(2)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	exitCode := 0

	if *job == "ranking" || *job == "all" {
		if err := runRanking(ctx, db, cfg, logger); err != nil {
			logger.Error("ranking recompute failed", "error", err)
			exitCode = 1
		}
	}

	if *job == "leaderboard" || *job == "all" {
		if err := runLeaderboard(ctx, db, logger); err != nil {
			logger.Error("leaderboard refresh failed", "error", err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

// runRanking executes one full ranking recompute cycle.
func runRanking(ctx context.Context, db *sql.DB, cfg *config.Config, logger *slog.Logger) error {
	policy := ranking.Policy(cfg.RankPolicy)
	if cfg.RankCalibrationFile != "" {
		cal, err := ranking.LoadCalibration(cfg.RankCalibrationFile)
		if err != nil {
			logger.Warn("calibration load failed, using configured policy", "error", err)
		} else if parsed, parseErr := ranking.ParsePolicy(cal.Policy); parseErr == nil {
			policy = parsed
		}
	}

	visits := visit.NewPostgresStore(db, logger)
	ranks := ranking.NewPostgresStore(db, logger)
	rebuilder := ranking.NewRebuilder(visits, ranks, ranking.RebuilderConfig{
		Policy: policy,
		Logger: logger,
	})
	recomputeJob := ranking.NewRecomputeJob(rebuilder, visits, ranks, ranking.RecomputeJobConfig{
		Logger: logger,
	})

	result := recomputeJob.RunOnce(ctx)
	logger.Info("ranking recompute finished",
		"run_id", result.RunID,
		"users", result.Users,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"entries_written", result.EntriesWritten,
		"duration", result.Duration)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d users failed", result.Failed, result.Users)
	}
	return nil
}

// runLeaderboard rebuilds every leaderboard listing from activity stats.
func runLeaderboard(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	aggregator := leaderboard.NewAggregator(
		leaderboard.NewPostgresStatsSource(db),
		leaderboard.NewPostgresStore(db, logger),
		nil,
		leaderboard.AggregatorConfig{Logger: logger},
	)
	return aggregator.Refresh(ctx)
}
