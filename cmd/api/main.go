// Package main is the entry point for the TasteRanker API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mimyapp/tasteranker/internal/api"
	"github.com/mimyapp/tasteranker/internal/cache"
	"github.com/mimyapp/tasteranker/internal/config"
	"github.com/mimyapp/tasteranker/internal/health"
	"github.com/mimyapp/tasteranker/internal/jobs"
	"github.com/mimyapp/tasteranker/internal/leaderboard"
	"github.com/mimyapp/tasteranker/internal/middleware"
	"github.com/mimyapp/tasteranker/internal/ranking"
	"github.com/mimyapp/tasteranker/internal/recommend"
	"github.com/mimyapp/tasteranker/internal/social"
	"github.com/mimyapp/tasteranker/internal/taste"
	"github.com/mimyapp/tasteranker/internal/visit"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("TasteRanker API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
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

	// Database.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	cancelPing()

	// Redis is optional: the cache layer degrades to direct reads when the
	// server is unreachable at boot.
	var redisClient *redis.Client
	candidate := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	if err := candidate.Ping(redisCtx).Err(); err != nil {
		logger.Warn("redis unreachable, caching disabled", "addr", cfg.RedisAddr, "error", err)
		_ = candidate.Close()
	} else {
		redisClient = candidate
		defer redisClient.Close()
	}
	cancelRedis()
	cacheStore := cache.New(redisClient, logger)

	// Stores.
	visits := visit.NewPostgresStore(db, logger)
	ranks := ranking.NewPostgresStore(db, logger)
	profiles := taste.NewPostgresStore(db, logger)
	follows := social.NewPostgresFollowStore(db, logger)
	lbStore := leaderboard.NewPostgresStore(db, logger)
	statsSource := leaderboard.NewPostgresStatsSource(db)

	// Ranking policy: a calibration file overrides the configured default.
	policy := ranking.Policy(cfg.RankPolicy)
	if cfg.RankCalibrationFile != "" {
		cal, calErr := ranking.LoadCalibration(cfg.RankCalibrationFile)
		if calErr != nil {
			logger.Warn("calibration load failed, using configured policy", "error", calErr)
		} else if parsed, parseErr := ranking.ParsePolicy(cal.Policy); parseErr == nil {
			policy = parsed
		}
	}

	// Cluster assignment tables are optional deploy artifacts.
	var clusters *taste.ClusterTable
	if cfg.ClusterMatchFile != "" && cfg.ClusterMetadataFile != "" {
		clusters, err = taste.LoadClusterTable(cfg.ClusterMatchFile, cfg.ClusterMetadataFile, logger)
		if err != nil {
			logger.Warn("cluster table unavailable, quiz results use fallback cluster", "error", err)
			clusters = nil
		}
	}

	scorer := taste.NewScorer(cfg.SimilaritySigma)
	selector := recommend.NewSelector(visits, profiles, follows, scorer, clusters, recommend.SelectorConfig{
		RecencyWindow: cfg.RecencyWindow(),
		Cache:         cacheStore,
		Logger:        logger,
	})

	// Job metrics share one registry with the default process collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	aggregator := leaderboard.NewAggregator(statsSource, lbStore, cacheStore, leaderboard.AggregatorConfig{
		TTL:        cfg.LeaderboardTTL,
		Logger:     logger,
		JobMetrics: jobMetrics,
	})

	rebuilder := ranking.NewRebuilder(visits, ranks, ranking.RebuilderConfig{
		Policy: policy,
		Logger: logger,
	})
	recomputeJob := ranking.NewRecomputeJob(rebuilder, visits, ranks, ranking.RecomputeJobConfig{
		Interval:   cfg.RecomputeInterval,
		Logger:     logger,
		JobMetrics: jobMetrics,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if err := recomputeJob.Start(jobCtx); err != nil {
		logger.Error("failed to start recompute job", "error", err)
		os.Exit(1)
	}
	defer recomputeJob.Stop()

	go runLeaderboardRefresh(jobCtx, aggregator, cfg.LeaderboardTTL, logger)

	mux := api.NewMux(api.Handlers{
		Ranking:     api.NewRankingHandlers(ranks),
		Taste:       api.NewTasteHandlers(profiles, clusters),
		Recommend:   api.NewRecommendHandlers(selector, ranks, profiles, scorer),
		Leaderboard: api.NewLeaderboardHandlers(aggregator),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:    health.NewDBChecker(db),
			RedisChecker: redisCheckerOrNil(redisClient),
		}),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Apply middleware: RequestID -> Logging.
	handler := middleware.RequestID(middleware.Logging(logger)(mux))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// runLeaderboardRefresh rebuilds the leaderboard on boot and then on the
// cache TTL cadence, so persisted listings never outlive the cache window.
func runLeaderboardRefresh(ctx context.Context, aggregator *leaderboard.Aggregator, interval time.Duration, logger *slog.Logger) {
	if err := aggregator.Refresh(ctx); err != nil {
		logger.Error("initial leaderboard refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := aggregator.Refresh(ctx); err != nil {
				logger.Error("leaderboard refresh failed", "error", err)
			}
		}
	}
}

func redisCheckerOrNil(client *redis.Client) health.Checker {
	if client == nil {
		return nil
	}
	return health.NewRedisChecker(client)
}
