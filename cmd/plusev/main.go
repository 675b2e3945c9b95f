package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"plusev/internal/config"
	"plusev/internal/corpus"
	"plusev/internal/db"
	"plusev/internal/feed"
	"plusev/internal/grade"
	"plusev/internal/metrics"
	"plusev/internal/performance"
	"plusev/internal/publish"
	"plusev/internal/regrade"
	"plusev/internal/scheduler"
	"plusev/internal/store"
)

func main() {
	// Parse CLI flags.
	configPath := flag.String("config", "config.toml", "Path to the TOML config file")
	regradeMode := flag.Bool("regrade", false, "Replay grading over historical observations and exit")
	regradeFrom := flag.String("from", "", "Regrade start date (YYYY-MM-DD)")
	regradeTo := flag.String("to", "", "Regrade end date (YYYY-MM-DD)")
	regradeExport := flag.String("export", "", "Write replayed grades to this CSV file")
	flag.Parse()

	// Set up structured logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if lvl := logLevel(cfg.General.LogLevel); lvl != slog.LevelInfo {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: lvl,
		})))
	}

	slog.Info("plusev starting")

	// Initialize database.
	database, err := db.Open(cfg.General.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database initialized", "path", cfg.General.DBPath)

	st := store.New(database)
	grader, err := grade.NewGrader(cfg.Grading.Method())
	if err != nil {
		slog.Error("failed to build grader", "error", err)
		os.Exit(1)
	}

	// Regrade mode.
	if *regradeMode {
		runner := regrade.NewRunner(st, grader)
		if err := runner.Run(*regradeFrom, *regradeTo, *regradeExport); err != nil {
			slog.Error("regrade failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Live mode.
	reader := feed.NewReader(cfg.Feed.DropDir)
	loader := corpus.NewLoader(database, cfg.Corpus.DropDir)
	tracker := performance.NewTracker(database, cfg.Performance.TieCounting)
	pipeline := metrics.NewPipeline()

	var cache *corpus.Cache
	var publisher *publish.StreamPublisher
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		cache = corpus.NewCache(client, cfg.Redis.CacheTTL.Duration)
		publisher = publish.NewStreamPublisher(client, cfg.Redis.Stream, cfg.Redis.MinPublishGrade)
		slog.Info("redis configured", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", pipeline.Handler())
		server := &http.Server{
			Addr:         cfg.Metrics.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	sched := scheduler.New(
		reader, st, grader, loader, cache,
		publisher, tracker, pipeline, *cfg,
	)

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	slog.Info("plusev stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
