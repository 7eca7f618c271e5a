package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spacesedan/postsentiment/config"
	"github.com/spacesedan/postsentiment/internal/clients"
	"github.com/spacesedan/postsentiment/internal/logging"
	"github.com/spacesedan/postsentiment/internal/processing"
	"github.com/spacesedan/postsentiment/internal/producer"
	"github.com/spacesedan/postsentiment/internal/utils"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	if err := cfg.RequireReddit(); err != nil {
		slog.Error("Missing Reddit credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.Reddit.RequestTimeout}
	session := clients.NewSessionManager(cfg.Reddit, httpClient)
	token, err := session.Authenticate(ctx)
	if err != nil {
		var authErr *clients.AuthError
		if errors.As(err, &authErr) {
			slog.Error("Reddit authentication failed",
				slog.Int("status", authErr.Status),
				slog.String("error", err.Error()))
		} else {
			slog.Error("Reddit authentication failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}

	reddit := clients.NewRedditClient(cfg.Reddit.APIURL,
		session.Client(ctx, token),
		clients.NewLimiter(cfg.Reddit.RequestsPerSecond))

	opts := []producer.CollectorOption{
		producer.WithFilter(processing.FilterOptions{
			MinLength:  cfg.Filter.MinLength,
			MaxRecords: cfg.Filter.MaxRecords,
		}),
	}
	if cfg.Valkey.InitAddress != "" {
		vc, err := clients.NewValkeyClient(ctx, cfg.Valkey)
		if err != nil {
			slog.Warn("Valkey unavailable, collecting without seen cache",
				slog.String("error", err.Error()))
		} else {
			defer vc.Close()
			opts = append(opts, producer.WithSeenStore(vc))
		}
	}
	collector := producer.NewCollector(reddit, opts...)

	sources, err := loadSources(cfg)
	if err != nil {
		slog.Error("Failed to read sources", slog.String("error", err.Error()))
		os.Exit(1)
	}
	terms := utils.UniqueSources(cfg.SearchTerms)

	path := collector.OutputPath(filepath.Join(cfg.DataDir, cfg.CollectionFile))

	report, err := collector.CollectSources(ctx, sources, path)
	if err != nil {
		slog.Error("Collection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logReport("subreddits", report)

	report, err = collector.CollectSearch(ctx, terms, path)
	if err != nil {
		slog.Error("Search collection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logReport("search", report)
}

// loadSources reads the source list from SOURCES_FILE when set, falling back
// to the SOURCES variable.
func loadSources(cfg *config.Config) ([]string, error) {
	if cfg.SourcesFile == "" {
		return utils.UniqueSources(cfg.Sources), nil
	}
	data, err := os.ReadFile(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	return utils.UniqueSources(string(data)), nil
}

func logReport(kind string, r producer.Report) {
	slog.Info("Collection pass finished",
		slog.String("kind", kind),
		slog.String("path", r.Path),
		slog.Int("attempted", r.Attempted),
		slog.Int("failed", len(r.Failed)),
		slog.Int("posts", r.Posts),
		slog.Int("skipped", r.Skipped))
}
