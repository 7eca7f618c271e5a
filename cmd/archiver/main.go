package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/postsentiment/config"
	"github.com/spacesedan/postsentiment/internal/archive"
	"github.com/spacesedan/postsentiment/internal/clients"
	"github.com/spacesedan/postsentiment/internal/logging"
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

	if cfg.Archive.Bucket == "" {
		slog.Error("ARCHIVE_BUCKET is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aws, err := clients.LoadAWS(ctx, cfg.Archive)
	if err != nil {
		slog.Error("AWS init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var uploader archive.Uploader = archive.NewS3Uploader(aws.S3(), cfg.Archive.Region)
	if err := uploader.EnsureContainer(ctx, cfg.Archive.Bucket); err != nil {
		slog.Error("Bucket unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	n, err := uploader.UploadTree(ctx, cfg.DataDir)
	if err != nil {
		slog.Error("Archive upload failed",
			slog.Int("uploaded", n),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}
