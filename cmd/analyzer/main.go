package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/postsentiment/config"
	"github.com/spacesedan/postsentiment/internal/clients"
	"github.com/spacesedan/postsentiment/internal/clients/kafka_client"
	"github.com/spacesedan/postsentiment/internal/db"
	"github.com/spacesedan/postsentiment/internal/logging"
	"github.com/spacesedan/postsentiment/internal/processing"
	"github.com/spacesedan/postsentiment/internal/sentiment"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []processing.Sink
	if cfg.Sinks.DynamoDBTable != "" {
		aws, err := clients.LoadAWS(ctx, cfg.Archive)
		if err != nil {
			slog.Error("AWS init failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sinks = append(sinks, db.NewDynamoStore(aws.DynamoDB(), cfg.Sinks.DynamoDBTable))
	}
	if cfg.Sinks.KafkaBroker != "" {
		publisher, err := kafka_client.NewPublisher(kafka_client.GetKafkaConfig(cfg.Sinks))
		if err != nil {
			slog.Error("Kafka init failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	analyzer := processing.NewAnalyzer(sentiment.NewVaderScorer(), processing.WithSinks(sinks...))
	results, err := analyzer.ProcessFolder(ctx, cfg.DataDir)
	if err != nil {
		slog.Error("Analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, r := range results {
		slog.Info("Analyzed file",
			slog.String("file", r.WorkingFile),
			slog.String("enriched", r.EnrichedFile),
			slog.String("json", r.JSONFile),
			slog.Int("rows", r.Rows),
			slog.Int("duplicates", r.Duplicates))
	}
}
