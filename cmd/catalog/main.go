// cmd/catalog/main.go
package main

import (
	"context"
	"log"
	"net/http"

	"bookvault/internal/catalog"
	"bookvault/internal/config"
	"bookvault/internal/search"
	"bookvault/internal/store"
	"bookvault/internal/telemetry"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := telemetry.Init(ctx, "bookvault-catalog", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}

	recordStore := store.NewDynamo(dynamodb.NewFromConfig(awsCfg), cfg.BooksTable, logger)
	searchClient := search.NewMeili(cfg.MeiliHost, cfg.MeiliAPIKey, cfg.SearchIndexTemplate, logger)

	svc := catalog.NewService(recordStore, searchClient, logger)
	handler := catalog.NewHandler(svc, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Mount("/", handler.Routes())

	logger.Info("starting catalog service",
		zap.String("port", cfg.Port),
		zap.String("table", cfg.BooksTable),
	)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
