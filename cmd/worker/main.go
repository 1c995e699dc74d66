package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/adapter/inference"
	"github.com/prodpix/prodpix/internal/config"
	"github.com/prodpix/prodpix/internal/helpers"
	infradatabase "github.com/prodpix/prodpix/internal/infrastructure/database"
	"github.com/prodpix/prodpix/internal/infrastructure/kafka"
	"github.com/prodpix/prodpix/internal/infrastructure/storage"
	"github.com/prodpix/prodpix/internal/repository/postgres"
	"github.com/prodpix/prodpix/internal/retry"
	"github.com/prodpix/prodpix/internal/usecase"
	"github.com/prodpix/prodpix/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting ProdPix Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "/app/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	connectRetries := cfg.Database.ConnectRetries
	connectDelay := cfg.Database.ConnectRetryDelaySec
	if connectRetries == 0 {
		connectRetries = 15
	}
	if connectDelay == 0 {
		connectDelay = 3
	}

	masterDSN := cfg.Database.DSN
	slaves := []string{}
	if strings.TrimSpace(cfg.Database.Slaves) != "" {
		slaves = helpers.SplitAndTrim(cfg.Database.Slaves, ",")
	}
	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	}

	database, err := infradatabase.ConnectWithRetries(masterDSN, slaves, dbOpts, connectRetries, connectDelay)
	if err != nil || database == nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}

	// Run migrations
	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Migrations warning (might be already applied)")
	}

	// Setup Storage
	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// Model adapter
	modelClient := inference.New(&cfg.Inference)

	// Repositories + Usecases
	imageRepo := postgres.NewImageRepository(database, retry.DefaultStrategy)
	taskRepo := postgres.NewTaskRepository(database, retry.DefaultStrategy)
	jobRepo := postgres.NewJobRepository(database, retry.DefaultStrategy)

	processorUsecase := usecase.NewProcessorUsecase(
		imageRepo,
		jobRepo,
		storageService,
		modelClient,
		cfg.Processing.OutputQuality,
		time.Duration(cfg.Processing.ItemTimeoutSec)*time.Second,
	)
	batchWorker := worker.NewBatchWorker(taskRepo, jobRepo, processorUsecase, cfg.Processing.WorkerPoolSize)

	// Kafka topic + consumer
	if err := kafka.EnsureTopic(ctx, &cfg.Kafka); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to prepare Kafka topic")
	}

	kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, batchWorker.HandleBatchTask)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer kafkaConsumer.Close()

	go func() {
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	if database != nil && database.Master != nil {
		database.Master.Close()
		for _, s := range database.Slaves {
			if s != nil {
				s.Close()
			}
		}
	}

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
