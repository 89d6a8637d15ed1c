package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/vet-benchmarks-api/api/swagger"
	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/handler"
	"github.com/noah-isme/vet-benchmarks-api/internal/middleware"
	"github.com/noah-isme/vet-benchmarks-api/internal/repository"
	"github.com/noah-isme/vet-benchmarks-api/internal/service"
	"github.com/noah-isme/vet-benchmarks-api/pkg/cache"
	"github.com/noah-isme/vet-benchmarks-api/pkg/config"
	"github.com/noah-isme/vet-benchmarks-api/pkg/database"
	"github.com/noah-isme/vet-benchmarks-api/pkg/jobs"
	"github.com/noah-isme/vet-benchmarks-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/vet-benchmarks-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vet-benchmarks-api/pkg/middleware/requestid"
	"github.com/noah-isme/vet-benchmarks-api/pkg/storage"
)

// @title Veteran Benchmarks API
// @version 1.0.0
// @description Computes Veteran homelessness benchmark metrics from HMIS enrollment extracts
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck

	checks := map[string]handler.Pinger{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	var warehouse *sqlx.DB
	if cfg.HMIS.Enabled {
		warehouse, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer warehouse.Close() //nolint:errcheck
		checks["hmis_warehouse"] = warehouse.PingContext
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Benchmark.CacheTTL, logr, cfg.Benchmark.CacheEnabled)
	uploadRepo := repository.NewUploadRepository(cacheRepo)

	uploadCfg := service.UploadServiceConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		TTL:              cfg.Uploads.TTL,
		AllowedExts:      cfg.Uploads.AllowedExts,
		HMISEnabled:      cfg.HMIS.Enabled,
		HMISMaxRows:      cfg.HMIS.MaxRows,
		HMISQueryTimeout: cfg.HMIS.QueryTimeout,
	}
	var uploadSvc *service.UploadService
	if warehouse != nil {
		hmisRepo, err := repository.NewHMISRepository(warehouse, cfg.HMIS.EnrollmentView)
		if err != nil {
			return err
		}
		uploadSvc = service.NewUploadService(uploadRepo, hmisRepo, metricsSvc, validate, logr, uploadCfg)
	} else {
		uploadSvc = service.NewUploadService(uploadRepo, nil, metricsSvc, validate, logr, uploadCfg)
	}

	engine := benchmark.NewEngine(engineConfig(cfg.Benchmark), logr)
	benchmarkSvc := service.NewBenchmarkService(service.BenchmarkServiceParams{
		Uploads:   uploadSvc,
		Engine:    engine,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
		CacheTTL:  cfg.Benchmark.CacheTTL,
	})

	exportCfg := service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}
	reportHandler := handler.NewReportHandler(nil)
	var exportSvc *service.ExportService
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return err
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc = service.NewExportService(benchmarkSvc, fileStore, signer, exportCfg, logr)

		reportRepo := repository.NewReportRepository(cacheRepo, cfg.Reports.SignedURLTTL)
		worker := service.NewReportWorker(reportRepo, exportSvc, repository.NewLockRepository(redisClient), metricsSvc, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Reports.WorkerConcurrency,
			BufferSize:  64,
			MaxRetries:  cfg.Reports.WorkerRetries,
			RetryDelay:  5 * time.Second,
			Logger:      logr,
			OnExhausted: worker.Exhausted,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(service.ReportServiceParams{
			Repo:      reportRepo,
			Uploads:   uploadSvc,
			Queue:     queue,
			Files:     exportSvc,
			Metrics:   metricsSvc,
			Validator: validate,
			Logger:    logr,
			Config: service.ReportServiceConfig{
				ResultTTL:       cfg.Reports.SignedURLTTL,
				CleanupInterval: cfg.Reports.CleanupInterval,
			},
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc)
	} else {
		exportSvc = service.NewExportService(benchmarkSvc, nil, nil, exportCfg, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	registerRoutes(r, routeHandlers{
		uploads:    handler.NewUploadHandler(uploadSvc),
		benchmarks: handler.NewBenchmarkHandler(benchmarkSvc, exportSvc, cfg.Uploads.MaxFileSizeBytes),
		reports:    reportHandler,
		metrics:    handler.NewMetricsHandler(metricsSvc, checks),
	}, routeOptions{apiPrefix: cfg.APIPrefix, docs: cfg.Env != config.EnvProduction})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env,
			"hmis_source", cfg.HMIS.Enabled, "reports", cfg.Reports.Enabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func engineConfig(cfg config.BenchmarkConfig) benchmark.Config {
	return benchmark.Config{
		WindowDays:                  cfg.WindowDays,
		TouchGraceDays:              cfg.TouchGraceDays,
		IdentificationResetDays:     cfg.IdentificationResetDays,
		NewlyIdentifiedLookbackDays: cfg.NewlyIdentifiedLookbackDays,
		OfferWindowDays:             cfg.OfferWindowDays,
		RecentPHDays:                cfg.RecentPHDays,
		ChronicDurationDays:         cfg.ChronicDurationDays,
	}
}
