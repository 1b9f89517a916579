// enrichd is the long-running daemon: it watches directories for new
// documents, extracts their text, and schedules asynchronous
// summarization and classification.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/extract"
	"github.com/joseph-ayodele/doc-enricher/internal/ingest"
	"github.com/joseph-ayodele/doc-enricher/internal/llm/openai"
	"github.com/joseph-ayodele/doc-enricher/internal/metrics"
	"github.com/joseph-ayodele/doc-enricher/internal/pipeline"
	repo "github.com/joseph-ayodele/doc-enricher/internal/repository"
	"github.com/joseph-ayodele/doc-enricher/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPages,
		TessdataDir:   cfg.Extract.TessdataDir,
	}, logger)

	processor := pipeline.NewProcessor(store, extractor, cfg.Scheduler, logger, m)
	queue := pipeline.NewQueue(processor, logger,
		pipeline.WithWorkers(cfg.Ingest.Workers),
		pipeline.WithQueueSize(cfg.Ingest.QueueSize),
	)

	enricher := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	sched := scheduler.New(store, enricher, cfg.Scheduler, logger, m)
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler startup failed", "error", err)
		os.Exit(1)
	}

	ingestSvc := ingest.NewService(processor, queue, cfg.Ingest, logger)
	go func() {
		if err := ingestSvc.Run(ctx); err != nil {
			logger.Error("ingestion stopped", "error", err)
		}
	}()

	// Metrics listener
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux(m)}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
		}
	}()

	// gRPC health endpoint for orchestration probes
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("enrichd listening", "addr", cfg.Server.GRPCAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)
	sched.Stop()
	grpcServer.GracefulStop()
	_ = metricsSrv.Shutdown(drainCtx)
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repo.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return repo.OpenSQLite(ctx, cfg.Database.DSN, logger)
	default:
		return repo.OpenPostgres(ctx, repo.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
	}
}
