// export writes an XLSX report of all documents and their enrichment
// results to the given output path.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/export"
	repo "github.com/joseph-ayodele/doc-enricher/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	out := "documents.xlsx"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := export.NewService(store, logger)
	data, err := svc.ExportDocumentsXLSX(ctx, 0)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		logger.Error("write output", "path", out, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", out, "bytes", len(data))
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repo.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return repo.OpenSQLite(ctx, cfg.Database.DSN, logger)
	default:
		return repo.OpenPostgres(ctx, repo.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		}, logger)
	}
}
