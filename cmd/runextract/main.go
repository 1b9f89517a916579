// runextract runs the extraction pipeline once for an already
// registered document, or registers and processes a file given by
// path. Useful for debugging extraction quality without the daemon.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/extract"
	"github.com/joseph-ayodele/doc-enricher/internal/pipeline"
	repo "github.com/joseph-ayodele/doc-enricher/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runextract <document-id-uuid | file-path>")
		os.Exit(2)
	}
	arg := os.Args[1]

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPages,
		TessdataDir:   cfg.Extract.TessdataDir,
	}, logger)
	proc := pipeline.NewProcessor(store, extractor, cfg.Scheduler, logger, nil)

	docID, err := uuid.Parse(arg)
	if err != nil {
		docID, err = registerPath(ctx, proc, arg, logger)
		if err != nil {
			logger.Error("registration failed", "path", arg, "error", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	if err := proc.ProcessDocument(ctx, docID); err != nil {
		logger.Error("extraction failed", "document_id", docID, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	text, err := store.LatestText(ctx, docID)
	if err != nil {
		logger.Error("no extracted text", "document_id", docID, "error", err)
		os.Exit(1)
	}
	logger.Info("extraction OK",
		"document_id", docID,
		"method", text.Method,
		"confidence", text.Confidence,
		"pages", text.PageCount,
		"chars", len(text.RawText),
		"duration_ms", time.Since(start).Milliseconds())
}

func registerPath(ctx context.Context, proc *pipeline.Processor, path string, logger *slog.Logger) (uuid.UUID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return uuid.Nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return uuid.Nil, err
	}
	doc, created, err := proc.Register(ctx, abs, "", info.Size(), filepath.Base(abs))
	if err != nil {
		return uuid.Nil, err
	}
	if !created {
		logger.Info("path already registered, reprocessing", "document_id", doc.ID)
	}
	return doc.ID, nil
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repo.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return repo.OpenSQLite(ctx, cfg.Database.DSN, logger)
	default:
		return repo.OpenPostgres(ctx, repo.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		}, logger)
	}
}
