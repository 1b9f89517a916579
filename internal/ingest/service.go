package ingest

import (
	"context"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/pipeline"
)

// Service connects the directory watcher to the processing pipeline:
// every discovered file is registered as a document and queued for
// extraction.
type Service struct {
	proc   *pipeline.Processor
	queue  *pipeline.Queue
	cfg    common.IngestConfig
	logger *slog.Logger
}

func NewService(proc *pipeline.Processor, queue *pipeline.Queue, cfg common.IngestConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proc: proc, queue: queue, cfg: cfg, logger: logger}
}

// Run watches the configured roots until ctx is canceled. When no
// roots are configured it returns immediately; ingestion is optional
// for deployments that register documents some other way.
func (s *Service) Run(ctx context.Context) error {
	if len(s.cfg.WatchDirs) == 0 {
		s.logger.Info("no watch directories configured, ingestion disabled")
		return nil
	}
	evCh, errCh, err := StartWatcher(ctx, WatchConfig{
		Roots:       s.cfg.WatchDirs,
		InitialScan: s.cfg.InitialScan,
		Debounce:    500 * time.Millisecond,
	}, s.logger)
	if err != nil {
		return err
	}
	s.logger.Info("ingestion watcher running", "roots", s.cfg.WatchDirs, "initial_scan", s.cfg.InitialScan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case werr, ok := <-errCh:
			if ok && werr != nil {
				s.logger.Warn("watch error", "error", werr)
			}
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			s.handlePath(ctx, path)
		}
	}
}

func (s *Service) handlePath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	doc, created, err := s.proc.Register(ctx, path, mediaType, info.Size(), filepath.Base(path))
	if err != nil {
		s.logger.Error("document registration failed", "path", path, "error", err)
		return
	}
	if !created {
		s.logger.Debug("path already registered", "path", path, "document_id", doc.ID)
		return
	}
	_ = s.queue.Enqueue(ctx, pipeline.Job{DocumentID: doc.ID})
}
