// Package pipeline runs the ingestion pipeline for a single document:
// extraction, persistence of the extracted text, and enqueueing of the
// enrichment tasks.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
	"github.com/joseph-ayodele/doc-enricher/internal/extract"
	"github.com/joseph-ayodele/doc-enricher/internal/metrics"
	"github.com/joseph-ayodele/doc-enricher/internal/repository"
	"github.com/joseph-ayodele/doc-enricher/internal/scheduler"
)

// TextExtractor is the extraction engine dependency. Extract never
// returns an error; failures come back as zero-confidence results.
type TextExtractor interface {
	Extract(ctx context.Context, path, declaredMediaType string) extract.Result
}

// Store is the slice of the repository the processor needs.
type Store interface {
	repository.DocumentRepository
	repository.TextRepository
	repository.TaskRepository
}

type Processor struct {
	store     Store
	extractor TextExtractor
	schedCfg  common.SchedulerConfig
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewProcessor(store Store, extractor TextExtractor, schedCfg common.SchedulerConfig, logger *slog.Logger, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, extractor: extractor, schedCfg: schedCfg, log: logger, metrics: m}
}

// ProcessDocument drives one document from uploaded to its terminal
// status. Extraction results are recorded even when empty; a document
// only fails when no text at all could be recovered.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	log := p.log.With("document_id", doc.ID, "filename", doc.Filename)

	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, string(constants.DocumentProcessing), "", nil); err != nil {
		return err
	}

	res := p.extractor.Extract(ctx, doc.StoragePath, doc.ContentType)
	p.metrics.ExtractionDone(res.Method, res.Duration)
	log.Info("extraction finished",
		"method", res.Method,
		"confidence", res.Confidence,
		"pages", res.PageCount,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds())

	text := &entity.ExtractedText{
		DocumentID: doc.ID,
		RawText:    res.Text,
		Confidence: res.Confidence,
		Method:     res.Method,
		PageCount:  res.PageCount,
		Duration:   res.Duration,
		Metadata:   res.Metadata,
	}
	if err := p.store.InsertExtractedText(ctx, text); err != nil {
		return err
	}

	now := time.Now().UTC()
	if res.Text == "" {
		p.metrics.DocumentIngested(string(constants.DocumentFailed))
		log.Warn("document failed", "method", res.Method)
		return p.store.UpdateDocumentStatus(ctx, doc.ID,
			string(constants.DocumentFailed), "no text could be extracted from the document", &now)
	}

	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, string(constants.DocumentCompleted), "", &now); err != nil {
		return err
	}
	p.metrics.DocumentIngested(string(constants.DocumentCompleted))

	if err := scheduler.EnqueueEnrichment(ctx, p.store, p.schedCfg, doc.ID); err != nil {
		log.Error("enrichment enqueue failed", "error", err)
		return err
	}
	return nil
}

// Register creates the document row for a file discovered on disk,
// skipping paths already known. It returns the document and whether it
// was newly created.
func (p *Processor) Register(ctx context.Context, path, mediaType string, sizeBytes int64, filename string) (*entity.Document, bool, error) {
	existing, err := p.store.FindDocumentByPath(ctx, path)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	doc := &entity.Document{
		Filename:    filename,
		ContentType: mediaType,
		SizeBytes:   sizeBytes,
		StoragePath: path,
		Status:      constants.DocumentUploaded,
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, false, err
	}
	p.metrics.DocumentIngested(string(constants.DocumentUploaded))
	return doc, true, nil
}
