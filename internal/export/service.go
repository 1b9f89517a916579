// Package export produces XLSX reports of enriched documents.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
	"github.com/joseph-ayodele/doc-enricher/internal/repository"
)

// Store is the read surface the exporter needs.
type Store interface {
	repository.DocumentRepository
	repository.TextRepository
	repository.ResultRepository
}

// Service is a tiny façade over the repositories that produces XLSX
// bytes for exports.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportDocumentsXLSX returns an XLSX workbook listing every document
// with its extraction confidence and latest enrichment results.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	docs, err := s.store.ListDocuments(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Uploaded",
		"Filename",
		"Status",
		"Extraction Method",
		"Confidence",
		"Pages",
		"Label",
		"Label Confidence",
		"Tags",
		"Summary",
		"Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		text := s.latestText(ctx, d)
		sum, cls := s.latestResults(ctx, d)

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.UploadedAt.Format("2006-01-02 15:04"))
		write(2, d.Filename)
		write(3, string(d.Status))
		if text != nil {
			write(4, text.Method)
			write(5, text.Confidence)
			write(6, text.PageCount)
		}
		if cls != nil {
			write(7, cls.Label)
			write(8, cls.Confidence)
			write(9, strings.Join(cls.Tags, ", "))
		}
		if sum != nil {
			write(10, sum.Text)
		}
		write(11, d.StoragePath)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export finished", "documents", len(docs), "duration_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func (s *Service) latestText(ctx context.Context, d *entity.Document) *entity.ExtractedText {
	t, err := s.store.LatestText(ctx, d.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("latest text lookup failed", "document_id", d.ID, "error", err)
		}
		return nil
	}
	return t
}

func (s *Service) latestResults(ctx context.Context, d *entity.Document) (*entity.Summary, *entity.Classification) {
	sum, err := s.store.LatestSummary(ctx, d.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("latest summary lookup failed", "document_id", d.ID, "error", err)
	}
	cls, err := s.store.LatestClassification(ctx, d.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("latest classification lookup failed", "document_id", d.ID, "error", err)
	}
	return sum, cls
}
