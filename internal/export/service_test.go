package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	docs            []*entity.Document
	texts           map[uuid.UUID]*entity.ExtractedText
	summaries       map[uuid.UUID]*entity.Summary
	classifications map[uuid.UUID]*entity.Classification
}

func (f *fakeStore) CreateDocument(context.Context, *entity.Document) error { return nil }
func (f *fakeStore) GetDocument(context.Context, uuid.UUID) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (f *fakeStore) FindDocumentByPath(context.Context, string) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (f *fakeStore) UpdateDocumentStatus(context.Context, uuid.UUID, string, string, *time.Time) error {
	return nil
}
func (f *fakeStore) ListDocuments(context.Context, int) ([]*entity.Document, error) {
	return f.docs, nil
}
func (f *fakeStore) InsertExtractedText(context.Context, *entity.ExtractedText) error { return nil }
func (f *fakeStore) LatestText(_ context.Context, id uuid.UUID) (*entity.ExtractedText, error) {
	if t, ok := f.texts[id]; ok {
		return t, nil
	}
	return nil, common.ErrNotFound
}
func (f *fakeStore) LatestSummary(_ context.Context, id uuid.UUID) (*entity.Summary, error) {
	if s, ok := f.summaries[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}
func (f *fakeStore) LatestClassification(_ context.Context, id uuid.UUID) (*entity.Classification, error) {
	if c, ok := f.classifications[id]; ok {
		return c, nil
	}
	return nil, common.ErrNotFound
}

func TestExportDocumentsXLSX(t *testing.T) {
	docID := uuid.New()
	store := &fakeStore{
		docs: []*entity.Document{{
			ID:          docID,
			Filename:    "contract.pdf",
			StoragePath: "/inbox/contract.pdf",
			Status:      constants.DocumentCompleted,
			UploadedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		}},
		texts: map[uuid.UUID]*entity.ExtractedText{docID: {
			DocumentID: docID,
			Method:     constants.MethodDirectPDF,
			Confidence: 0.95,
			PageCount:  4,
		}},
		summaries: map[uuid.UUID]*entity.Summary{docID: {
			DocumentID: docID,
			Text:       "An agreement between two parties.",
		}},
		classifications: map[uuid.UUID]*entity.Classification{docID: {
			DocumentID: docID,
			Label:      "legal",
			Confidence: 0.9,
			Tags:       []string{"contract", "nda"},
		}},
	}

	data, err := NewService(store, testLogger).ExportDocumentsXLSX(context.Background(), 0)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one document", len(rows))
	}
	if rows[0][1] != "Filename" || rows[0][6] != "Label" {
		t.Errorf("header = %v", rows[0])
	}
	doc := rows[1]
	if doc[1] != "contract.pdf" || doc[2] != "completed" {
		t.Errorf("row = %v", doc)
	}
	if doc[3] != constants.MethodDirectPDF {
		t.Errorf("method cell = %q", doc[3])
	}
	if doc[6] != "legal" || doc[8] != "contract, nda" {
		t.Errorf("classification cells = %q, %q", doc[6], doc[8])
	}
	if doc[9] != "An agreement between two parties." {
		t.Errorf("summary cell = %q", doc[9])
	}
}

func TestExportEmptyDatabase(t *testing.T) {
	data, err := NewService(&fakeStore{}, testLogger).ExportDocumentsXLSX(context.Background(), 0)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}
