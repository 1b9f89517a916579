package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

// DocumentRepository persists documents and their lifecycle status.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, d *entity.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	FindDocumentByPath(ctx context.Context, storagePath string) (*entity.Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status string, errorMessage string, processedAt *time.Time) error
	ListDocuments(ctx context.Context, limit int) ([]*entity.Document, error)
}

// TextRepository persists extraction results. Rows are immutable;
// re-extraction inserts and the latest row wins.
type TextRepository interface {
	InsertExtractedText(ctx context.Context, t *entity.ExtractedText) error
	LatestText(ctx context.Context, documentID uuid.UUID) (*entity.ExtractedText, error)
}

// TaskRepository is the durable task queue. Status transitions are
// enforced with conditional updates: a claim only succeeds from
// pending, completion and failure only from processing. Requeue is the
// retry path and bumps the attempt counter.
type TaskRepository interface {
	EnqueueTask(ctx context.Context, t *entity.ProcessingTask) error
	GetTask(ctx context.Context, id uuid.UUID) (*entity.ProcessingTask, error)
	ListPendingTasks(ctx context.Context, limit int) ([]*entity.ProcessingTask, error)
	ClaimTask(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)
	CompleteTaskWithSummary(ctx context.Context, taskID uuid.UUID, s *entity.Summary, completedAt time.Time) error
	CompleteTaskWithClassification(ctx context.Context, taskID uuid.UUID, c *entity.Classification, completedAt time.Time) error
	FailTask(ctx context.Context, id uuid.UUID, message string, completedAt time.Time) error
	RequeueTask(ctx context.Context, id uuid.UUID, message string) error
}

// ResultRepository reads back enrichment results. The current result
// for a document is the most recently created one.
type ResultRepository interface {
	LatestSummary(ctx context.Context, documentID uuid.UUID) (*entity.Summary, error)
	LatestClassification(ctx context.Context, documentID uuid.UUID) (*entity.Classification, error)
}

// Store bundles every repository over one database.
type Store interface {
	DocumentRepository
	TextRepository
	TaskRepository
	ResultRepository
	Close()
}
