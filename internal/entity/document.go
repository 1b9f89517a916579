package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// Document is a file registered for processing. Created on upload,
// mutated only by status transitions, never deleted by the core.
type Document struct {
	ID           uuid.UUID
	Filename     string
	ContentType  string
	SizeBytes    int64
	StoragePath  string
	Status       constants.DocumentStatus
	ErrorMessage string
	UploadedAt   time.Time
	ProcessedAt  *time.Time
}

// ExtractedText is the output of one extraction run for a document.
// Immutable once created; re-extraction inserts a new row and the
// current row is the most recently created one.
type ExtractedText struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	RawText    string
	Confidence float64
	Method     string
	PageCount  int
	Duration   time.Duration
	Metadata   map[string]string
	CreatedAt  time.Time
}
