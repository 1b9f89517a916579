package entity

import (
	"time"

	"github.com/google/uuid"
)

// Summary is one summarization result for a document. History is
// preserved; the current summary is the latest by CreatedAt.
type Summary struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Text       string
	Style      string
	ModelID    string
	TokensUsed int
	Latency    time.Duration
	CreatedAt  time.Time
}

// Classification is one topic-classification result for a document.
type Classification struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Label      string
	Confidence float64
	Category   string
	Tags       []string
	Reasoning  string
	ModelID    string
	Latency    time.Duration
	CreatedAt  time.Time
}
