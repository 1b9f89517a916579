package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// ProcessingTask is one enrichment job in the queue. Rows are an
// append-only audit trail: tasks are never deleted, only advanced.
type ProcessingTask struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	Type         constants.TaskType
	Priority     int // lower value = higher urgency
	Payload      json.RawMessage
	Status       constants.TaskStatus
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// SummarizePayload is the task payload for summarize tasks.
type SummarizePayload struct {
	Style string `json:"style"`
}

// ClassifyPayload is the task payload for classify tasks. An empty
// label list means the handler falls back to the configured default set.
type ClassifyPayload struct {
	AllowedLabels []string `json:"allowed_labels,omitempty"`
}

// SummarizePayloadOf decodes the payload of a summarize task.
func (t *ProcessingTask) SummarizePayloadOf() (SummarizePayload, error) {
	if t.Type != constants.TaskSummarize {
		return SummarizePayload{}, fmt.Errorf("task %s is %q, not summarize", t.ID, t.Type)
	}
	p := SummarizePayload{Style: "brief"}
	if len(t.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return SummarizePayload{}, fmt.Errorf("decode summarize payload: %w", err)
	}
	if p.Style == "" {
		p.Style = "brief"
	}
	return p, nil
}

// ClassifyPayloadOf decodes the payload of a classify task.
func (t *ProcessingTask) ClassifyPayloadOf() (ClassifyPayload, error) {
	if t.Type != constants.TaskClassify {
		return ClassifyPayload{}, fmt.Errorf("task %s is %q, not classify", t.ID, t.Type)
	}
	var p ClassifyPayload
	if len(t.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return ClassifyPayload{}, fmt.Errorf("decode classify payload: %w", err)
	}
	return p, nil
}

// MarshalPayload encodes a typed payload for storage.
func MarshalPayload(p any) json.RawMessage {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return b
}
