package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

// Scan helpers shared by the Postgres and SQLite stores. Both drivers
// expose the same Scan(dest ...any) shape; only the no-rows sentinel
// differs, which each store maps itself.

type rowScanner interface {
	Scan(dest ...any) error
}

const documentColumns = `id, filename, content_type, size_bytes, storage_path, status, error_message, uploaded_at, processed_at`

func scanDocumentRow(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	var id, status string
	err := row.Scan(&id, &d.Filename, &d.ContentType, &d.SizeBytes, &d.StoragePath,
		&status, &d.ErrorMessage, &d.UploadedAt, &d.ProcessedAt)
	if err != nil {
		return nil, err
	}
	d.ID, _ = uuid.Parse(id)
	d.Status = constants.DocumentStatus(status)
	return &d, nil
}

const textColumns = `id, document_id, raw_text, confidence, method, page_count, duration_ms, metadata, created_at`

func scanTextRow(row rowScanner) (*entity.ExtractedText, error) {
	var t entity.ExtractedText
	var id, docID, metadata string
	var durationMS int64
	err := row.Scan(&id, &docID, &t.RawText, &t.Confidence, &t.Method,
		&t.PageCount, &durationMS, &metadata, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ID, _ = uuid.Parse(id)
	t.DocumentID, _ = uuid.Parse(docID)
	t.Duration = time.Duration(durationMS) * time.Millisecond
	t.Metadata = decodeStringMap(metadata)
	return &t, nil
}

const taskColumns = `id, document_id, task_type, priority, task_data, status, attempts, error_message, created_at, started_at, completed_at`

func scanTaskRow(row rowScanner) (*entity.ProcessingTask, error) {
	var t entity.ProcessingTask
	var id, docID, taskType, taskData, status string
	err := row.Scan(&id, &docID, &taskType, &t.Priority, &taskData, &status,
		&t.Attempts, &t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	t.ID, _ = uuid.Parse(id)
	t.DocumentID, _ = uuid.Parse(docID)
	t.Type = constants.TaskType(taskType)
	t.Status = constants.TaskStatus(status)
	t.Payload = json.RawMessage(taskData)
	return &t, nil
}

const summaryColumns = `id, document_id, summary_text, summary_type, model_id, tokens_used, latency_ms, created_at`

func scanSummaryRow(row rowScanner) (*entity.Summary, error) {
	var s entity.Summary
	var id, docID string
	var latencyMS int64
	err := row.Scan(&id, &docID, &s.Text, &s.Style, &s.ModelID, &s.TokensUsed, &latencyMS, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.ID, _ = uuid.Parse(id)
	s.DocumentID, _ = uuid.Parse(docID)
	s.Latency = time.Duration(latencyMS) * time.Millisecond
	return &s, nil
}

const classificationColumns = `id, document_id, label, confidence, category, tags, reasoning, model_id, latency_ms, created_at`

func scanClassificationRow(row rowScanner) (*entity.Classification, error) {
	var c entity.Classification
	var id, docID, tags string
	var latencyMS int64
	err := row.Scan(&id, &docID, &c.Label, &c.Confidence, &c.Category, &tags,
		&c.Reasoning, &c.ModelID, &latencyMS, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.ID, _ = uuid.Parse(id)
	c.DocumentID, _ = uuid.Parse(docID)
	c.Latency = time.Duration(latencyMS) * time.Millisecond
	c.Tags = decodeStringSlice(tags)
	return &c, nil
}

func encodeStringMap(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeStringMap(s string) map[string]string {
	if s == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func encodeStringSlice(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStringSlice(s string) []string {
	if s == "" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

func payloadText(p json.RawMessage) string {
	if len(p) == 0 {
		return "{}"
	}
	return string(p)
}
