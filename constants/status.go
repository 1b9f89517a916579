package constants

// DocumentStatus is the canonical lifecycle status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// TaskStatus is the canonical status for rows in processing_tasks.
// Transitions only move forward: pending -> processing -> completed|failed.
// The single sanctioned exception is the retry requeue
// (processing -> pending with the attempt counter bumped).
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transition may occur from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskType discriminates what an enrichment task should do.
type TaskType string

const (
	TaskSummarize TaskType = "summarize"
	TaskClassify  TaskType = "classify"
)

// ExtractionMethod tags how text was obtained from a document.
const (
	MethodDirectPDF = "direct-pdf"
	MethodPDFOCR    = "pdf-ocr"
	MethodImageOCR  = "image-ocr"
	MethodPlainText = "plain-text"
	MethodError     = "error"
)
