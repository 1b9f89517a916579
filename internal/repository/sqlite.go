package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

// SQLiteStore implements Store on an embedded SQLite database. It is
// the single-node deployment option and what the tests run against.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the
// schema. Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent task claims.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// HealthCheck pings the database.
func (s *SQLiteStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

func sqliteNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return common.WrapError(common.ErrPersistence, err.Error())
}

// --- documents ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Filename, d.ContentType, d.SizeBytes, d.StoragePath,
		string(d.Status), d.ErrorMessage, d.UploadedAt, d.ProcessedAt)
	if err != nil {
		s.log.Error("document create failed", "document_id", d.ID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert document")
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id.String())
	d, err := scanDocumentRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return d, nil
}

func (s *SQLiteStore) FindDocumentByPath(ctx context.Context, storagePath string) (*entity.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE storage_path = ? ORDER BY uploaded_at DESC LIMIT 1`,
		storagePath)
	d, err := scanDocumentRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return d, nil
}

func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status string, errorMessage string, processedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_message = ?, processed_at = COALESCE(?, processed_at) WHERE id = ?`,
		status, errorMessage, processedAt, id.String())
	if err != nil {
		s.log.Error("document status update failed", "document_id", id, "status", status, "error", err)
		return common.WrapError(common.ErrPersistence, "update document status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.WrapError(common.ErrPersistence, "list documents")
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		d, err := scanDocumentRow(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrPersistence, "scan document")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- extracted text ---

func (s *SQLiteStore) InsertExtractedText(ctx context.Context, t *entity.ExtractedText) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extracted_text (`+textColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.DocumentID.String(), t.RawText, t.Confidence, t.Method,
		t.PageCount, t.Duration.Milliseconds(), encodeStringMap(t.Metadata), t.CreatedAt)
	if err != nil {
		s.log.Error("extracted text insert failed", "document_id", t.DocumentID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert extracted text")
	}
	return nil
}

func (s *SQLiteStore) LatestText(ctx context.Context, documentID uuid.UUID) (*entity.ExtractedText, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+textColumns+` FROM extracted_text WHERE document_id = ? ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	t, err := scanTextRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return t, nil
}

// --- tasks ---

func (s *SQLiteStore) EnqueueTask(ctx context.Context, t *entity.ProcessingTask) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = constants.TaskPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.DocumentID.String(), string(t.Type), t.Priority, payloadText(t.Payload),
		string(t.Status), t.Attempts, t.ErrorMessage, t.CreatedAt, t.StartedAt, t.CompletedAt)
	if err != nil {
		s.log.Error("task enqueue failed", "document_id", t.DocumentID, "task_type", t.Type, "error", err)
		return common.WrapError(common.ErrPersistence, "insert task")
	}
	s.log.Info("task enqueued", "task_id", t.ID, "document_id", t.DocumentID,
		"task_type", string(t.Type), "priority", t.Priority)
	return nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id uuid.UUID) (*entity.ProcessingTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM processing_tasks WHERE id = ?`, id.String())
	t, err := scanTaskRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return t, nil
}

func (s *SQLiteStore) ListPendingTasks(ctx context.Context, limit int) ([]*entity.ProcessingTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM processing_tasks
		 WHERE status = ? ORDER BY priority ASC, created_at ASC LIMIT ?`,
		string(constants.TaskPending), limit)
	if err != nil {
		return nil, common.WrapError(common.ErrPersistence, "list pending tasks")
	}
	defer rows.Close()

	var out []*entity.ProcessingTask
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrPersistence, "scan task")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ClaimTask(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_tasks SET status = ?, started_at = ?
		 WHERE id = ? AND status = ?`,
		string(constants.TaskProcessing), startedAt, id.String(), string(constants.TaskPending))
	if err != nil {
		return false, common.WrapError(common.ErrPersistence, "claim task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.WrapError(common.ErrPersistence, "claim task")
	}
	return n == 1, nil
}

func (s *SQLiteStore) CompleteTaskWithSummary(ctx context.Context, taskID uuid.UUID, sum *entity.Summary, completedAt time.Time) error {
	return s.completeInTx(ctx, taskID, completedAt, func(tx *sql.Tx) error {
		if sum.ID == uuid.Nil {
			sum.ID = uuid.New()
		}
		if sum.CreatedAt.IsZero() {
			sum.CreatedAt = completedAt
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_summaries (`+summaryColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.ID.String(), sum.DocumentID.String(), sum.Text, sum.Style,
			sum.ModelID, sum.TokensUsed, sum.Latency.Milliseconds(), sum.CreatedAt)
		return err
	})
}

func (s *SQLiteStore) CompleteTaskWithClassification(ctx context.Context, taskID uuid.UUID, c *entity.Classification, completedAt time.Time) error {
	return s.completeInTx(ctx, taskID, completedAt, func(tx *sql.Tx) error {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = completedAt
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_classifications (`+classificationColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID.String(), c.DocumentID.String(), c.Label, c.Confidence, c.Category,
			encodeStringSlice(c.Tags), c.Reasoning, c.ModelID, c.Latency.Milliseconds(), c.CreatedAt)
		return err
	})
}

func (s *SQLiteStore) completeInTx(ctx context.Context, taskID uuid.UUID, completedAt time.Time, insert func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(common.ErrPersistence, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insert(tx); err != nil {
		s.log.Error("result insert failed", "task_id", taskID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert result")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE processing_tasks SET status = ?, completed_at = ?, error_message = ''
		 WHERE id = ? AND status = ?`,
		string(constants.TaskCompleted), completedAt, taskID.String(), string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "complete task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(common.ErrPersistence, "commit tx")
	}
	return nil
}

func (s *SQLiteStore) FailTask(ctx context.Context, id uuid.UUID, message string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_tasks SET status = ?, error_message = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		string(constants.TaskFailed), message, completedAt, id.String(), string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "fail task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	return nil
}

func (s *SQLiteStore) RequeueTask(ctx context.Context, id uuid.UUID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_tasks SET status = ?, attempts = attempts + 1, error_message = ?, started_at = NULL
		 WHERE id = ? AND status = ?`,
		string(constants.TaskPending), message, id.String(), string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "requeue task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	return nil
}

// --- enrichment results ---

func (s *SQLiteStore) LatestSummary(ctx context.Context, documentID uuid.UUID) (*entity.Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM document_summaries WHERE document_id = ? ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	sum, err := scanSummaryRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return sum, nil
}

func (s *SQLiteStore) LatestClassification(ctx context.Context, documentID uuid.UUID) (*entity.Classification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+classificationColumns+` FROM document_classifications WHERE document_id = ? ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	c, err := scanClassificationRow(row)
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return c, nil
}
