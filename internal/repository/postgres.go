package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

// Config holds pool settings for the Postgres store.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ Store = (*PGStore)(nil)

// OpenPostgres creates a pgx pool, applies the schema, and returns the store.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PGStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "doc-enricher"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	s := &PGStore{pool: pool, log: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database ready")
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// HealthCheck pings the pool to catch DSN issues early.
func (s *PGStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func pgNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	return common.WrapError(common.ErrPersistence, err.Error())
}

// --- documents ---

func (s *PGStore) CreateDocument(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID.String(), d.Filename, d.ContentType, d.SizeBytes, d.StoragePath,
		string(d.Status), d.ErrorMessage, d.UploadedAt, d.ProcessedAt)
	if err != nil {
		s.log.Error("document create failed", "document_id", d.ID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert document")
	}
	return nil
}

func (s *PGStore) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id.String())
	d, err := scanDocumentRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return d, nil
}

func (s *PGStore) FindDocumentByPath(ctx context.Context, storagePath string) (*entity.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE storage_path = $1 ORDER BY uploaded_at DESC LIMIT 1`,
		storagePath)
	d, err := scanDocumentRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return d, nil
}

func (s *PGStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status string, errorMessage string, processedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $2, error_message = $3, processed_at = COALESCE($4, processed_at) WHERE id = $1`,
		id.String(), status, errorMessage, processedAt)
	if err != nil {
		s.log.Error("document status update failed", "document_id", id, "status", status, "error", err)
		return common.WrapError(common.ErrPersistence, "update document status")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PGStore) ListDocuments(ctx context.Context, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC LIMIT $1`, limit)
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

func (s *PGStore) InsertExtractedText(ctx context.Context, t *entity.ExtractedText) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extracted_text (`+textColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID.String(), t.DocumentID.String(), t.RawText, t.Confidence, t.Method,
		t.PageCount, t.Duration.Milliseconds(), encodeStringMap(t.Metadata), t.CreatedAt)
	if err != nil {
		s.log.Error("extracted text insert failed", "document_id", t.DocumentID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert extracted text")
	}
	return nil
}

func (s *PGStore) LatestText(ctx context.Context, documentID uuid.UUID) (*entity.ExtractedText, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+textColumns+` FROM extracted_text WHERE document_id = $1 ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	t, err := scanTextRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return t, nil
}

// --- tasks ---

func (s *PGStore) EnqueueTask(ctx context.Context, t *entity.ProcessingTask) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = constants.TaskPending
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processing_tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
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

func (s *PGStore) GetTask(ctx context.Context, id uuid.UUID) (*entity.ProcessingTask, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM processing_tasks WHERE id = $1`, id.String())
	t, err := scanTaskRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return t, nil
}

func (s *PGStore) ListPendingTasks(ctx context.Context, limit int) ([]*entity.ProcessingTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM processing_tasks
		 WHERE status = $1 ORDER BY priority ASC, created_at ASC LIMIT $2`,
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

// ClaimTask moves a task pending -> processing. Returns false when the
// task was already claimed (or finished) by someone else.
func (s *PGStore) ClaimTask(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_tasks SET status = $2, started_at = $3
		 WHERE id = $1 AND status = $4`,
		id.String(), string(constants.TaskProcessing), startedAt, string(constants.TaskPending))
	if err != nil {
		return false, common.WrapError(common.ErrPersistence, "claim task")
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteTaskWithSummary persists the summary and marks the task
// completed in one transaction, so a crash can never leave a result
// without its terminal status or vice versa.
func (s *PGStore) CompleteTaskWithSummary(ctx context.Context, taskID uuid.UUID, sum *entity.Summary, completedAt time.Time) error {
	return s.completeInTx(ctx, taskID, completedAt, func(tx pgx.Tx) error {
		if sum.ID == uuid.Nil {
			sum.ID = uuid.New()
		}
		if sum.CreatedAt.IsZero() {
			sum.CreatedAt = completedAt
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO document_summaries (`+summaryColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sum.ID.String(), sum.DocumentID.String(), sum.Text, sum.Style,
			sum.ModelID, sum.TokensUsed, sum.Latency.Milliseconds(), sum.CreatedAt)
		return err
	})
}

func (s *PGStore) CompleteTaskWithClassification(ctx context.Context, taskID uuid.UUID, c *entity.Classification, completedAt time.Time) error {
	return s.completeInTx(ctx, taskID, completedAt, func(tx pgx.Tx) error {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = completedAt
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO document_classifications (`+classificationColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID.String(), c.DocumentID.String(), c.Label, c.Confidence, c.Category,
			encodeStringSlice(c.Tags), c.Reasoning, c.ModelID, c.Latency.Milliseconds(), c.CreatedAt)
		return err
	})
}

func (s *PGStore) completeInTx(ctx context.Context, taskID uuid.UUID, completedAt time.Time, insert func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(common.ErrPersistence, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insert(tx); err != nil {
		s.log.Error("result insert failed", "task_id", taskID, "error", err)
		return common.WrapError(common.ErrPersistence, "insert result")
	}
	tag, err := tx.Exec(ctx,
		`UPDATE processing_tasks SET status = $2, completed_at = $3, error_message = ''
		 WHERE id = $1 AND status = $4`,
		taskID.String(), string(constants.TaskCompleted), completedAt, string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "complete task")
	}
	if tag.RowsAffected() == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	if err := tx.Commit(ctx); err != nil {
		return common.WrapError(common.ErrPersistence, "commit tx")
	}
	return nil
}

func (s *PGStore) FailTask(ctx context.Context, id uuid.UUID, message string, completedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_tasks SET status = $2, error_message = $3, completed_at = $4
		 WHERE id = $1 AND status = $5`,
		id.String(), string(constants.TaskFailed), message, completedAt, string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "fail task")
	}
	if tag.RowsAffected() == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	return nil
}

// RequeueTask is the retry path: processing -> pending with the
// attempt counter bumped and the last error kept for inspection.
func (s *PGStore) RequeueTask(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_tasks SET status = $2, attempts = attempts + 1, error_message = $3, started_at = NULL
		 WHERE id = $1 AND status = $4`,
		id.String(), string(constants.TaskPending), message, string(constants.TaskProcessing))
	if err != nil {
		return common.WrapError(common.ErrPersistence, "requeue task")
	}
	if tag.RowsAffected() == 0 {
		return common.WrapError(common.ErrPersistence, "task not in processing state")
	}
	return nil
}

// --- enrichment results ---

func (s *PGStore) LatestSummary(ctx context.Context, documentID uuid.UUID) (*entity.Summary, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM document_summaries WHERE document_id = $1 ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	sum, err := scanSummaryRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return sum, nil
}

func (s *PGStore) LatestClassification(ctx context.Context, documentID uuid.UUID) (*entity.Classification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+classificationColumns+` FROM document_classifications WHERE document_id = $1 ORDER BY created_at DESC LIMIT 1`,
		documentID.String())
	c, err := scanClassificationRow(row)
	if err != nil {
		return nil, pgNotFound(err)
	}
	return c, nil
}
