package repository

// DDL per dialect. The shapes are identical; only type names and
// placeholder styles differ between Postgres and SQLite.

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		filename      TEXT NOT NULL,
		content_type  TEXT NOT NULL DEFAULT '',
		size_bytes    BIGINT NOT NULL DEFAULT 0,
		storage_path  TEXT NOT NULL,
		status        TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		uploaded_at   TIMESTAMPTZ NOT NULL,
		processed_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents (storage_path)`,
	`CREATE TABLE IF NOT EXISTS extracted_text (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		raw_text     TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		method       TEXT NOT NULL,
		page_count   INTEGER NOT NULL DEFAULT 0,
		duration_ms  BIGINT NOT NULL DEFAULT 0,
		metadata     TEXT NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extracted_text_doc ON extracted_text (document_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS processing_tasks (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL REFERENCES documents (id),
		task_type     TEXT NOT NULL,
		priority      INTEGER NOT NULL DEFAULT 1,
		task_data     TEXT NOT NULL DEFAULT '{}',
		status        TEXT NOT NULL,
		attempts      INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		started_at    TIMESTAMPTZ,
		completed_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_pending ON processing_tasks (status, priority, created_at)`,
	`CREATE TABLE IF NOT EXISTS document_summaries (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		summary_text TEXT NOT NULL,
		summary_type TEXT NOT NULL,
		model_id     TEXT NOT NULL DEFAULT '',
		tokens_used  INTEGER NOT NULL DEFAULT 0,
		latency_ms   BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_summaries_doc ON document_summaries (document_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS document_classifications (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		label        TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		tags         TEXT NOT NULL DEFAULT '[]',
		reasoning    TEXT NOT NULL DEFAULT '',
		model_id     TEXT NOT NULL DEFAULT '',
		latency_ms   BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_classifications_doc ON document_classifications (document_id, created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		filename      TEXT NOT NULL,
		content_type  TEXT NOT NULL DEFAULT '',
		size_bytes    INTEGER NOT NULL DEFAULT 0,
		storage_path  TEXT NOT NULL,
		status        TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		uploaded_at   TIMESTAMP NOT NULL,
		processed_at  TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents (storage_path)`,
	`CREATE TABLE IF NOT EXISTS extracted_text (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		raw_text     TEXT NOT NULL,
		confidence   REAL NOT NULL,
		method       TEXT NOT NULL,
		page_count   INTEGER NOT NULL DEFAULT 0,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		metadata     TEXT NOT NULL DEFAULT '{}',
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extracted_text_doc ON extracted_text (document_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS processing_tasks (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL REFERENCES documents (id),
		task_type     TEXT NOT NULL,
		priority      INTEGER NOT NULL DEFAULT 1,
		task_data     TEXT NOT NULL DEFAULT '{}',
		status        TEXT NOT NULL,
		attempts      INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		started_at    TIMESTAMP,
		completed_at  TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_pending ON processing_tasks (status, priority, created_at)`,
	`CREATE TABLE IF NOT EXISTS document_summaries (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		summary_text TEXT NOT NULL,
		summary_type TEXT NOT NULL,
		model_id     TEXT NOT NULL DEFAULT '',
		tokens_used  INTEGER NOT NULL DEFAULT 0,
		latency_ms   INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_summaries_doc ON document_summaries (document_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS document_classifications (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents (id),
		label        TEXT NOT NULL,
		confidence   REAL NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		tags         TEXT NOT NULL DEFAULT '[]',
		reasoning    TEXT NOT NULL DEFAULT '',
		model_id     TEXT NOT NULL DEFAULT '',
		latency_ms   INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_classifications_doc ON document_classifications (document_id, created_at DESC)`,
}
