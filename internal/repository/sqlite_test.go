package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", testLogger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func createDoc(t *testing.T, s *SQLiteStore) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1234,
		StoragePath: "/inbox/report-" + uuid.NewString() + ".pdf",
		Status:      constants.DocumentUploaded,
	}
	if err := s.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func enqueue(t *testing.T, s *SQLiteStore, docID uuid.UUID, taskType constants.TaskType, priority int, createdAt time.Time) *entity.ProcessingTask {
	t.Helper()
	task := &entity.ProcessingTask{
		DocumentID: docID,
		Type:       taskType,
		Priority:   priority,
		CreatedAt:  createdAt,
	}
	if err := s.EnqueueTask(context.Background(), task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return task
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := createDoc(t, s)

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != doc.Filename || got.Status != constants.DocumentUploaded {
		t.Errorf("got %+v", got)
	}

	byPath, err := s.FindDocumentByPath(ctx, doc.StoragePath)
	if err != nil {
		t.Fatalf("find by path: %v", err)
	}
	if byPath.ID != doc.ID {
		t.Errorf("found %s, want %s", byPath.ID, doc.ID)
	}

	now := time.Now().UTC()
	if err := s.UpdateDocumentStatus(ctx, doc.ID, string(constants.DocumentCompleted), "", &now); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = s.GetDocument(ctx, doc.ID)
	if got.Status != constants.DocumentCompleted || got.ProcessedAt == nil {
		t.Errorf("after update: %+v", got)
	}

	if _, err := s.GetDocument(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing doc err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateDocumentStatus(ctx, uuid.New(), "failed", "", nil); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing update err = %v, want ErrNotFound", err)
	}
}

func TestPendingTasksOrderedByPriorityThenAge(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	base := time.Now().UTC().Truncate(time.Millisecond)

	a := enqueue(t, s, doc.ID, constants.TaskSummarize, 2, base)
	b := enqueue(t, s, doc.ID, constants.TaskSummarize, 1, base.Add(1*time.Millisecond))
	c := enqueue(t, s, doc.ID, constants.TaskClassify, 1, base.Add(2*time.Millisecond))
	d := enqueue(t, s, doc.ID, constants.TaskClassify, 3, base.Add(3*time.Millisecond))

	got, err := s.ListPendingTasks(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	want := []uuid.UUID{b.ID, c.ID, a.ID, d.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want[i])
		}
	}

	limited, err := s.ListPendingTasks(context.Background(), 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestClaimIsExclusive(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	task := enqueue(t, s, doc.ID, constants.TaskSummarize, 1, time.Now().UTC())
	ctx := context.Background()

	claimed, err := s.ClaimTask(ctx, task.ID, time.Now().UTC())
	if err != nil || !claimed {
		t.Fatalf("first claim = (%v, %v), want (true, nil)", claimed, err)
	}
	claimed, err = s.ClaimTask(ctx, task.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second claim err: %v", err)
	}
	if claimed {
		t.Error("second claim must fail")
	}

	got, _ := s.GetTask(ctx, task.ID)
	if got.Status != constants.TaskProcessing || got.StartedAt == nil {
		t.Errorf("after claim: status=%s started=%v", got.Status, got.StartedAt)
	}
}

func TestCompleteTaskWithSummaryIsTransactional(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	task := enqueue(t, s, doc.ID, constants.TaskSummarize, 1, time.Now().UTC())
	ctx := context.Background()

	sum := &entity.Summary{
		DocumentID: doc.ID,
		Text:       "A summary.",
		Style:      "brief",
		ModelID:    "test-model",
		TokensUsed: 3,
		Latency:    120 * time.Millisecond,
	}

	// Completing an unclaimed task must fail and leave no summary.
	if err := s.CompleteTaskWithSummary(ctx, task.ID, sum, time.Now().UTC()); err == nil {
		t.Fatal("completing a pending task must fail")
	}
	if _, err := s.LatestSummary(ctx, doc.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("summary must have rolled back, got err = %v", err)
	}

	if _, err := s.ClaimTask(ctx, task.ID, time.Now().UTC()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.CompleteTaskWithSummary(ctx, task.ID, sum, time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := s.GetTask(ctx, task.ID)
	if got.Status != constants.TaskCompleted || got.CompletedAt == nil {
		t.Errorf("after complete: status=%s completed=%v", got.Status, got.CompletedAt)
	}
	stored, err := s.LatestSummary(ctx, doc.ID)
	if err != nil {
		t.Fatalf("latest summary: %v", err)
	}
	if stored.Text != "A summary." || stored.Latency != 120*time.Millisecond {
		t.Errorf("stored summary %+v", stored)
	}
}

func TestCompleteTaskWithClassification(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	task := enqueue(t, s, doc.ID, constants.TaskClassify, 2, time.Now().UTC())
	ctx := context.Background()

	if _, err := s.ClaimTask(ctx, task.ID, time.Now().UTC()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	c := &entity.Classification{
		DocumentID: doc.ID,
		Label:      "legal",
		Confidence: 0.9,
		Category:   "business",
		Tags:       []string{"contract", "nda"},
		Reasoning:  "mentions clauses",
		ModelID:    "test-model",
	}
	if err := s.CompleteTaskWithClassification(ctx, task.ID, c, time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stored, err := s.LatestClassification(ctx, doc.ID)
	if err != nil {
		t.Fatalf("latest classification: %v", err)
	}
	if stored.Label != "legal" || len(stored.Tags) != 2 || stored.Tags[1] != "nda" {
		t.Errorf("stored classification %+v", stored)
	}
}

func TestFailAndRequeue(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	ctx := context.Background()

	task := enqueue(t, s, doc.ID, constants.TaskSummarize, 1, time.Now().UTC())
	if err := s.RequeueTask(ctx, task.ID, "boom"); err == nil {
		t.Error("requeueing a pending task must fail")
	}

	if _, err := s.ClaimTask(ctx, task.ID, time.Now().UTC()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.RequeueTask(ctx, task.ID, "adapter down"); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	got, _ := s.GetTask(ctx, task.ID)
	if got.Status != constants.TaskPending || got.Attempts != 1 || got.StartedAt != nil {
		t.Errorf("after requeue: status=%s attempts=%d started=%v", got.Status, got.Attempts, got.StartedAt)
	}
	if got.ErrorMessage != "adapter down" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}

	// Second cycle ends in failure.
	if _, err := s.ClaimTask(ctx, task.ID, time.Now().UTC()); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if err := s.FailTask(ctx, task.ID, "still down", time.Now().UTC()); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ = s.GetTask(ctx, task.ID)
	if got.Status != constants.TaskFailed || got.CompletedAt == nil {
		t.Errorf("after fail: status=%s completed=%v", got.Status, got.CompletedAt)
	}
	if err := s.FailTask(ctx, task.ID, "again", time.Now().UTC()); err == nil {
		t.Error("failing a terminal task must fail")
	}
}

func TestLatestTextWins(t *testing.T) {
	s := newTestStore(t)
	doc := createDoc(t, s)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &entity.ExtractedText{
		DocumentID: doc.ID,
		RawText:    "old text",
		Confidence: 0.5,
		Method:     constants.MethodPDFOCR,
		PageCount:  2,
		Metadata:   map[string]string{"dpi": "300"},
		CreatedAt:  base,
	}
	second := &entity.ExtractedText{
		DocumentID: doc.ID,
		RawText:    "new text",
		Confidence: 0.95,
		Method:     constants.MethodDirectPDF,
		PageCount:  2,
		CreatedAt:  base.Add(1 * time.Millisecond),
	}
	if err := s.InsertExtractedText(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := s.InsertExtractedText(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	got, err := s.LatestText(ctx, doc.ID)
	if err != nil {
		t.Fatalf("latest text: %v", err)
	}
	if got.RawText != "new text" || got.Method != constants.MethodDirectPDF {
		t.Errorf("latest = %+v", got)
	}

	if _, err := s.LatestText(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing text err = %v, want ErrNotFound", err)
	}
}
