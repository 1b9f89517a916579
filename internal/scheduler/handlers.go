package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
	"github.com/joseph-ayodele/doc-enricher/internal/llm"
)

// Minimum non-whitespace characters of extracted text per task type.
// Below these the adapter would only hallucinate, so the task fails
// fast without a call.
const (
	minSummarizeChars = 50
	minClassifyChars  = 20
)

func (s *Scheduler) handleTask(ctx context.Context, task *entity.ProcessingTask) {
	log := s.log.With("task_id", task.ID, "document_id", task.DocumentID, "task_type", string(task.Type))

	claimed, err := s.store.ClaimTask(ctx, task.ID, time.Now().UTC())
	if err != nil {
		log.Error("task claim failed", "error", err)
		return
	}
	if !claimed {
		log.Debug("task already claimed")
		return
	}

	start := time.Now()
	err = s.runTask(ctx, task)
	elapsed := time.Since(start)

	if err == nil {
		s.metrics.TaskDone(string(task.Type), "completed", elapsed)
		log.Info("task completed", "duration_ms", elapsed.Milliseconds())
		return
	}

	if common.Retryable(err) && task.Attempts+1 < s.cfg.MaxRetryAttempts {
		if rqErr := s.store.RequeueTask(ctx, task.ID, err.Error()); rqErr != nil {
			log.Error("task requeue failed", "error", rqErr)
			return
		}
		s.metrics.TaskDone(string(task.Type), "requeued", elapsed)
		log.Warn("task requeued", "attempt", task.Attempts+1, "error", err)
		return
	}

	if failErr := s.store.FailTask(ctx, task.ID, err.Error(), time.Now().UTC()); failErr != nil {
		log.Error("task fail-mark failed", "error", failErr)
		return
	}
	s.metrics.TaskDone(string(task.Type), "failed", elapsed)
	log.Error("task failed", "attempt", task.Attempts+1, "error", err)
}

// runTask executes the claimed task body. The adapter call runs under
// the per-task timeout; persistence runs on the parent context so a
// slow adapter cannot leave a finished result unrecorded.
func (s *Scheduler) runTask(ctx context.Context, task *entity.ProcessingTask) error {
	text, err := s.store.LatestText(ctx, task.DocumentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoExtractedText
		}
		return err
	}

	switch task.Type {
	case constants.TaskSummarize:
		return s.runSummarize(ctx, task, text)
	case constants.TaskClassify:
		return s.runClassify(ctx, task, text)
	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}

func (s *Scheduler) runSummarize(ctx context.Context, task *entity.ProcessingTask, text *entity.ExtractedText) error {
	if nonWhitespaceLen(text.RawText) < minSummarizeChars {
		return common.ErrTextTooShort
	}
	payload, err := task.SummarizePayloadOf()
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	result, err := s.enricher.Summarize(callCtx, text.RawText, llm.SummaryStyle(payload.Style))
	cancel()
	if err != nil {
		s.metrics.AdapterRequest("error")
		return err
	}
	s.metrics.AdapterRequest("ok")

	sum := &entity.Summary{
		DocumentID: task.DocumentID,
		Text:       result.Content,
		Style:      payload.Style,
		ModelID:    result.ModelID,
		TokensUsed: result.TokenEstimate,
		Latency:    result.Latency,
	}
	return s.store.CompleteTaskWithSummary(ctx, task.ID, sum, time.Now().UTC())
}

func (s *Scheduler) runClassify(ctx context.Context, task *entity.ProcessingTask, text *entity.ExtractedText) error {
	if nonWhitespaceLen(text.RawText) < minClassifyChars {
		return common.ErrTextTooShort
	}
	payload, err := task.ClassifyPayloadOf()
	if err != nil {
		return err
	}
	labels := payload.AllowedLabels
	if len(labels) == 0 {
		labels = s.cfg.DefaultLabels
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	result, err := s.enricher.Classify(callCtx, text.RawText, labels)
	cancel()
	if err != nil {
		s.metrics.AdapterRequest("error")
		return err
	}
	s.metrics.AdapterRequest("ok")

	c := &entity.Classification{
		DocumentID: task.DocumentID,
		Label:      result.Label,
		Confidence: result.Confidence,
		Category:   result.Category,
		Tags:       result.Tags,
		Reasoning:  result.Reasoning,
		ModelID:    result.ModelID,
		Latency:    result.Latency,
	}
	return s.store.CompleteTaskWithClassification(ctx, task.ID, c, time.Now().UTC())
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
