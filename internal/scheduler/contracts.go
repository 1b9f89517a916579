package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/constants"
	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/entity"
	"github.com/joseph-ayodele/doc-enricher/internal/repository"
)

// Store is the slice of the repository the scheduler needs: the task
// queue plus read access to extracted text.
type Store interface {
	repository.TaskRepository
	repository.TextRepository
}

// EnqueueEnrichment creates the enrichment tasks for a freshly
// extracted document. Summarization runs ahead of classification
// (lower priority value wins), and each task type honors its feature
// flag.
func EnqueueEnrichment(ctx context.Context, tasks repository.TaskRepository, cfg common.SchedulerConfig, documentID uuid.UUID) error {
	if cfg.EnableSummarization {
		t := &entity.ProcessingTask{
			DocumentID: documentID,
			Type:       constants.TaskSummarize,
			Priority:   1,
			Payload:    entity.MarshalPayload(entity.SummarizePayload{Style: "brief"}),
		}
		if err := tasks.EnqueueTask(ctx, t); err != nil {
			return err
		}
	}
	if cfg.EnableClassification {
		t := &entity.ProcessingTask{
			DocumentID: documentID,
			Type:       constants.TaskClassify,
			Priority:   2,
			Payload:    entity.MarshalPayload(entity.ClassifyPayload{}),
		}
		if err := tasks.EnqueueTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
