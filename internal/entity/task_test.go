package entity

import (
	"testing"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

func TestSummarizePayloadDefaults(t *testing.T) {
	task := &ProcessingTask{Type: constants.TaskSummarize}
	p, err := task.SummarizePayloadOf()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Style != "brief" {
		t.Errorf("style = %q, want brief", p.Style)
	}

	task.Payload = MarshalPayload(SummarizePayload{Style: "detailed"})
	p, err = task.SummarizePayloadOf()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Style != "detailed" {
		t.Errorf("style = %q, want detailed", p.Style)
	}
}

func TestPayloadTypeMismatch(t *testing.T) {
	task := &ProcessingTask{Type: constants.TaskClassify}
	if _, err := task.SummarizePayloadOf(); err == nil {
		t.Error("summarize payload of a classify task must fail")
	}
	task.Type = constants.TaskSummarize
	if _, err := task.ClassifyPayloadOf(); err == nil {
		t.Error("classify payload of a summarize task must fail")
	}
}

func TestClassifyPayloadRoundTrip(t *testing.T) {
	task := &ProcessingTask{
		Type:    constants.TaskClassify,
		Payload: MarshalPayload(ClassifyPayload{AllowedLabels: []string{"legal", "other"}}),
	}
	p, err := task.ClassifyPayloadOf()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.AllowedLabels) != 2 || p.AllowedLabels[0] != "legal" {
		t.Errorf("labels = %v", p.AllowedLabels)
	}
}
