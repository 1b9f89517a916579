package llm

import (
	"context"
	"time"
)

// SummaryStyle selects the shape of a requested summary.
type SummaryStyle string

const (
	StyleBrief        SummaryStyle = "brief"
	StyleDetailed     SummaryStyle = "detailed"
	StyleBulletPoints SummaryStyle = "bullet_points"
)

// Summary is the adapter's summarization output plus provenance.
type Summary struct {
	Content       string
	ModelID       string
	TokenEstimate int
	Latency       time.Duration
}

// Classification is the adapter's topic-classification output. Label
// is always one of the caller's allowed labels: the client re-validates
// the model's choice before returning.
type Classification struct {
	Label      string
	Confidence float64
	Category   string
	Tags       []string
	Reasoning  string
	ModelID    string
	Latency    time.Duration
}

// Enricher is the capability interface the scheduler depends on.
type Enricher interface {
	Summarize(ctx context.Context, text string, style SummaryStyle) (Summary, error)
	Classify(ctx context.Context, text string, allowedLabels []string) (Classification, error)
	HealthCheck(ctx context.Context) error
}

// EstimateTokens is a rough estimation (1 token ~= 4 characters).
func EstimateTokens(text string) int {
	return len(text) / 4
}
