package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/llm"
)

// classifyTextLimit bounds how much document text goes into the
// classification prompt; the opening of a document carries most of the
// topical signal.
const classifyTextLimit = 3000

// Summarize implements llm.Enricher. Inputs beyond the chunking
// threshold are reduced in two passes: summarize each chunk, then
// summarize the concatenation of chunk summaries.
func (c *Client) Summarize(ctx context.Context, text string, style llm.SummaryStyle) (llm.Summary, error) {
	rid := uuid.New().String()
	start := time.Now()

	instruction, lengthHint := summaryInstruction(style)

	c.logger.Info("llm.summarize.start",
		"req_id", rid, "model", c.cfg.Model, "style", string(style), "text_len", len(text))

	chunks := llm.SummarizeChunks(text)
	var content string
	var err error
	if len(chunks) == 1 {
		content, err = c.chat(ctx, fmt.Sprintf("%s\n\nText:\n%s\n\n%s", instruction, chunks[0], lengthHint))
	} else {
		partials := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			var partial string
			partial, err = c.chat(ctx, fmt.Sprintf("%s\n\nText chunk %d:\n%s\n\n%s", instruction, i+1, chunk, lengthHint))
			if err != nil {
				break
			}
			partials = append(partials, partial)
		}
		if err == nil {
			combined := strings.Join(partials, "\n")
			content, err = c.chat(ctx, fmt.Sprintf(
				"Combine these summaries into one cohesive %s summary:\n\n%s\n\n%s", style, combined, lengthHint))
		}
	}
	if err != nil {
		c.logger.Error("llm.summarize.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.Summary{}, err
	}

	c.logger.Info("llm.summarize.ok", "req_id", rid, "chunks", len(chunks),
		"summary_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())

	return llm.Summary{
		Content:       content,
		ModelID:       c.cfg.Model,
		TokenEstimate: llm.EstimateTokens(content),
		Latency:       time.Since(start),
	}, nil
}

// Classify implements llm.Enricher. The model reply is untrusted free
// text: the JSON object is extracted by pattern, validated against a
// schema, and its label reconciled against allowedLabels. An
// unparseable reply is recovered into a low-confidence fallback rather
// than failing the task.
func (c *Client) Classify(ctx context.Context, text string, allowedLabels []string) (llm.Classification, error) {
	rid := uuid.New().String()
	start := time.Now()

	if len(allowedLabels) == 0 {
		allowedLabels = []string{"other"}
	}

	c.logger.Info("llm.classify.start",
		"req_id", rid, "model", c.cfg.Model, "text_len", len(text), "labels", len(allowedLabels))

	excerpt := text
	if len(excerpt) > classifyTextLimit {
		cut := classifyTextLimit
		// never split a multi-byte rune at the cut point
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	content, err := c.chat(ctx, classifyPrompt(excerpt, allowedLabels))
	if err != nil {
		c.logger.Error("llm.classify.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.Classification{}, err
	}

	out, ok := c.parseClassification(rid, content, allowedLabels)
	out.ModelID = c.cfg.Model
	out.Latency = time.Since(start)

	c.logger.Info("llm.classify.ok", "req_id", rid, "label", out.Label,
		"confidence", out.Confidence, "parsed", ok,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// HealthCheck implements llm.Enricher with a minimal round trip.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.chat(ctx, "Reply with the single word: ok")
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return common.WrapError(common.ErrAdapterUnavailable, "health check returned empty reply")
	}
	return nil
}

func (c *Client) parseClassification(rid, content string, allowedLabels []string) (llm.Classification, bool) {
	fallback := llm.Classification{
		Label:      llm.FallbackLabel(allowedLabels),
		Confidence: 0.3,
		Category:   "other",
		Reasoning:  "failed to parse model response",
	}

	raw, found := llm.ExtractJSONObject(content)
	if !found {
		c.logger.Warn("llm.classify.no_json_in_reply", "req_id", rid)
		return fallback, false
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildClassificationSchema(), raw); err != nil {
		c.logger.Warn("llm.classify.schema_validation_failed", "req_id", rid, "error", err)
		return fallback, false
	}

	var parsed struct {
		PrimaryTopic string   `json:"primary_topic"`
		Category     string   `json:"category"`
		Confidence   float64  `json:"confidence"`
		Tags         []string `json:"tags"`
		Reasoning    string   `json:"reasoning"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Warn("llm.classify.unmarshal_failed", "req_id", rid, "error", err)
		return fallback, false
	}

	label, confidence, matched := llm.ResolveLabel(parsed.PrimaryTopic, parsed.Confidence, allowedLabels)
	if !matched {
		c.logger.Warn("llm.classify.label_not_allowed",
			"req_id", rid, "chosen", parsed.PrimaryTopic, "fallback", label)
		parsed.Reasoning = fmt.Sprintf("no match found for %q, defaulted to %q", parsed.PrimaryTopic, label)
	}
	return llm.Classification{
		Label:      label,
		Confidence: confidence,
		Category:   parsed.Category,
		Tags:       parsed.Tags,
		Reasoning:  parsed.Reasoning,
	}, true
}

// chat posts one user message and returns the first choice's content.
func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", common.WrapError(common.ErrTimeout, "chat completion")
		}
		return "", common.NewAppError("ADAPTER_HTTP", "chat completion request failed",
			fmt.Errorf("%w: %v", common.ErrAdapterUnavailable, err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("llm.http.response_body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", common.NewAppError("ADAPTER_STATUS",
			fmt.Sprintf("chat completion status %d: %s", resp.StatusCode, truncate(string(raw), 512)),
			common.ErrAdapterUnavailable)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.WrapError(common.ErrMalformedResponse, "decode chat completion")
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		return "", common.WrapError(common.ErrMalformedResponse, "chat completion had no content")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func summaryInstruction(style llm.SummaryStyle) (instruction, lengthHint string) {
	switch style {
	case llm.StyleBrief:
		return "Write a brief 2-3 sentence summary of the following text:", "Keep it under 200 words."
	case llm.StyleDetailed:
		return "Write a detailed summary of the following text, covering all key points:", "Aim for 300-500 words."
	case llm.StyleBulletPoints:
		return "Create a bullet-point summary of the following text:", "Use 5-10 bullet points."
	default:
		return "Summarize the following text:", "Keep it concise."
	}
}

func classifyPrompt(text string, labels []string) string {
	list := strings.Join(labels, ", ")
	return fmt.Sprintf(`Analyze the following text and classify it using ONLY the available subjects listed below.

Available subjects to choose from:
%s

Text to analyze:
%s

Instructions:
1. Read the text carefully
2. Choose the BEST matching subject from the available subjects list above
3. If the text clearly matches one of the subjects, be confident (0.8+ confidence)
4. Only use "other" if the text truly doesn't match any available subject
5. The primary_topic MUST be exactly one of the subjects from the list above

Respond with ONLY valid JSON in this exact format:
{
    "primary_topic": "exact subject name from the list above",
    "category": "academic",
    "confidence": 0.85,
    "tags": ["relevant", "keywords", "from", "text"],
    "reasoning": "why you chose this specific subject from the available options"
}

Remember: primary_topic must be EXACTLY one of these: %s`, list, text, list)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
