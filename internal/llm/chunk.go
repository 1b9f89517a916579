package llm

import (
	"regexp"
	"strings"
)

// Inputs longer than chunkThreshold are summarized in two passes:
// chunk summaries first, then a summary of the concatenated summaries.
// This keeps each call inside the adapter's per-call input limit.
const (
	chunkThreshold = 40000
	maxChunkSize   = 30000
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// SummarizeChunks returns the pieces for a summarization run: the
// whole text as a single chunk when it fits in one call, sentence
// chunks otherwise.
func SummarizeChunks(text string) []string {
	if len(text) <= chunkThreshold {
		return []string{text}
	}
	return ChunkText(text, maxChunkSize)
}

// ChunkText splits text into chunks of at most maxSize characters,
// breaking on sentence boundaries so no sentence is cut in half.
func ChunkText(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = maxChunkSize
	}
	sentences := sentenceEnd.Split(text, -1)

	var chunks []string
	var current strings.Builder
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(s) > maxSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(s)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(s)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
