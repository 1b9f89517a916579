package llm

import (
	"strings"
	"testing"
)

func TestSummarizeChunksShortTextIsSingleChunk(t *testing.T) {
	text := "One sentence. Another sentence."
	chunks := SummarizeChunks(text)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk = %q, want input unchanged", chunks[0])
	}
}

func TestSummarizeChunksLongTextSplits(t *testing.T) {
	sentence := strings.Repeat("word ", 200) + "end."
	var b strings.Builder
	for b.Len() <= chunkThreshold {
		b.WriteString(sentence)
		b.WriteString(" ")
	}
	chunks := SummarizeChunks(b.String())
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxChunkSize {
			t.Errorf("chunk %d has %d chars, exceeds %d", i, len(c), maxChunkSize)
		}
	}
}

func TestChunkTextBreaksOnSentences(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta! Eta theta iota?"
	chunks := ChunkText(text, 25)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %v, want 3", chunks)
	}
	for _, c := range chunks {
		if strings.ContainsAny(c, ".!?") {
			t.Errorf("chunk %q should not carry sentence terminators", c)
		}
	}
	if chunks[0] != "Alpha beta gamma" {
		t.Errorf("first chunk = %q", chunks[0])
	}
}

func TestChunkTextSkipsEmptySentences(t *testing.T) {
	chunks := ChunkText("...  !!  ??", 100)
	if len(chunks) != 0 {
		t.Errorf("chunks = %v, want none", chunks)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("tokens = %d, want 100", got)
	}
}
