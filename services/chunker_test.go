package services

import (
	"strings"
	"testing"
)

func TestSplitIntoChunksEmpty(t *testing.T) {
	if chunks := SplitIntoChunks("", 10000, 1000); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitIntoChunksShortInput(t *testing.T) {
	text := "The capital of France is Paris."
	chunks := SplitIntoChunks(text, 10000, 1000)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("chunk does not equal input: %q", chunks[0])
	}
}

func TestSplitIntoChunksExactSize(t *testing.T) {
	text := strings.Repeat("a", 1000)
	chunks := SplitIntoChunks(text, 1000, 100)
	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("input of exactly chunkSize must yield one chunk, got %d", len(chunks))
	}
}

func TestSplitIntoChunksSizeAndOverlap(t *testing.T) {
	// No natural boundaries, so every cut is a hard cut and the overlap
	// is exact.
	text := strings.Repeat("a", 2500)
	chunkSize, overlap := 1000, 100

	chunks := SplitIntoChunks(text, chunkSize, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	total := 0
	for i, chunk := range chunks {
		if len(chunk) > chunkSize {
			t.Fatalf("chunk %d exceeds chunkSize: %d", i, len(chunk))
		}
		total += len(chunk)
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		suffix := prev[len(prev)-overlap:]
		if !strings.HasPrefix(chunks[i], suffix) {
			t.Fatalf("chunk %d does not start with the previous chunk's %d-char suffix", i, overlap)
		}
	}

	// Every input character is covered: lengths minus overlaps add up.
	if covered := total - overlap*(len(chunks)-1); covered != len(text) {
		t.Fatalf("chunks cover %d characters, input has %d", covered, len(text))
	}
}

func TestSplitIntoChunksPrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("x", 80)
	para2 := strings.Repeat("y", 200)
	text := para1 + "\n\n" + para2

	chunks := SplitIntoChunks(text, 100, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Fatalf("first chunk should end at the paragraph break, got %q", chunks[0][len(chunks[0])-10:])
	}
}

func TestSplitIntoChunksPrefersSentenceBoundary(t *testing.T) {
	sentence := "This sentence is about thirty characters. "
	text := strings.Repeat(sentence, 20)

	chunks := SplitIntoChunks(text, 100, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		trimmed := strings.TrimRight(chunks[i], " ")
		if !strings.HasSuffix(trimmed, ".") {
			t.Fatalf("chunk %d should end at a sentence boundary, got %q", i, chunks[i])
		}
	}
}

func TestSplitIntoChunksDeterministic(t *testing.T) {
	text := strings.Repeat("some words repeated over and over. ", 100)
	a := SplitIntoChunks(text, 300, 50)
	b := SplitIntoChunks(text, 300, 50)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
