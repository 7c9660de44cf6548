package services

// SplitIntoChunks splits text into chunks of at most chunkSize characters,
// each subsequent chunk overlapping the previous by overlap characters to
// preserve context across boundaries. Cuts prefer a paragraph break, then
// a sentence end, then a word boundary, falling back to a hard cut only
// when the window contains none. Deterministic, no side effects.
//
// Empty input yields no chunks; input no longer than chunkSize yields
// exactly one chunk equal to the input.
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 10000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := boundaryCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			// Overlap would not advance; drop it for this boundary.
			next = cut
		}
		start = next
	}

	return chunks
}

// boundaryCut picks the cut position in runes[start:end], scanning backward
// for a natural boundary. Snapping is bounded to the second half of the
// window so chunks stay near chunkSize.
func boundaryCut(runes []rune, start, end int) int {
	floor := start + (end-start)/2

	// Paragraph break: cut after the blank line.
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}

	// Sentence end: cut after the terminator and its trailing space.
	for i := end - 2; i > floor; i-- {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 2
		}
	}

	// Word boundary: cut at whitespace.
	for i := end - 1; i > floor; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}

	// Hard cut.
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
