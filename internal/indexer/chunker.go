package indexer

import (
	"strings"

	"docchat/internal/storage"
)

// DefaultMaxChars is the chunk window used when no positive limit is configured.
const DefaultMaxChars = 1500

// Chunker splits text into windows of at most maxChars characters, preferring
// to cut at the last newline of a window unless that would leave a chunk shorter
// than a third of the window.
type Chunker struct {
	maxChars int
}

// NewChunker creates a new Chunker. A non-positive maxChars selects DefaultMaxChars.
func NewChunker(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Chunker{maxChars: maxChars}
}

// MaxChars returns the window size in characters.
func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// Chunk returns the trimmed, non-empty chunks of text with indices starting at 0.
// Lengths are counted in Unicode code points.
func (c *Chunker) Chunk(docID, fileName, text string) []storage.Chunk {
	chunks := []storage.Chunk{}
	if strings.TrimSpace(text) == "" {
		return chunks
	}

	runes := []rune(text)
	n := len(runes)
	minSplit := c.maxChars / 3

	for start := 0; start < n; {
		end := min(start+c.maxChars, n)

		split := lastNewline(runes, start, end)
		if split == -1 || split <= start+minSplit {
			split = end
		}

		if segment := strings.TrimSpace(string(runes[start:split])); segment != "" {
			chunks = append(chunks, storage.Chunk{
				DocID:    docID,
				FileName: fileName,
				Index:    len(chunks),
				Text:     segment,
			})
		}
		start = split
	}

	return chunks
}

// lastNewline returns the position of the last '\n' in runes[start:end], or -1.
func lastNewline(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}
