// Package chunker splits an ordered subtitle sequence into fixed-size chunks,
// each carrying a few preceding entries as read-only context.
package chunker

import (
	"fmt"

	"transsrt/internal/services"
	"transsrt/internal/subtitles"
)

// ErrEmptyInput is returned when there is nothing to chunk.
var ErrEmptyInput = services.Wrap(services.ErrEmptyInput, "chunker", "create", "no subtitle entries", nil)

// Chunk is a contiguous slice of entries submitted to the engine as one unit.
// Context entries precede Entries in the source file and are never translated
// or emitted.
type Chunk struct {
	Entries  []subtitles.Entry
	Position int
	Total    int
	Context  []subtitles.Entry
}

// Create slices entries into ceil(len/chunkSize) chunks starting at offset 0.
// Each chunk's context is the up to contextSize entries immediately before it
// in the flat sequence, so the first chunk has none. A negative contextSize is
// treated as 0.
func Create(entries []subtitles.Entry, chunkSize, contextSize int) ([]Chunk, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyInput
	}
	if chunkSize < 1 {
		return nil, services.Wrap(services.ErrInvalidArgument, "chunker", "create", fmt.Sprintf("chunk size must be >= 1, got %d", chunkSize), nil)
	}
	if contextSize < 0 {
		contextSize = 0
	}

	total := (len(entries) + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, total)
	for start := 0; start < len(entries); start += chunkSize {
		end := min(start+chunkSize, len(entries))
		ctxStart := max(0, start-contextSize)
		chunks = append(chunks, Chunk{
			Entries:  entries[start:end:end],
			Position: len(chunks) + 1,
			Total:    total,
			Context:  entries[ctxStart:start:start],
		})
	}
	return chunks, nil
}

// Summary describes a chunk plan for logging.
type Summary struct {
	TotalChunks  int
	TotalEntries int
	AverageSize  float64
	Sizes        []int
	ContextSize  int
}

// Summarize reports chunk counts and sizes.
func Summarize(chunks []Chunk) Summary {
	s := Summary{TotalChunks: len(chunks), Sizes: make([]int, len(chunks))}
	for i, c := range chunks {
		s.Sizes[i] = len(c.Entries)
		s.TotalEntries += len(c.Entries)
		s.ContextSize = max(s.ContextSize, len(c.Context))
	}
	if s.TotalChunks > 0 {
		s.AverageSize = float64(s.TotalEntries) / float64(s.TotalChunks)
	}
	return s
}
