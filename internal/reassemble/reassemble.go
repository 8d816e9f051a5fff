// Package reassemble zips translated text back onto the original entries,
// chunk by chunk, keeping every index and time range untouched.
package reassemble

import (
	"fmt"

	"transsrt/internal/chunker"
	"transsrt/internal/services"
	"transsrt/internal/subtitles"
)

// MismatchError reports a chunk whose translation list cannot cover its entries.
type MismatchError struct {
	Position     int
	Entries      int
	Translations int
}

func (e *MismatchError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("reassembly mismatch: %d chunks but %d translation lists", e.Entries, e.Translations)
	}
	return fmt.Sprintf("reassembly mismatch in chunk %d: %d entries but %d translations", e.Position, e.Entries, e.Translations)
}

// Unwrap classifies the failure as a reassembly error.
func (e *MismatchError) Unwrap() error { return services.ErrReassembly }

// Merge returns one entry per original entry with Text replaced by its
// translation. translations[i] belongs to chunks[i]; extra translations beyond
// a chunk's entry count are ignored.
func Merge(chunks []chunker.Chunk, translations [][]string) ([]subtitles.Entry, error) {
	if len(chunks) != len(translations) {
		return nil, &MismatchError{Entries: len(chunks), Translations: len(translations)}
	}
	total := 0
	for i, c := range chunks {
		if len(translations[i]) < len(c.Entries) {
			return nil, &MismatchError{Position: c.Position, Entries: len(c.Entries), Translations: len(translations[i])}
		}
		total += len(c.Entries)
	}

	out := make([]subtitles.Entry, 0, total)
	for i, c := range chunks {
		for j, entry := range c.Entries {
			out = append(out, subtitles.Entry{
				Index:     entry.Index,
				TimeRange: entry.TimeRange,
				Text:      translations[i][j],
			})
		}
	}
	return out, nil
}
