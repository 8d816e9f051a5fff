package subtitles

import (
	"fmt"
	"path/filepath"
	"strings"

	"transsrt/internal/services"
)

// Entry is one timed subtitle cue. Index is 1-based and strictly increasing
// within a parsed file; TimeRange is kept verbatim in SRT notation.
type Entry struct {
	Index     int    `json:"index"`
	TimeRange string `json:"time_range"`
	Text      string `json:"text"`
}

// Format names a subtitle grammar.
type Format string

const (
	FormatSRT Format = "srt"
	FormatSBV Format = "sbv"
)

// Adapter validates and parses one subtitle grammar and renders entries.
type Adapter interface {
	Name() Format
	Validate(text string) bool
	Parse(text string) ([]Entry, error)
	Format(entries []Entry) (string, error)
}

// For returns the adapter for a format.
func For(format Format) (Adapter, error) {
	switch format {
	case FormatSRT:
		return SRT{}, nil
	case FormatSBV:
		return SBV{}, nil
	default:
		return nil, services.Wrap(services.ErrInvalidFormat, "subtitles", "adapter", fmt.Sprintf("unsupported format %q", format), nil)
	}
}

// FormatFromName maps a filename extension to a format.
func FormatFromName(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".srt":
		return FormatSRT, true
	case ".sbv":
		return FormatSBV, true
	default:
		return "", false
	}
}

// Detect chooses a format by extension, falling back to content sniffing when
// the name carries no recognized extension.
func Detect(name, text string) (Format, error) {
	if format, ok := FormatFromName(name); ok {
		return format, nil
	}
	if (SRT{}).Validate(text) {
		return FormatSRT, nil
	}
	if (SBV{}).Validate(text) {
		return FormatSBV, nil
	}
	return "", services.Wrap(services.ErrInvalidFormat, "subtitles", "detect", "content is neither SRT nor SBV", nil)
}

// renumber guarantees strictly increasing indexes. Source numbering is kept
// when it already satisfies that, otherwise entries are numbered 1..N.
func renumber(entries []Entry) []Entry {
	prev := 0
	ordered := true
	for _, e := range entries {
		if e.Index <= prev {
			ordered = false
			break
		}
		prev = e.Index
	}
	if ordered {
		return entries
	}
	for i := range entries {
		entries[i].Index = i + 1
	}
	return entries
}

func normalizeNewlines(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
