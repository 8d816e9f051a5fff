package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"transsrt/internal/services"
)

var (
	srtIndexPattern = regexp.MustCompile(`^\d+$`)
	srtTimePattern  = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{1,2}:\d{2}:\d{2}[,.]\d{3}`)
)

// SRT implements Adapter for SubRip files.
type SRT struct{}

// Name reports FormatSRT.
func (SRT) Name() Format { return FormatSRT }

// Validate reports whether text contains at least one well-formed SRT cue.
func (SRT) Validate(text string) bool {
	lines := strings.Split(normalizeNewlines(text), "\n")
	for i := 0; i+1 < len(lines); i++ {
		if isCueStart(lines, i) {
			return true
		}
	}
	return false
}

// Parse reads SRT cues. Blank lines inside cue text are tolerated; a cue ends
// where the next "index / time range" pair begins. Cues with empty text are
// dropped.
func (SRT) Parse(text string) ([]Entry, error) {
	lines := strings.Split(normalizeNewlines(text), "\n")
	var entries []Entry
	i := 0
	for i < len(lines) {
		if !isCueStart(lines, i) {
			i++
			continue
		}
		index, _ := strconv.Atoi(strings.TrimSpace(lines[i]))
		timeRange := strings.TrimSpace(lines[i+1])
		i += 2
		var body []string
		for i < len(lines) && !isCueStart(lines, i) {
			body = append(body, lines[i])
			i++
		}
		cueText := strings.TrimSpace(strings.Join(body, "\n"))
		if cueText == "" {
			continue
		}
		entries = append(entries, Entry{Index: index, TimeRange: timeRange, Text: cueText})
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrInvalidFormat, "subtitles", "parse srt", "no subtitle entries found", nil)
	}
	return renumber(entries), nil
}

// Format emits entries as SRT blocks separated by blank lines.
func (SRT) Format(entries []Entry) (string, error) {
	var b strings.Builder
	for i, e := range entries {
		if e.Index < 1 {
			return "", fmt.Errorf("entry %d: invalid index %d", i, e.Index)
		}
		if strings.TrimSpace(e.TimeRange) == "" {
			return "", fmt.Errorf("entry %d: empty time range", e.Index)
		}
		b.WriteString(strconv.Itoa(e.Index))
		b.WriteByte('\n')
		b.WriteString(e.TimeRange)
		b.WriteByte('\n')
		b.WriteString(e.Text)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func isCueStart(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	return srtIndexPattern.MatchString(strings.TrimSpace(lines[i])) &&
		srtTimePattern.MatchString(strings.TrimSpace(lines[i+1]))
}
