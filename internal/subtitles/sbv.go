package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"transsrt/internal/services"
)

var sbvTimePattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{3}),(\d+):(\d{2}):(\d{2})\.(\d{3})$`)

// SBV implements Adapter for YouTube SBV caption files. Parsed entries carry
// SRT time ranges and are numbered 1..N; Format emits SRT.
type SBV struct{}

// Name reports FormatSBV.
func (SBV) Name() Format { return FormatSBV }

// Validate reports whether text contains at least one SBV timestamp line.
func (SBV) Validate(text string) bool {
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if sbvTimePattern.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// Parse reads SBV cues: a timestamp line followed by text lines, cues
// separated by blank lines.
func (SBV) Parse(text string) ([]Entry, error) {
	lines := strings.Split(normalizeNewlines(text), "\n")
	var entries []Entry
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		i++
		match := sbvTimePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		var body []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !sbvTimePattern.MatchString(strings.TrimSpace(lines[i])) {
			body = append(body, strings.TrimSpace(lines[i]))
			i++
		}
		cueText := strings.TrimSpace(strings.Join(body, "\n"))
		if cueText == "" {
			continue
		}
		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			TimeRange: sbvToSRTTime(match[1:5]) + " --> " + sbvToSRTTime(match[5:9]),
			Text:      cueText,
		})
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrInvalidFormat, "subtitles", "parse sbv", "no subtitle entries found", nil)
	}
	return entries, nil
}

// Format emits SRT; SBV output is not produced.
func (SBV) Format(entries []Entry) (string, error) {
	return SRT{}.Format(entries)
}

// sbvToSRTTime converts ["0","01","30","400"] to "00:01:30,400".
func sbvToSRTTime(parts []string) string {
	hours, _ := strconv.Atoi(parts[0])
	return fmt.Sprintf("%02d:%s:%s,%s", hours, parts[1], parts[2], parts[3])
}
