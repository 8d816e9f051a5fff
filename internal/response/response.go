// Package response validates engine replies against the numbered-line
// contract: every requested ordinal must come back exactly once as
// "N. text". Results are returned in ordinal order regardless of the order the
// engine wrote them in.
package response

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"transsrt/internal/logging"
	"transsrt/internal/services"
)

const missingPreviewLimit = 10

var linePattern = regexp.MustCompile(`^\s*(\d+)\s*[.)]\s*(.*)$`)

// MissingError reports ordinals the engine did not return.
type MissingError struct {
	Missing  []int
	Expected int
}

func (e *MissingError) Error() string {
	preview := e.Missing
	if len(preview) > missingPreviewLimit {
		preview = preview[:missingPreviewLimit]
	}
	parts := make([]string, len(preview))
	for i, n := range preview {
		parts[i] = strconv.Itoa(n)
	}
	list := strings.Join(parts, ", ")
	if extra := len(e.Missing) - len(preview); extra > 0 {
		list += fmt.Sprintf(" ... (+%d more)", extra)
	}
	return fmt.Sprintf("response missing %d of %d entries: %s", len(e.Missing), e.Expected, list)
}

// Unwrap classifies the failure as a validation error.
func (e *MissingError) Unwrap() error { return services.ErrValidation }

// Parse extracts exactly expected translations from raw.
func Parse(raw string, expected int) ([]string, error) {
	return ParseWithLogger(raw, expected, nil)
}

// ParseWithLogger is Parse with discarded lines reported to logger.
func ParseWithLogger(raw string, expected int, logger *slog.Logger) ([]string, error) {
	if expected < 1 {
		return nil, services.Wrap(services.ErrInvalidArgument, "response", "parse", fmt.Sprintf("expected count must be >= 1, got %d", expected), nil)
	}
	logger = logging.NewComponentLogger(logger, "response")

	results := make([]string, expected)
	seen := make([]bool, expected)
	discarded := 0
	for lineNo, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			continue
		}
		match := linePattern.FindStringSubmatch(trimmed)
		text := ""
		if match != nil {
			text = strings.TrimSpace(match[2])
		}
		if match == nil || text == "" {
			discarded++
			logging.WarnWithContext(logger, "discarding malformed response line", "response_line_discarded",
				logging.Int("line", lineNo+1),
				logging.String("reason", "not a numbered line"),
				logging.String(logging.FieldImpact, "line ignored"),
			)
			continue
		}
		ordinal, err := strconv.Atoi(match[1])
		if err != nil || ordinal < 1 || ordinal > expected {
			discarded++
			logging.WarnWithContext(logger, "discarding out-of-range response line", "response_line_discarded",
				logging.Int("line", lineNo+1),
				logging.String("ordinal", match[1]),
				logging.Int("expected", expected),
				logging.String(logging.FieldImpact, "line ignored"),
			)
			continue
		}
		if seen[ordinal-1] {
			discarded++
			logging.WarnWithContext(logger, "discarding duplicate response line", "response_line_discarded",
				logging.Int("line", lineNo+1),
				logging.Int("ordinal", ordinal),
				logging.String(logging.FieldImpact, "first occurrence kept"),
			)
			continue
		}
		seen[ordinal-1] = true
		results[ordinal-1] = text
	}

	var missing []int
	for i, ok := range seen {
		if !ok {
			missing = append(missing, i+1)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Missing: missing, Expected: expected}
	}
	if discarded > 0 {
		logger.Debug("response parsed with discarded lines", logging.Int("discarded", discarded), logging.Int("expected", expected))
	}
	return results, nil
}
