package logs

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"transsrt/internal/logging"
)

var levelOrder = []string{"debug", "info", "warn", "error"}

// Filter selects JSON log records. Empty fields match everything. Lines that
// are not JSON only pass an empty filter.
type Filter struct {
	// JobID matches by prefix so short IDs from `transsrt jobs list` work.
	JobID     string
	Component string
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
}

func (f Filter) empty() bool {
	return f.JobID == "" && f.Component == "" && f.MinLevel == ""
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	record, ok := decode(line)
	if !ok {
		return false
	}
	if f.JobID != "" && !strings.HasPrefix(stringField(record, logging.FieldJobID), f.JobID) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(stringField(record, logging.FieldComponent), f.Component) {
		return false
	}
	if f.MinLevel != "" && levelRank(stringField(record, "level")) < levelRank(f.MinLevel) {
		return false
	}
	return true
}

// FormatLine renders a JSON record as "ts LEVEL [component] msg key=value ...".
// Non-JSON lines are returned unchanged.
func FormatLine(line string) string {
	record, ok := decode(line)
	if !ok {
		return line
	}
	var b strings.Builder
	b.WriteString(stringField(record, "ts"))
	b.WriteString(" ")
	b.WriteString(strings.ToUpper(stringField(record, "level")))
	if component := stringField(record, logging.FieldComponent); component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	b.WriteString(" ")
	b.WriteString(stringField(record, "msg"))

	keys := make([]string, 0, len(record))
	for key := range record {
		switch key {
		case "ts", "level", "msg", logging.FieldComponent, "source":
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, record[key])
	}
	return b.String()
}

func decode(line string) (map[string]any, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, false
	}
	return record, true
}

func stringField(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}

func levelRank(level string) int {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	if idx := slices.Index(levelOrder, level); idx >= 0 {
		return idx
	}
	return 0
}
