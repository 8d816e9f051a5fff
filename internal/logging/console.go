package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders records for a terminal:
//
//	2026-01-02 15:04:05 INFO [translator] Job 1a2b3c4d (chunk 3) – chunk translated
//	    - Entries: 50
//	    - Attempts: 2
//
// Debug records list every attribute as "key: value". The caller is appended
// when source output is enabled.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		flattenAttr(&fields, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})
	fields = lastValuePerKey(fields)

	var buf bytes.Buffer
	buf.Grow(256 + len(fields)*32)
	h.writeHeader(&buf, ts, record, fields)
	buf.WriteByte('\n')
	if record.Level < slog.LevelInfo {
		writeDebugFields(&buf, fields)
	} else {
		writeInfoFields(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) writeHeader(buf *bytes.Buffer, ts time.Time, record slog.Record, fields []kv) {
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component := fieldString(fields, FieldComponent); component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if subject := composeSubject(fieldString(fields, FieldJobID), fieldString(fields, FieldChunk)); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [")
			buf.WriteString(filepath.Base(src.File))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(src.Line))
			buf.WriteByte(']')
		}
	}
}

// composeSubject renders "Job 1a2b3c4d (chunk 3)" from the job and chunk fields.
func composeSubject(jobID, chunk string) string {
	jobID = strings.TrimSpace(jobID)
	chunk = strings.TrimSpace(chunk)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case jobID != "" && chunk != "":
		return "Job " + jobID + " (chunk " + chunk + ")"
	case jobID != "":
		return "Job " + jobID
	case chunk != "":
		return "chunk " + chunk
	default:
		return ""
	}
}

func writeDebugFields(buf *bytes.Buffer, fields []kv) {
	for _, f := range fields {
		buf.WriteString("    ")
		buf.WriteString(f.key)
		buf.WriteString(": ")
		if isSecretKey(f.key) {
			buf.WriteString(redacted)
		} else {
			buf.WriteString(formatValue(f.value))
		}
		buf.WriteByte('\n')
	}
}

// writeInfoFields prints the operator-facing fields, most useful first.
func writeInfoFields(buf *bytes.Buffer, fields []kv) {
	shown := make([]kv, 0, len(fields))
	for _, f := range fields {
		if inHeader(f.key) || debugOnly(f.key) {
			continue
		}
		shown = append(shown, f)
	}
	sort.SliceStable(shown, func(i, j int) bool {
		return fieldRank(shown[i].key) < fieldRank(shown[j].key)
	})
	for _, f := range shown {
		buf.WriteString("    - ")
		buf.WriteString(fieldLabel(f.key))
		buf.WriteString(": ")
		buf.WriteString(infoValue(f.key, f.value))
		buf.WriteByte('\n')
	}
}

// infoOrder lists keys that lead the info block; other keys follow in
// emission order.
var infoOrder = []string{
	FieldEventType,
	FieldErrorKind,
	"error",
	"file",
	"output",
	"entries",
	FieldChunkTotal,
	FieldAttempt,
	"attempts",
	"retries",
	"backoff",
	"missing",
	"discarded",
	"failed_chunks",
	"provider",
	"model",
	"duration",
	"elapsed",
	FieldErrorHint,
	"impact",
}

var infoRank = func() map[string]int {
	rank := make(map[string]int, len(infoOrder))
	for i, key := range infoOrder {
		rank[key] = i
	}
	return rank
}()

func fieldRank(key string) int {
	if r, ok := infoRank[key]; ok {
		return r
	}
	return len(infoOrder)
}

var fieldLabels = map[string]string{
	FieldEventType:  "Event",
	FieldErrorKind:  "Error Kind",
	FieldErrorHint:  "Hint",
	FieldChunkTotal: "Chunks",
	"size_bytes":    "Size",
}

func fieldLabel(key string) string {
	if label, ok := fieldLabels[key]; ok {
		return label
	}
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}

func inHeader(key string) bool {
	return key == FieldComponent || key == FieldJobID || key == FieldChunk
}

// debugOnly keys identify processes, requests and files rather than outcomes.
func debugOnly(key string) bool {
	switch key {
	case FieldCorrelationID, FieldSessionID, "payload_snippet":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

const (
	maxInfoValue  = 120
	maxErrorValue = 200
)

func infoValue(key string, v slog.Value) string {
	if isSecretKey(key) {
		return redacted
	}
	v = v.Resolve()
	switch {
	case strings.HasSuffix(key, "_bytes") && v.Kind() == slog.KindInt64:
		return formatBytes(v.Int64())
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	limit := maxInfoValue
	if key == "error" {
		limit = maxErrorValue
	}
	return truncate(formatValue(v), limit)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "…"
}

type kv struct {
	key   string
	value slog.Value
}

func fieldString(fields []kv, key string) string {
	for _, f := range fields {
		if f.key == key {
			return attrString(f.value)
		}
	}
	return ""
}

// lastValuePerKey keeps first-seen order with the latest value for each key,
// so a per-call attribute overrides one bound through With.
func lastValuePerKey(fields []kv) []kv {
	pos := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := pos[f.key]; ok {
			out[i].value = f.value
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, child := range attr.Value.Group() {
			flattenAttr(dst, next, child)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
