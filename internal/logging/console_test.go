package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestConsole(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(&buf, lvl, false)), &buf
}

func TestConsoleInfoOrdersAndFiltersFields(t *testing.T) {
	logger, buf := newTestConsole(slog.LevelInfo)
	logger.With(String(FieldComponent, "pipeline"), String(FieldJobID, "abcdef0123456789")).Info("subtitle file translated",
		String("output", "movie_en.srt"),
		String(FieldSessionID, "run-1"),
		String("db_path", "/var/lib/transsrt/jobs.db"),
		Duration("duration", 1500*time.Millisecond),
		String(FieldEventType, "job_completed"),
		Int("size_bytes", 2048),
		Bool("cached", false),
	)

	out := buf.String()
	header := strings.SplitN(out, "\n", 2)[0]
	if !strings.Contains(header, "INFO [pipeline] Job abcdef01 – subtitle file translated") {
		t.Fatalf("unexpected header %q", header)
	}
	for _, hidden := range []string{"run-1", "jobs.db", "Job Id"} {
		if strings.Contains(out, hidden) {
			t.Fatalf("info output should omit %q:\n%s", hidden, out)
		}
	}
	want := []string{"- Event: job_completed", "- Output: movie_en.srt", "- Duration: 1.5s", "- Size: 2.0 KiB", "- Cached: no"}
	last := -1
	for _, w := range want {
		idx := strings.Index(out, w)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", w, out)
		}
		if idx < last {
			t.Fatalf("%q out of order in:\n%s", w, out)
		}
		last = idx
	}
}

func TestConsoleTruncatesLongValues(t *testing.T) {
	logger, buf := newTestConsole(slog.LevelInfo)
	logger.Warn("chunk reply discarded", String("reason", strings.Repeat("x", 300)))
	if !strings.Contains(buf.String(), strings.Repeat("x", maxInfoValue)+"…") {
		t.Fatalf("expected truncated value:\n%s", buf.String())
	}
}

func TestConsoleDebugListsEveryAttr(t *testing.T) {
	logger, buf := newTestConsole(slog.LevelDebug)
	logger.WithGroup("engine").Debug("request sent", String(FieldCorrelationID, "req-9"), Int("prompt_bytes", 10))
	out := buf.String()
	for _, w := range []string{"DEBUG", "engine.correlation_id: req-9", "engine.prompt_bytes: 10"} {
		if !strings.Contains(out, w) {
			t.Fatalf("missing %q in:\n%s", w, out)
		}
	}
}

func TestConsoleLaterAttrWins(t *testing.T) {
	logger, buf := newTestConsole(slog.LevelInfo)
	logger.With(Int(FieldAttempt, 1)).Info("chunk retry", Int(FieldAttempt, 2))
	if !strings.Contains(buf.String(), "- Attempt: 2") || strings.Contains(buf.String(), "Attempt: 1") {
		t.Fatalf("unexpected attempt rendering:\n%s", buf.String())
	}
}
