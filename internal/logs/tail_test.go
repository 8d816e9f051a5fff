package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"transsrt/internal/logs"
)

func collect() (*[]string, func(string)) {
	var mu sync.Mutex
	lines := []string{}
	return &lines, func(line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transsrt.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, emit := collect()
	if err := logs.Tail(context.Background(), path, logs.TailOptions{Lines: 2}, emit); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if strings.Join(*lines, ",") != "b,c" {
		t.Fatalf("unexpected lines: %#v", *lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, emit := collect()
	if err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.TailOptions{Lines: 5}, emit); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(*lines) != 0 {
		t.Fatalf("expected no lines, got %#v", *lines)
	}
}

func TestTailFilterByJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transsrt.log")
	content := `{"ts":"t1","level":"info","msg":"one","job_id":"abc123"}
{"ts":"t2","level":"info","msg":"two","job_id":"zzz999"}
plain text line
{"ts":"t3","level":"warn","msg":"three","job_id":"abc123"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, emit := collect()
	opts := logs.TailOptions{Lines: 10, Filter: logs.Filter{JobID: "abc"}}
	if err := logs.Tail(context.Background(), path, opts, emit); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(*lines) != 2 || !strings.Contains((*lines)[1], `"three"`) {
		t.Fatalf("unexpected lines: %#v", *lines)
	}
}

func TestTailFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transsrt.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	got := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.TailOptions{Lines: 1, Follow: true, Poll: 20 * time.Millisecond}, func(line string) {
			got <- line
		})
	}()

	if line := <-got; line != "start" {
		t.Fatalf("first line = %q", line)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case line := <-got:
		if line != "later" {
			t.Fatalf("followed line = %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Tail returned %v, want context.Canceled", err)
	}
}

func TestFilterLevelAndFormat(t *testing.T) {
	line := `{"ts":"2026-01-02T03:04:05Z","level":"warn","msg":"chunk retry","component":"translator","chunk":2,"job_id":"j1"}`
	if !(logs.Filter{MinLevel: "info"}).Match(line) {
		t.Fatal("warn should pass info threshold")
	}
	if (logs.Filter{MinLevel: "error"}).Match(line) {
		t.Fatal("warn should not pass error threshold")
	}
	if !(logs.Filter{Component: "Translator"}).Match(line) {
		t.Fatal("component match should ignore case")
	}
	want := "2026-01-02T03:04:05Z WARN [translator] chunk retry chunk=2 job_id=j1"
	if got := logs.FormatLine(line); got != want {
		t.Fatalf("FormatLine = %q, want %q", got, want)
	}
	if got := logs.FormatLine("not json"); got != "not json" {
		t.Fatalf("FormatLine passthrough = %q", got)
	}
}
