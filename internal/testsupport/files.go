package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transsrt/internal/subtitles"
)

// Entries builds n sequential subtitle entries, two seconds apart, with text
// "line N".
func Entries(n int) []subtitles.Entry {
	entries := make([]subtitles.Entry, n)
	for i := range entries {
		start := i * 2
		entries[i] = subtitles.Entry{
			Index:     i + 1,
			TimeRange: fmt.Sprintf("%s --> %s", srtTime(start), srtTime(start+1)),
			Text:      fmt.Sprintf("line %d", i+1),
		}
	}
	return entries
}

// SRT renders Entries(n) as SRT text.
func SRT(n int) string {
	var b strings.Builder
	for _, e := range Entries(n) {
		fmt.Fprintf(&b, "%d\n%s\n%s\n\n", e.Index, e.TimeRange, e.Text)
	}
	return b.String()
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func srtTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d,000", seconds/3600, (seconds/60)%60, seconds%60)
}
