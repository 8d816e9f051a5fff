package chunker

import (
	"errors"
	"fmt"
	"testing"

	"transsrt/internal/services"
	"transsrt/internal/subtitles"
)

func makeEntries(n int) []subtitles.Entry {
	entries := make([]subtitles.Entry, n)
	for i := range entries {
		entries[i] = subtitles.Entry{
			Index:     i + 1,
			TimeRange: fmt.Sprintf("00:00:%02d,000 --> 00:00:%02d,500", i%60, i%60),
			Text:      fmt.Sprintf("line %d", i+1),
		}
	}
	return entries
}

func TestCreateOneTwentyEntries(t *testing.T) {
	chunks, err := Create(makeEntries(120), 50, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantSizes := []int{50, 50, 20}
	for i, c := range chunks {
		if len(c.Entries) != wantSizes[i] {
			t.Fatalf("chunk %d size = %d, want %d", i+1, len(c.Entries), wantSizes[i])
		}
		if c.Position != i+1 || c.Total != 3 {
			t.Fatalf("chunk %d position/total = %d/%d", i+1, c.Position, c.Total)
		}
	}
	if len(chunks[0].Context) != 0 {
		t.Fatalf("first chunk should have no context, got %d", len(chunks[0].Context))
	}
	assertIndexes(t, chunks[1].Context, 48, 49, 50)
	assertIndexes(t, chunks[2].Context, 98, 99, 100)
}

func TestCreateCoversEveryEntryOnce(t *testing.T) {
	for _, tc := range []struct{ n, size, ctx int }{{1, 50, 3}, {49, 50, 3}, {50, 50, 3}, {51, 50, 3}, {7, 2, 5}, {10, 1, 0}} {
		t.Run(fmt.Sprintf("n%d_size%d", tc.n, tc.size), func(t *testing.T) {
			entries := makeEntries(tc.n)
			chunks, err := Create(entries, tc.size, tc.ctx)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			wantTotal := (tc.n + tc.size - 1) / tc.size
			if len(chunks) != wantTotal {
				t.Fatalf("chunks = %d, want %d", len(chunks), wantTotal)
			}
			var flat []subtitles.Entry
			for _, c := range chunks {
				if c.Total != wantTotal {
					t.Fatalf("chunk total = %d, want %d", c.Total, wantTotal)
				}
				flat = append(flat, c.Entries...)
			}
			if len(flat) != len(entries) {
				t.Fatalf("flattened %d entries, want %d", len(flat), len(entries))
			}
			for i := range entries {
				if flat[i] != entries[i] {
					t.Fatalf("entry %d differs: %+v vs %+v", i, flat[i], entries[i])
				}
			}
		})
	}
}

func TestCreateContextFromShortPreviousChunk(t *testing.T) {
	chunks, err := Create(makeEntries(5), 2, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Context is the K entries before the chunk in the flat sequence, not the
	// tail of the previous chunk alone. With K larger than the chunk size,
	// chunk 3 sees entries 2..4, reaching back into chunk 1.
	assertIndexes(t, chunks[1].Context, 1, 2)
	assertIndexes(t, chunks[2].Context, 2, 3, 4)
}

func TestCreateContextSizeZeroAndNegative(t *testing.T) {
	for _, k := range []int{0, -4} {
		chunks, err := Create(makeEntries(10), 3, k)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		for _, c := range chunks {
			if len(c.Context) != 0 {
				t.Fatalf("k=%d: expected no context, got %d", k, len(c.Context))
			}
		}
	}
}

func TestCreateDoesNotAliasAppends(t *testing.T) {
	entries := makeEntries(6)
	chunks, err := Create(entries, 3, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = append(chunks[0].Entries, subtitles.Entry{Index: 99})
	if entries[3].Index != 4 {
		t.Fatalf("append through chunk mutated source: %+v", entries[3])
	}
}

func TestCreateErrors(t *testing.T) {
	if _, err := Create(nil, 50, 3); !errors.Is(err, services.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if services.KindOf(ErrEmptyInput) != services.KindEmptyInput {
		t.Fatalf("unexpected kind %q", services.KindOf(ErrEmptyInput))
	}
	if _, err := Create(makeEntries(3), 0, 3); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	chunks, err := Create(makeEntries(120), 50, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s := Summarize(chunks)
	if s.TotalChunks != 3 || s.TotalEntries != 120 || s.ContextSize != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.AverageSize != 40 {
		t.Fatalf("average = %v, want 40", s.AverageSize)
	}
	if fmt.Sprint(s.Sizes) != "[50 50 20]" {
		t.Fatalf("sizes = %v", s.Sizes)
	}
}

func assertIndexes(t *testing.T, entries []subtitles.Entry, want ...int) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Index != want[i] {
			t.Fatalf("entry %d index = %d, want %d", i, e.Index, want[i])
		}
	}
}
