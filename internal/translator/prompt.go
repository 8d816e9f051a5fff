package translator

import (
	"fmt"
	"strings"

	"transsrt/internal/chunker"
	"transsrt/internal/language"
)

const promptContextLines = 3

// BuildPrompt renders the engine prompt for one chunk. Context entries are
// shown unnumbered so the reply only ever refers to the chunk's own entries.
func BuildPrompt(chunk chunker.Chunk, source, target string) string {
	sourceName := language.DisplayName(source)
	targetName := language.DisplayName(target)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional %s-to-%s subtitle translator.\n\n", sourceName, targetName)
	fmt.Fprintf(&b, "Translate the %s subtitles below into natural %s suitable for on-screen reading.\n", sourceName, targetName)
	b.WriteString("Guidelines:\n")
	b.WriteString("- Keep each translation concise; subtitles are read while watching.\n")
	b.WriteString("- Keep names, numbers and terminology consistent with the context.\n")
	b.WriteString(`- A literal \n inside a line marks a line break; keep it where it belongs.` + "\n\n")

	if ctxEntries := tail(chunk.Context, promptContextLines); len(ctxEntries) > 0 {
		b.WriteString("Previous context (for continuity, do not translate):\n")
		for _, entry := range ctxEntries {
			fmt.Fprintf(&b, "> %s\n", EncodeText(entry.Text))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "This is chunk %d/%d.\n\n", chunk.Position, chunk.Total)
	fmt.Fprintf(&b, "%s subtitles to translate:\n", sourceName)
	for i, entry := range chunk.Entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, EncodeText(entry.Text))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Reply with exactly %d lines, one %s translation per line, each starting with its number and a period (\"1. ...\").\n", len(chunk.Entries), targetName)
	b.WriteString("Do not add commentary, headings or blank lines.")
	return b.String()
}

// EncodeText folds a multi-line entry into a single prompt line.
func EncodeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", `\n`)
}

// DecodeText restores line breaks encoded by EncodeText.
func DecodeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, `\n`, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
