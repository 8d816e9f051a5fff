package textutil

import "strings"

const snippetLimit = 160

// Snippet collapses whitespace and truncates content to a short single line
// for error messages. Empty input returns "".
func Snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return ""
	}
	runes := []rune(clean)
	if len(runes) > snippetLimit {
		clean = string(runes[:snippetLimit]) + "..."
	}
	return clean
}
