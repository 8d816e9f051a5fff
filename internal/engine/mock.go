package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var numberedLine = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// Mock answers every numbered prompt line with "N. [target] text". It never
// touches the network and is used for offline runs and pipeline tests.
type Mock struct {
	Target string
}

// NewMock returns a mock engine tagging replies with target.
func NewMock(target string) *Mock {
	return &Mock{Target: strings.TrimSpace(target)}
}

// Name identifies the engine in logs.
func (m *Mock) Name() string { return "mock" }

// Complete echoes the numbered lines of prompt.
func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ClassifyTransport("mock", err)
	}
	tag := m.Target
	if tag == "" {
		tag = "xx"
	}
	var b strings.Builder
	for line := range strings.SplitSeq(prompt, "\n") {
		match := numberedLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		fmt.Fprintf(&b, "%s. [%s] %s\n", match[1], tag, match[2])
	}
	if b.Len() == 0 {
		return "", EmptyReply("mock", "prompt has no numbered lines")
	}
	return b.String(), nil
}
