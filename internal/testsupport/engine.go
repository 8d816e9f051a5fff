package testsupport

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"transsrt/internal/engine"
)

var chunkMarker = regexp.MustCompile(`chunk (\d+)/(\d+)`)

// Reply is one scripted engine outcome.
type Reply struct {
	Text string
	Err  error
}

// ScriptedEngine replays per-chunk replies in order and falls back to the mock
// echo once a chunk's script is exhausted. It records call counts and the peak
// number of concurrent calls.
type ScriptedEngine struct {
	// Delay holds each call open so concurrency limits can be observed.
	Delay time.Duration

	mu          sync.Mutex
	script      map[int][]Reply
	calls       map[int]int
	inFlight    int
	maxInFlight int
	fallback    *engine.Mock
}

// NewScriptedEngine returns an engine with no scripted replies.
func NewScriptedEngine() *ScriptedEngine {
	return &ScriptedEngine{
		script:   make(map[int][]Reply),
		calls:    make(map[int]int),
		fallback: engine.NewMock("en"),
	}
}

// On queues replies for the chunk at position.
func (s *ScriptedEngine) On(position int, replies ...Reply) *ScriptedEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[position] = append(s.script[position], replies...)
	return s
}

// Name identifies the engine in logs.
func (s *ScriptedEngine) Name() string { return "scripted" }

// Complete returns the next scripted reply for the prompt's chunk.
func (s *ScriptedEngine) Complete(ctx context.Context, prompt string) (string, error) {
	position := 0
	if m := chunkMarker.FindStringSubmatch(prompt); m != nil {
		position, _ = strconv.Atoi(m[1])
	}

	s.mu.Lock()
	s.calls[position]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	var reply *Reply
	if queued := s.script[position]; len(queued) > 0 {
		reply = &queued[0]
		s.script[position] = queued[1:]
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", engine.ClassifyTransport("scripted", ctx.Err())
		case <-timer.C:
		}
	}
	if reply != nil {
		return reply.Text, reply.Err
	}
	return s.fallback.Complete(ctx, prompt)
}

// Calls reports how many times the chunk at position was sent.
func (s *ScriptedEngine) Calls(position int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[position]
}

// TotalCalls reports calls across all chunks.
func (s *ScriptedEngine) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// MaxInFlight reports the peak number of concurrent calls.
func (s *ScriptedEngine) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
