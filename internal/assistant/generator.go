// Package assistant produces post text from a short prompt. The shipped
// generator is simulated; a real text service plugs in behind Generator.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/postdeck/internal/types"
)

// Generator turns a prompt into post text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Simulated answers every prompt with a fixed template after a delay.
type Simulated struct {
	latency time.Duration
}

// NewSimulated creates a simulated generator. A negative latency counts as zero.
func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{latency: max(latency, 0)}
}

// Generate waits for the configured latency, then returns BuildReply(prompt).
func (s *Simulated) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", types.ErrGeneration)
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", types.ErrGeneration, ctx.Err())
	case <-timer.C:
	}
	return BuildReply(prompt), nil
}

// BuildReply renders the simulated answer for prompt.
func BuildReply(prompt string) string {
	var sb strings.Builder
	sb.WriteString("This is an AI-generated response for: '")
	sb.WriteString(prompt)
	sb.WriteString("'. It could be a more detailed and professional post about this topic, ready for LinkedIn.")
	return sb.String()
}
