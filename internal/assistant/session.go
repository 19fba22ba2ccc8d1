package assistant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ibeckermayer/postdeck/internal/logging"
	"github.com/ibeckermayer/postdeck/internal/types"
)

// ErrClosed is returned by SubmitPrompt after Close.
var ErrClosed = errors.New("assistant session closed")

// Session is one assistant conversation. Requests are two-phase:
// SubmitPrompt returns at once and the reply lands later. Only the latest
// request may write its reply; older ones are cancelled and discarded.
type Session struct {
	gen Generator
	log *zap.Logger

	mu         sync.Mutex
	history    []types.ChatMessage
	response   string
	processing bool
	seq        uint64
	cancel     context.CancelFunc
	closed     bool

	wg sync.WaitGroup
}

// Pending is the handle of an in-flight request
type Pending struct {
	seq  uint64
	done chan struct{}
	text string
	err  error
}

// Done is closed once the request has finished, successfully or not.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the generated text. It is only valid after Done is closed.
func (p *Pending) Result() (string, error) { return p.text, p.err }

// Wait blocks until the request finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
		return p.text, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NewSession starts an empty conversation backed by gen.
func NewSession(gen Generator, log *zap.Logger) *Session {
	return &Session{gen: gen, log: logging.OrNop(log).Named("assistant")}
}

// SubmitPrompt records the prompt and starts generating a reply. A blank
// prompt is ignored and returns nil. Any request still running is cancelled.
func (s *Session) SubmitPrompt(ctx context.Context, prompt string) (*Pending, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	p := &Pending{seq: s.seq, done: make(chan struct{})}
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.history = append(s.history, types.ChatMessage{Role: types.RoleUser, Content: prompt})
	s.processing = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(rctx, cancel, p, prompt)
	return p, nil
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, p *Pending, prompt string) {
	defer s.wg.Done()
	defer close(p.done)
	defer cancel()

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil && !errors.Is(err, types.ErrGeneration) {
		err = fmt.Errorf("%w: %w", types.ErrGeneration, err)
	}
	p.text, p.err = text, err

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.seq != s.seq || s.closed {
		s.log.Debug("discarding superseded reply", zap.Uint64("seq", p.seq))
		return
	}
	s.processing = false
	s.cancel = nil
	if err != nil {
		s.log.Warn("generation failed", zap.Error(err))
		return
	}
	s.history = append(s.history, types.ChatMessage{Role: types.RoleAssistant, Content: text})
	s.response = text
}

// Processing reports whether the latest request is still running.
func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// History returns a copy of the conversation so far.
func (s *Session) History() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Response returns the latest reply not yet taken.
func (s *Session) Response() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response
}

// TakeResponse returns and clears the reply buffer. ok is false when the
// buffer is empty.
func (s *Session) TakeResponse() (text string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, s.response = s.response, ""
	return text, text != ""
}

// Reset cancels any running request and clears the conversation. The
// session stays usable.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopLocked()
	s.history = nil
	s.response = ""
	s.mu.Unlock()
	s.wg.Wait()
}

// Close cancels any running request and waits for it to return.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// stopLocked bumps the sequence so a running request can no longer land.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.processing = false
}
