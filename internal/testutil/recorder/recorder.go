// Package recorder provides an in-memory transport that keeps every frame
// written to it.
package recorder

import (
	"sync"
	"sync/atomic"

	"github.com/danmuck/ibctl/internal/protocol"
)

type Transport struct {
	mu      sync.Mutex
	frames  [][]byte
	failErr error
	closed  atomic.Bool
}

func New() *Transport {
	return &Transport{}
}

// Write stores a copy of frame, or returns the injected failure.
func (t *Transport) Write(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failErr != nil {
		return t.failErr
	}
	t.frames = append(t.frames, append([]byte(nil), frame...))
	return nil
}

func (t *Transport) IsOpen() bool {
	return !t.closed.Load()
}

func (t *Transport) Close() {
	t.closed.Store(true)
}

// FailWith makes every later Write return err.
func (t *Transport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failErr = err
}

func (t *Transport) Frames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.frames))
	copy(out, t.frames)
	return out
}

// Messages decodes every recorded frame into its text fields.
func (t *Transport) Messages() ([][]string, error) {
	frames := t.Frames()
	out := make([][]string, 0, len(frames))
	for _, f := range frames {
		fields, err := protocol.DecodeFrame(f)
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}
	return out, nil
}
