package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/muurk/ephemeris/internal/payload"
)

// Writer prints each payload as one JSON line
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a transport writing to out
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Send implements session.Transport
func (w *Writer) Send(_ context.Context, p *payload.Payload) error {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.out, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}
