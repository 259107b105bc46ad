package location

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/muurk/ephemeris/internal/coord"
)

// StaticProvider answers every query with the same fix or error.
// Calls counts the queries it has received.
type StaticProvider struct {
	// Position is reported when Err is nil
	Position Position

	// Err is reported instead of a fix when set
	Err *PositionError

	// Delay postpones the callback. A query whose context ends first
	// never calls back, like a platform that went silent.
	Delay time.Duration

	calls atomic.Int32
}

// NewStaticProvider returns a provider reporting a fresh fix at c
func NewStaticProvider(c coord.Coordinate) *StaticProvider {
	return &StaticProvider{Position: Position{Coordinate: c}}
}

// NewFailingProvider returns a provider reporting the given error code
func NewFailingProvider(code int, message string) *StaticProvider {
	return &StaticProvider{Err: &PositionError{Code: code, Message: message}}
}

// Calls returns the number of queries received
func (p *StaticProvider) Calls() int {
	return int(p.calls.Load())
}

// RequestPosition implements Provider
func (p *StaticProvider) RequestPosition(ctx context.Context, _ Options, onSuccess func(Position), onError func(*PositionError)) {
	p.calls.Add(1)

	go func() {
		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}

		if p.Err != nil {
			onError(p.Err)
			return
		}

		pos := p.Position
		if pos.Timestamp.IsZero() {
			pos.Timestamp = time.Now()
		}
		onSuccess(pos)
	}()
}
