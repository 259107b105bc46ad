package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/logging"
)

const (
	// DefaultTimeout is how long a resolution waits for a fix
	DefaultTimeout = 10 * time.Second

	// DefaultMaxAge is the oldest fix accepted as current
	DefaultMaxAge = 10 * time.Minute
)

// Resolver turns one callback-style provider query into a single Outcome.
//
// At most one query is outstanding at a time: a Resolve that starts while
// another is pending returns Failed(alreadyInFlight) without touching the
// provider. Resolver never retries.
type Resolver struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight bool
}

// NewResolver creates a resolver for the given provider.
// A nil logger uses the global logger.
func NewResolver(provider Provider, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Resolver{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// InFlight reports whether a query is pending
func (r *Resolver) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

func (r *Resolver) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return false
	}
	r.inFlight = true
	return true
}

func (r *Resolver) release() {
	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
}

// Resolve requests one fix and blocks until it settles.
//
// A fix produced within timeout and no older than maxAge yields
// Resolved. A provider error, a stale or out-of-range fix, or expiry of
// timeout yields Failed. Cancelling ctx settles the request as
// Failed(unavailable). Non-positive durations use the defaults.
func (r *Resolver) Resolve(ctx context.Context, timeout, maxAge time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	if !r.acquire() {
		r.logger.Warn("Location request rejected, another is in flight")
		return Failed(ReasonAlreadyInFlight)
	}
	defer r.release()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan Outcome, 1)
	var once sync.Once
	settle := func(o Outcome) {
		once.Do(func() { results <- o })
	}

	r.logger.Debug("Requesting device location",
		zap.Duration("timeout", timeout),
		zap.Duration("max_age", maxAge),
	)

	r.provider.RequestPosition(reqCtx, Options{Timeout: timeout, MaximumAge: maxAge},
		func(pos Position) {
			settle(r.fromPosition(pos, maxAge))
		},
		func(perr *PositionError) {
			if perr == nil {
				perr = &PositionError{Code: CodePositionUnavailable, Message: "unknown error"}
			}
			r.logger.Info("Location provider reported an error",
				zap.Int("code", perr.Code),
				zap.String("message", perr.Message),
			)
			settle(Failed(perr.Reason()))
		},
	)

	var outcome Outcome
	select {
	case outcome = <-results:
	case <-reqCtx.Done():
		// A callback racing the deadline still wins
		select {
		case outcome = <-results:
		default:
			if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				outcome = Failed(ReasonTimeout)
			} else {
				outcome = Failed(ReasonUnavailable)
			}
			// Late callbacks become no-ops
			settle(outcome)
		}
	}

	logging.LogLocationOutcome(r.logger, outcome.Status.String(), outcome.Reason.String(),
		outcome.Coordinate.Latitude, outcome.Coordinate.Longitude)

	return outcome
}

func (r *Resolver) fromPosition(pos Position, maxAge time.Duration) Outcome {
	if !pos.Coordinate.Valid() {
		r.logger.Warn("Location provider returned an invalid coordinate",
			zap.Float64("latitude", pos.Coordinate.Latitude),
			zap.Float64("longitude", pos.Coordinate.Longitude),
		)
		return Failed(ReasonUnavailable)
	}

	ts := pos.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}
	if age := r.now().Sub(ts); age > maxAge {
		r.logger.Info("Location fix is stale",
			zap.Duration("age", age),
			zap.Duration("max_age", maxAge),
		)
		return Failed(ReasonUnavailable)
	}

	return Resolved(pos.Coordinate, ts)
}
