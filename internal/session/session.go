package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/logging"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/schema"
	"github.com/muurk/ephemeris/internal/settings"
)

const (
	// DefaultAutoLocationID is the toggle that asks for automatic location
	DefaultAutoLocationID = "UsePhoneLocation"

	// DefaultStatusID is the text field that shows location results
	DefaultStatusID = "LocationStatus"
)

// Transport delivers a submitted payload to the watch
type Transport interface {
	Send(ctx context.Context, p *payload.Payload) error
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, p *payload.Payload) error

// Send calls f
func (f TransportFunc) Send(ctx context.Context, p *payload.Payload) error {
	return f(ctx, p)
}

// Renderer presents a session to the user and drives it to a terminal
// state through Start, Edit, Relocate, Submit and Abandon.
type Renderer interface {
	Render(ctx context.Context, s *Session) error
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, s *Session) error

// Render calls f
func (f RendererFunc) Render(ctx context.Context, s *Session) error {
	return f(ctx, s)
}

// Options configures a session
type Options struct {
	// AutoLocation requests a location lookup at Start. The schema's
	// auto-location toggle, when on, has the same effect.
	AutoLocation bool

	// Field ids. Empty values use the defaults of the built-in schema.
	AutoLocationID string
	StatusID       string
	LatitudeID     string
	LongitudeID    string

	// Location request bounds. Zero uses the location package defaults.
	Timeout time.Duration
	MaxAge  time.Duration

	// Scale is the fixed-point factor for coordinates
	Scale int

	// Defaults are raw values applied to the new store before Start,
	// typically from the user's preferences.
	Defaults map[string]string

	Logger *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.AutoLocationID == "" {
		o.AutoLocationID = DefaultAutoLocationID
	}
	if o.StatusID == "" {
		o.StatusID = DefaultStatusID
	}
	if o.LatitudeID == "" {
		o.LatitudeID = payload.DefaultLatitudeID
	}
	if o.LongitudeID == "" {
		o.LongitudeID = payload.DefaultLongitudeID
	}
	if o.Timeout <= 0 {
		o.Timeout = location.DefaultTimeout
	}
	if o.MaxAge <= 0 {
		o.MaxAge = location.DefaultMaxAge
	}
	if o.Scale <= 0 {
		o.Scale = coord.DefaultScale
	}
	if o.Logger == nil {
		o.Logger = logging.GetLogger()
	}
}

// Session is one configuration interaction. Its methods are safe to call
// from a renderer's goroutines; the store is only touched under the
// session lock.
type Session struct {
	id        string
	schema    *schema.Schema
	resolver  *location.Resolver
	transport Transport
	opts      Options
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	store      *settings.Store
	outcome    location.Outcome
	generation int
	payload    *payload.Payload
}

// New creates a session with a fresh store built from sch.
//
// The latitude and longitude ids must exist in the schema, and every
// id in opts.Defaults must too: a mismatch is an UnknownField error.
// A nil resolver makes every location attempt fail as unavailable.
// A nil transport keeps the submitted payload on the session only.
func New(sch *schema.Schema, resolver *location.Resolver, transport Transport, opts Options) (*Session, error) {
	opts.applyDefaults()

	store, err := sch.NewStore()
	if err != nil {
		return nil, err
	}
	if err := store.Require(opts.LatitudeID, opts.LongitudeID); err != nil {
		return nil, err
	}
	for id, raw := range opts.Defaults {
		if err := store.SetString(id, raw); err != nil {
			return nil, fmt.Errorf("failed to apply default for %s: %w", id, err)
		}
	}

	id := uuid.NewString()
	s := &Session{
		id:        id,
		schema:    sch,
		resolver:  resolver,
		transport: transport,
		opts:      opts,
		logger:    opts.Logger.With(zap.String("session", id)),
		state:     StateIdle,
		store:     store,
		outcome:   location.NotAttempted(),
	}

	s.logger.Debug("Session created",
		zap.Int("fields", store.Len()),
		zap.Bool("auto_location", opts.AutoLocation),
	)
	return s, nil
}

// ID returns the session's unique id
func (s *Session) ID() string {
	return s.id
}

// Schema returns the schema the session was built from
func (s *Session) Schema() *schema.Schema {
	return s.schema
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the result of the latest location attempt
func (s *Session) Outcome() location.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Fields returns a copy of all fields in schema order
func (s *Session) Fields() []settings.SettingField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Fields()
}

// Field returns a copy of one field
func (s *Session) Field(id string) (settings.SettingField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Payload returns the submitted payload, or nil before submission
func (s *Session) Payload() *payload.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

// StatusMessage returns the status field text, if the schema has one
func (s *Session) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.store.Get(s.opts.StatusID)
	if err != nil {
		return ""
	}
	return f.Text()
}

// transition must be called with mu held
func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	logging.LogTransition(s.logger, s.id, from.String(), to.String())
}

// wantsLocation must be called with mu held
func (s *Session) wantsLocation() bool {
	if s.opts.AutoLocation {
		return true
	}
	f, err := s.store.Get(s.opts.AutoLocationID)
	return err == nil && f.Kind == settings.KindToggle && f.Bool()
}

// Start leaves Idle. With automatic location requested it resolves the
// location, writes the result into the store and blocks until the
// session reaches AwaitingSubmission. Otherwise it moves there directly
// with the store as-is.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		err := s.stateError("start")
		s.mu.Unlock()
		return err
	}

	if !s.wantsLocation() {
		s.transition(StateAwaitingSubmission)
		s.mu.Unlock()
		return nil
	}

	gen := s.beginResolution()
	s.mu.Unlock()

	s.resolve(ctx, gen)
	return nil
}

// Relocate runs a fresh location attempt from AwaitingSubmission,
// independent of any earlier one. While an attempt is pending it returns
// Failed(alreadyInFlight) and changes nothing.
func (s *Session) Relocate(ctx context.Context) (location.Outcome, error) {
	s.mu.Lock()
	switch s.state {
	case StateResolvingLocation, StateLocationSettled:
		s.mu.Unlock()
		s.logger.Warn("Relocate ignored, location request already in flight")
		return location.Failed(location.ReasonAlreadyInFlight), nil
	case StateAwaitingSubmission, StateIdle:
	default:
		err := s.stateError("relocate")
		s.mu.Unlock()
		return location.Outcome{}, err
	}

	gen := s.beginResolution()
	s.mu.Unlock()

	return s.resolve(ctx, gen), nil
}

// beginResolution must be called with mu held
func (s *Session) beginResolution() int {
	s.generation++
	s.transition(StateResolvingLocation)
	return s.generation
}

// resolve waits for the resolver without holding the lock, then applies
// the outcome unless the session moved on in the meantime.
func (s *Session) resolve(ctx context.Context, gen int) location.Outcome {
	outcome := location.Failed(location.ReasonUnavailable)
	if s.resolver != nil {
		outcome = s.resolver.Resolve(ctx, s.opts.Timeout, s.opts.MaxAge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolvingLocation || s.generation != gen {
		s.logger.Info("Discarding location outcome",
			zap.String("state", s.state.String()),
			zap.String("outcome", outcome.String()),
		)
		return outcome
	}

	s.applyOutcome(outcome)
	s.transition(StateLocationSettled)
	s.transition(StateAwaitingSubmission)
	return outcome
}

// applyOutcome must be called with mu held
func (s *Session) applyOutcome(outcome location.Outcome) {
	s.outcome = outcome

	if outcome.IsResolved() {
		previous, hadPrevious := s.coordinate()
		if err := s.store.SetValue(s.opts.LatitudeID, outcome.Coordinate.Latitude); err != nil {
			s.logger.Error("Failed to store latitude", zap.Error(err))
		}
		if err := s.store.SetValue(s.opts.LongitudeID, outcome.Coordinate.Longitude); err != nil {
			s.logger.Error("Failed to store longitude", zap.Error(err))
		}

		var moved *float64
		if hadPrevious {
			d := previous.DistanceTo(outcome.Coordinate)
			moved = &d
		}
		s.setStatus(successMessage(outcome.Coordinate, moved))
		return
	}

	s.setStatus(failureMessage(outcome.Reason))
}

// coordinate must be called with mu held
func (s *Session) coordinate() (coord.Coordinate, bool) {
	lat, err := s.store.Get(s.opts.LatitudeID)
	if err != nil {
		return coord.Coordinate{}, false
	}
	lon, err := s.store.Get(s.opts.LongitudeID)
	if err != nil {
		return coord.Coordinate{}, false
	}
	c := coord.Coordinate{Latitude: lat.Number(), Longitude: lon.Number()}
	return c, c.Valid()
}

// setStatus must be called with mu held
func (s *Session) setStatus(msg string) {
	if !s.store.Has(s.opts.StatusID) {
		return
	}
	if err := s.store.SetValue(s.opts.StatusID, msg); err != nil {
		s.logger.Warn("Failed to set status field", zap.Error(err))
	}
}

// Edit sets a field from a user edit. Out-of-range numbers are clamped;
// a value of the wrong type is rejected with InvalidValue and leaves the
// other fields editable.
func (s *Session) Edit(id string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editable() {
		return s.stateError("edit " + id)
	}
	if err := s.store.SetValue(id, v); err != nil {
		s.logger.Warn("Rejected edit", zap.String("field", id), zap.Error(err))
		return err
	}
	return nil
}

// EditString parses raw text for the field's kind and sets it
func (s *Session) EditString(id, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editable() {
		return s.stateError("edit " + id)
	}
	if err := s.store.SetString(id, raw); err != nil {
		s.logger.Warn("Rejected edit", zap.String("field", id), zap.Error(err))
		return err
	}
	return nil
}

// Submit snapshots the store, encodes the coordinates and hands the
// payload to the transport. It succeeds once per session; later calls
// return AlreadySubmitted and send nothing. A transport failure is
// returned but does not reopen the session.
func (s *Session) Submit(ctx context.Context) (*payload.Payload, error) {
	s.mu.Lock()
	if s.state != StateAwaitingSubmission {
		err := s.stateError("submit")
		s.mu.Unlock()
		return nil, err
	}

	p, err := payload.Build(s.store.Snapshot(), payload.Options{
		LatitudeID:  s.opts.LatitudeID,
		LongitudeID: s.opts.LongitudeID,
		Scale:       s.opts.Scale,
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.payload = p
	s.transition(StateSubmitted)
	s.mu.Unlock()

	s.logger.Info("Settings submitted", zap.String("payload", p.FormatCompact()))

	if s.transport == nil {
		return p, nil
	}
	if err := s.transport.Send(ctx, p); err != nil {
		s.logger.Error("Failed to deliver settings", zap.Error(err))
		return p, fmt.Errorf("failed to deliver settings: %w", err)
	}
	return p, nil
}

// Abandon ends the session without a payload. A pending location
// attempt is left to settle and its outcome is discarded. Abandoning
// twice is a no-op; abandoning a submitted session is an error.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAbandoned:
		return nil
	case StateSubmitted:
		return settings.NewAlreadySubmittedError()
	}

	s.generation++
	s.transition(StateAbandoned)
	return nil
}

// Run hands the session to r. If r returns with the session still open,
// the session is abandoned.
func (s *Session) Run(ctx context.Context, r Renderer) error {
	err := r.Render(ctx, s)

	if !s.State().IsTerminal() {
		if abandonErr := s.Abandon(); abandonErr != nil && err == nil {
			err = abandonErr
		}
	}
	return err
}

// stateError must be called with mu held
func (s *Session) stateError(action string) error {
	switch s.state {
	case StateSubmitted:
		return settings.NewAlreadySubmittedError()
	case StateAbandoned:
		return settings.NewAbandonedError()
	default:
		return settings.NewInvalidStateError(fmt.Sprintf("cannot %s while %s", action, s.state))
	}
}
