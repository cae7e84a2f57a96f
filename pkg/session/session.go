package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
	"github.com/kurlclub/kurlclub-forms/pkg/widgets"
)

// State is the registration flow position of a session.
type State string

const (
	// StateEditing accepts field mutations.
	StateEditing State = "editing"
	// StateSubmitting is entered only from a valid snapshot; edits and
	// further submit attempts are rejected until the in-flight submission
	// settles.
	StateSubmitting State = "submitting"
	// StateSucceeded is terminal; only an explicit Reset leaves it.
	StateSucceeded State = "succeeded"
)

var (
	// ErrNotEditing is returned by SetValue outside the editing state.
	ErrNotEditing = errors.New("session: not editing")
	// ErrSubmitInFlight is returned by BeginSubmit while a submission is
	// already running; the caller must treat the attempt as a no-op.
	ErrSubmitInFlight = errors.New("session: submission already in flight")
	// ErrCompleted is returned once a session has succeeded.
	ErrCompleted = errors.New("session: registration already completed")
	// ErrAbandoned is returned after Abandon.
	ErrAbandoned = errors.New("session: abandoned")
)

// Token proves a submission attempt against the session epoch it started in.
// Reset and Abandon bump the epoch, so a network result that resolves after
// the user walked away is discarded instead of mutating a dead session.
type Token struct {
	epoch uint64
}

// Session holds the current value of every schema field along with per-field
// input errors and the submit state machine. One logical writer (the active
// user interaction) drives it; the mutex exists because submission results
// arrive from the submit goroutine.
type Session struct {
	schema   *schema.Schema
	registry *widgets.Registry

	mu          sync.Mutex
	values      map[string]value.Value
	inputErrors map[string]string
	state       State
	epoch       uint64
	abandoned   bool
}

// New creates a session initialised with each field's default value. It fails
// if the registry lacks a widget for any kind the schema uses, so a missing
// handler surfaces before the form accepts input.
func New(s *schema.Schema, registry *widgets.Registry) (*Session, error) {
	if s == nil {
		return nil, errors.New("session: schema is required")
	}
	if registry == nil {
		return nil, errors.New("session: widget registry is required")
	}
	if err := registry.Covers(s); err != nil {
		return nil, err
	}

	sess := &Session{
		schema:   s,
		registry: registry,
		state:    StateEditing,
	}
	sess.loadDefaults()
	return sess, nil
}

func (s *Session) loadDefaults() {
	s.values = make(map[string]value.Value, s.schema.Len())
	s.inputErrors = make(map[string]string)
	for _, field := range s.schema.Fields() {
		s.values[field.Key] = field.Default
	}
}

// SetValue coerces raw input through the field's widget and stores the
// result. On a coercion error the widget's best-effort value (for dates, the
// intermediate display string) is stored together with a per-field input
// error, and the error is returned for inline display; editing continues.
func (s *Session) SetValue(key string, raw widgets.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return err
	}
	field, err := s.schema.Field(key)
	if err != nil {
		return err
	}
	widget, ok := s.registry.Resolve(field.Kind)
	if !ok {
		// Covers ran at construction, so this is unreachable short of a
		// registry mutated after the fact.
		return fmt.Errorf("session: no widget for kind %q", field.Kind)
	}

	coerced, err := widget.Coerce(field, raw)
	s.values[key] = coerced
	var cerr *widgets.CoercionError
	if errors.As(err, &cerr) {
		s.inputErrors[key] = cerr.Message
		return err
	}
	if err != nil {
		return err
	}
	delete(s.inputErrors, key)
	return nil
}

func (s *Session) editable() error {
	switch {
	case s.abandoned:
		return ErrAbandoned
	case s.state == StateSubmitting:
		return fmt.Errorf("%w: submission in flight", ErrNotEditing)
	case s.state == StateSucceeded:
		return fmt.Errorf("%w: %v", ErrNotEditing, ErrCompleted)
	}
	return nil
}

// Value returns the current value of a field.
func (s *Session) Value(key string) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return value.Absent(), fmt.Errorf("%w: %q", schema.ErrFieldNotFound, key)
	}
	return v, nil
}

// Display formats the stored value back into its editable form, e.g. a
// canonical date as DD/MM/YYYY.
func (s *Session) Display(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.schema.Field(key)
	if err != nil {
		return "", err
	}
	widget, ok := s.registry.Resolve(field.Kind)
	if !ok {
		return "", fmt.Errorf("session: no widget for kind %q", field.Kind)
	}
	return widget.Format(field, s.values[key]), nil
}

// InputError returns the pending coercion error for a field, if any.
func (s *Session) InputError(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.inputErrors[key]
	return msg, ok
}

// Snapshot copies the current value set for validation and mapping.
func (s *Session) Snapshot() map[string]value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]value.Value, len(s.values))
	for key, v := range s.values {
		snap[key] = v
	}
	return snap
}

// State reports the session's position in the registration flow.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset returns every field to its default and the session to editing. Any
// in-flight submission result is invalidated.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadDefaults()
	s.state = StateEditing
	s.abandoned = false
	s.epoch++
}

// Abandon marks the session dead, e.g. on navigation away. Later submission
// results are discarded and every operation fails with ErrAbandoned until
// Reset.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = true
	s.epoch++
}

// BeginSubmit moves the session into the submitting state and returns the
// token the eventual EndSubmit must present. A second call while one
// submission is in flight fails with ErrSubmitInFlight, which is what makes a
// double-click a no-op.
func (s *Session) BeginSubmit() (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.abandoned:
		return Token{}, ErrAbandoned
	case s.state == StateSubmitting:
		return Token{}, ErrSubmitInFlight
	case s.state == StateSucceeded:
		return Token{}, ErrCompleted
	}
	s.state = StateSubmitting
	return Token{epoch: s.epoch}, nil
}

// EndSubmit settles the submission the token belongs to: success is terminal,
// failure returns to editing with all values intact. A token from before a
// Reset or Abandon is stale and the result is discarded; EndSubmit reports
// whether the outcome was applied.
func (s *Session) EndSubmit(token Token, success bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abandoned || token.epoch != s.epoch || s.state != StateSubmitting {
		return false
	}
	if success {
		s.state = StateSucceeded
	} else {
		s.state = StateEditing
	}
	return true
}
