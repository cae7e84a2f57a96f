// Package memberform wires the registration pipeline end to end: a member
// schema resolved for an intake profile, a widget registry coercing input, a
// whole-form validator, the multipart payload mapper, and the one-shot
// remote submitter, all scoped to a single gym.
package memberform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/kurlclub/kurlclub-forms/pkg/member"
	"github.com/kurlclub/kurlclub-forms/pkg/payload"
	"github.com/kurlclub/kurlclub-forms/pkg/refdata"
	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/session"
	"github.com/kurlclub/kurlclub-forms/pkg/submit"
	"github.com/kurlclub/kurlclub-forms/pkg/validation"
	"github.com/kurlclub/kurlclub-forms/pkg/widgets"
)

// MemberListInvalidator is notified after a successful registration so cached
// member collections for the gym can refresh.
type MemberListInvalidator interface {
	InvalidateMembers(gymID int64)
}

// InvalidatorFunc adapts a plain function to MemberListInvalidator.
type InvalidatorFunc func(gymID int64)

// InvalidateMembers implements MemberListInvalidator.
func (fn InvalidatorFunc) InvalidateMembers(gymID int64) {
	if fn != nil {
		fn(gymID)
	}
}

// ValidationFailedError carries the per-field messages of a failed submit
// attempt. The session stays in editing; nothing was sent.
type ValidationFailedError struct {
	Result validation.Result
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("memberform: validation failed for %d field(s)", len(e.Result.FieldErrors()))
}

// ErrResultDiscarded reports that a submission settled after the session was
// reset or abandoned; its outcome was dropped on purpose.
var ErrResultDiscarded = errors.New("memberform: submission result discarded")

// Option customises form construction.
type Option func(*Form)

// WithProfile selects the intake profile. Defaults to the full intake.
func WithProfile(profile member.Profile) Option {
	return func(f *Form) {
		f.profile = profile
	}
}

// WithRegistry replaces the built-in widget registry, e.g. to change the
// default phone region.
func WithRegistry(registry *widgets.Registry) Option {
	return func(f *Form) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithStore supplies the reference-data store backing plan and trainer
// selections. Required for profiles that include those fields.
func WithStore(store *refdata.Store) Option {
	return func(f *Form) {
		f.store = store
	}
}

// WithSubmitter supplies the remote submitter. Required for Register.
func WithSubmitter(submitter *submit.Submitter) Option {
	return func(f *Form) {
		f.submitter = submitter
	}
}

// WithInvalidators registers hooks fired after a successful registration.
func WithInvalidators(invalidators ...MemberListInvalidator) Option {
	return func(f *Form) {
		f.invalidators = append(f.invalidators, invalidators...)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Form is one gym's registration form: a session over the profile's schema
// plus everything needed to validate and submit it.
type Form struct {
	gymID   int64
	profile member.Profile

	schema       *schema.Schema
	registry     *widgets.Registry
	session      *session.Session
	store        *refdata.Store
	submitter    *submit.Submitter
	invalidators []MemberListInvalidator
	logger       *slog.Logger
}

// New builds a Form for the gym. Schema resolution, widget coverage, and the
// reference-data requirement are all checked here, so a misconfigured form
// fails before it ever accepts input.
func New(gymID int64, options ...Option) (*Form, error) {
	f := &Form{
		gymID:   gymID,
		profile: member.ProfileFull,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.registry == nil {
		f.registry = widgets.NewRegistry()
	}

	s, err := member.NewSchema(f.profile)
	if err != nil {
		return nil, err
	}
	f.schema = s

	if f.needsRefData() && f.store == nil {
		return nil, fmt.Errorf("memberform: profile %q references reference data but no store is configured", f.profile)
	}

	sess, err := session.New(s, f.registry)
	if err != nil {
		return nil, err
	}
	f.session = sess
	return f, nil
}

func (f *Form) needsRefData() bool {
	for _, field := range f.schema.Fields() {
		if field.Constraints.OptionSource != "" {
			return true
		}
	}
	return false
}

// Schema returns the resolved schema of the form's profile.
func (f *Form) Schema() *schema.Schema {
	return f.schema
}

// Session exposes the underlying form session.
func (f *Form) Session() *session.Session {
	return f.session
}

// SetValue forwards raw input to the session.
func (f *Form) SetValue(key string, raw widgets.Input) error {
	return f.session.SetValue(key, raw)
}

// LoadOptions fetches (or returns cached) reference data for the gym.
func (f *Form) LoadOptions(ctx context.Context) (*refdata.FormOptions, error) {
	if f.store == nil {
		return nil, errors.New("memberform: no reference-data store configured")
	}
	return f.store.Load(ctx, f.gymID)
}

// OptionsStatus reports the reference-data load state. Forms whose profile
// needs no reference data are always ready.
func (f *Form) OptionsStatus() refdata.Status {
	if !f.needsRefData() {
		return refdata.StatusReady
	}
	return f.store.Status(f.gymID)
}

// CanSubmit reports whether a submit attempt is currently allowed: the
// session is editing and any reference data the schema depends on is loaded.
func (f *Form) CanSubmit() bool {
	return f.session.State() == session.StateEditing && f.OptionsStatus() == refdata.StatusReady
}

func (f *Form) optionSource() validation.OptionSource {
	if f.store == nil {
		return nil
	}
	return f.store.View(f.gymID)
}

// Validate evaluates the whole session snapshot. Option membership is always
// checked against the store's current view, never a captured copy, so a
// selection that only made sense against a stale set fails here.
func (f *Form) Validate() validation.Result {
	return validation.Validate(f.schema, f.session.Snapshot(), f.optionSource())
}

// Register runs the submit flow: validate, enter the submitting state, map
// the validated values to a multipart payload, post it, and settle the
// session. Failures are typed: *ValidationFailedError keeps the session
// editing with errors, session.ErrSubmitInFlight makes a double-click a
// no-op, *submit.Error returns to editing with values intact, and
// ErrResultDiscarded means the session was abandoned while the call was in
// flight.
func (f *Form) Register(ctx context.Context) (*submit.SuccessInfo, error) {
	if f.submitter == nil {
		return nil, errors.New("memberform: no submitter configured")
	}

	result := f.Validate()
	if !result.Valid() {
		return nil, &ValidationFailedError{Result: result}
	}

	token, err := f.session.BeginSubmit()
	if err != nil {
		return nil, err
	}

	p, err := payload.Build(f.schema, result.Values())
	if err != nil {
		f.session.EndSubmit(token, false)
		return nil, err
	}
	p.Append("gymId", strconv.FormatInt(f.gymID, 10))

	info, submitErr := f.submitter.Submit(ctx, f.gymID, p)
	if !f.session.EndSubmit(token, submitErr == nil) {
		f.logger.WarnContext(ctx, "discarding submission result for abandoned session",
			"gym_id", f.gymID)
		return nil, ErrResultDiscarded
	}
	if submitErr != nil {
		return nil, submitErr
	}

	for _, invalidator := range f.invalidators {
		invalidator.InvalidateMembers(f.gymID)
	}
	f.logger.InfoContext(ctx, "member registered", "gym_id", f.gymID, "request_id", info.RequestID)
	return info, nil
}

// Reset returns the form to a fresh editing session, e.g. to begin another
// registration after success.
func (f *Form) Reset() {
	f.session.Reset()
}

// Abandon marks the session dead on navigation away; an in-flight
// submission's eventual result will be discarded.
func (f *Form) Abandon() {
	f.session.Abandon()
}
