package widgets

import (
	"fmt"
	"sync"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// Input is the raw material a widget coerces: typed text, the selections of a
// multi-select, or a file picked by the user. Exactly one of the three is
// normally populated.
type Input struct {
	Text   string
	Values []string
	File   *value.Attachment
}

// Text wraps typed input.
func Text(s string) Input {
	return Input{Text: s}
}

// Selections wraps the chosen values of a multi-select.
func Selections(values ...string) Input {
	return Input{Values: values}
}

// FileInput wraps a picked file.
func FileInput(a value.Attachment) Input {
	return Input{File: &a}
}

// CoercionError reports raw input that could not be converted to the field's
// value type. It is about input shape, not business rules: the form stays
// editable and the message is shown inline at the field.
type CoercionError struct {
	Field   string
	Message string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce %s: %s", e.Field, e.Message)
}

// Widget converts raw input for one field kind into a tagged session value
// and formats stored values back into an editable display form.
//
// Coerce may return a best-effort value alongside a *CoercionError; sessions
// keep that value so the user sees what was rejected (date fields rely on
// this for their intermediate display string).
type Widget interface {
	Kind() schema.FieldKind
	Coerce(field schema.FieldDescriptor, raw Input) (value.Value, error)
	Format(field schema.FieldDescriptor, v value.Value) string
}

// Registry maps field kinds to widgets. The built-in widgets cover every kind
// the schema package declares; callers can override individual kinds via
// Register.
type Registry struct {
	mu      sync.RWMutex
	widgets map[schema.FieldKind]Widget
}

// Option customises registry construction.
type Option func(*config)

type config struct {
	defaultRegion string
}

// WithDefaultRegion sets the ISO 3166-1 region used to interpret phone input
// typed without a country code. Defaults to "IN".
func WithDefaultRegion(region string) Option {
	return func(c *config) {
		if region != "" {
			c.defaultRegion = region
		}
	}
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry(options ...Option) *Registry {
	cfg := config{defaultRegion: defaultPhoneRegion}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	reg := &Registry{widgets: make(map[schema.FieldKind]Widget)}
	reg.Register(textWidget{kind: schema.KindText})
	reg.Register(textWidget{kind: schema.KindTextarea})
	reg.Register(selectWidget{})
	reg.Register(multiSelectWidget{})
	reg.Register(checkboxWidget{})
	reg.Register(dateWidget{})
	reg.Register(phoneWidget{region: cfg.defaultRegion})
	reg.Register(fileWidget{})
	reg.Register(computedWidget{})
	return reg
}

// Register adds or replaces the widget for its kind.
func (r *Registry) Register(w Widget) {
	if r == nil || w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[w.Kind()] = w
}

// Resolve returns the widget handling the given kind.
func (r *Registry) Resolve(kind schema.FieldKind) (Widget, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[kind]
	return w, ok
}

// Covers verifies that every kind the schema references has a registered
// widget. Called once at form construction so missing handlers surface before
// any rendering or input happens.
func (r *Registry) Covers(s *schema.Schema) error {
	if s == nil {
		return fmt.Errorf("widgets: schema is required")
	}
	for _, kind := range s.Kinds() {
		if _, ok := r.Resolve(kind); !ok {
			return fmt.Errorf("widgets: no widget registered for kind %q", kind)
		}
	}
	return nil
}
