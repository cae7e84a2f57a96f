package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// FieldKind enumerates the widget families a field descriptor can reference.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindPhone       FieldKind = "phone"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindDate        FieldKind = "date"
	KindTextarea    FieldKind = "textarea"
	KindCheckbox    FieldKind = "checkbox"
	KindFile        FieldKind = "file"
	// KindComputed marks fields whose value is produced by an external
	// component (for example the profile-picture uploader) and passed through
	// the session unmodified.
	KindComputed FieldKind = "computed"
)

var knownKinds = map[FieldKind]struct{}{
	KindText:        {},
	KindPhone:       {},
	KindSelect:      {},
	KindMultiSelect: {},
	KindDate:        {},
	KindTextarea:    {},
	KindCheckbox:    {},
	KindFile:        {},
	KindComputed:    {},
}

// Option is one selectable entry of a SELECT or MULTISELECT field.
type Option struct {
	Label string
	Value string
}

// Constraints carries the kind-specific limits a validator enforces. Zero
// values mean "unset". Pattern is compiled once at definition time.
type Constraints struct {
	MinLength int
	MaxLength int
	Pattern   string
	// Options is the static option set for SELECT/MULTISELECT fields.
	Options []Option
	// OptionSource names a reference-data set (for example "membershipPlans")
	// that supplies the option set at runtime. Mutually exclusive with
	// Options.
	OptionSource string
	// AllowedMIMETypes restricts file uploads; empty means any type.
	AllowedMIMETypes []string
	// MaxBytes caps file uploads using exact byte counts; zero means no cap.
	MaxBytes int64

	compiled *regexp.Regexp
}

// CompiledPattern returns the pattern compiled during Define, or nil when the
// field declares none.
func (c Constraints) CompiledPattern() *regexp.Regexp {
	return c.compiled
}

// FieldDescriptor declares one form field: identity, widget kind, wire
// mapping, and validation constraints.
type FieldDescriptor struct {
	// Key is the stable identifier of the field within the entity.
	Key string
	// Kind selects the widget handling input for this field.
	Kind FieldKind
	// Label is the human-facing name used in error messages.
	Label string
	// WireName is the key this field is submitted under. Empty means the
	// field is never transmitted.
	WireName string
	Required bool
	// RequiredMessage overrides the generated "<Label> is required." text.
	RequiredMessage string
	// PatternMessage overrides the generated pattern-violation text.
	PatternMessage string
	Default        value.Value
	Constraints    Constraints
	// EmptyWireValue, when non-empty, is transmitted in place of omitting the
	// field when its value is empty. Used for backends that expect a sentinel
	// (the trainer selection submits "0" rather than nothing).
	EmptyWireValue string
}

// DefinitionError reports a schema that cannot be used: duplicate keys,
// unknown kinds, or malformed constraints. It is a programmer error and is
// raised at definition time, never by user input.
type DefinitionError struct {
	Key    string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Key == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: field %q: %s", e.Key, e.Reason)
}

// ErrFieldNotFound is returned by Field for keys the schema does not declare.
var ErrFieldNotFound = errors.New("schema: field not found")

// Schema is an ordered, validated set of field descriptors.
type Schema struct {
	fields []FieldDescriptor
	index  map[string]int
}

// Define validates the descriptors and builds a Schema. It fails on duplicate
// keys, unregistered kinds, conflicting option sources, and patterns that do
// not compile, so a broken schema never reaches a running form.
func Define(fields ...FieldDescriptor) (*Schema, error) {
	s := &Schema{
		fields: make([]FieldDescriptor, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return nil, &DefinitionError{Reason: "field key is required"}
		}
		if _, dup := s.index[key]; dup {
			return nil, &DefinitionError{Key: key, Reason: "duplicate key"}
		}
		if _, ok := knownKinds[field.Kind]; !ok {
			return nil, &DefinitionError{Key: key, Reason: fmt.Sprintf("unknown kind %q", field.Kind)}
		}
		if len(field.Constraints.Options) > 0 && field.Constraints.OptionSource != "" {
			return nil, &DefinitionError{Key: key, Reason: "static options and option source are mutually exclusive"}
		}
		if pattern := field.Constraints.Pattern; pattern != "" {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				return nil, &DefinitionError{Key: key, Reason: fmt.Sprintf("invalid pattern: %v", err)}
			}
			field.Constraints.compiled = compiled
		}
		field.Key = key
		s.index[key] = len(s.fields)
		s.fields = append(s.fields, field)
	}
	return s, nil
}

// Field looks up a descriptor by key. Missing keys return ErrFieldNotFound.
func (s *Schema) Field(key string) (FieldDescriptor, error) {
	idx, ok := s.index[key]
	if !ok {
		return FieldDescriptor{}, fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	return s.fields[idx], nil
}

// Fields returns the descriptors in declaration order.
func (s *Schema) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), s.fields...)
}

// Has reports whether the schema declares the key.
func (s *Schema) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Kinds returns the distinct field kinds the schema references, in first-use
// order. Widget registries use this to verify coverage before a form renders.
func (s *Schema) Kinds() []FieldKind {
	seen := make(map[FieldKind]struct{}, len(knownKinds))
	out := make([]FieldKind, 0, len(knownKinds))
	for _, field := range s.fields {
		if _, ok := seen[field.Kind]; ok {
			continue
		}
		seen[field.Kind] = struct{}{}
		out = append(out, field.Kind)
	}
	return out
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}
