package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// E.164-compatible shape: optional leading +, 8-15 digits, no leading zero.
var phoneShape = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)

// OptionSource supplies the option sets SELECT and MULTISELECT fields
// validate against. The second return reports availability: a set that has
// not finished loading returns false, and fields referencing it do not
// validate until it is there.
type OptionSource interface {
	Options(name string) ([]schema.Option, bool)
}

// StaticOptions is an OptionSource backed by a fixed map. Useful for tests
// and for the always-available sets (gender, blood group, ...).
type StaticOptions map[string][]schema.Option

// Options implements OptionSource.
func (s StaticOptions) Options(name string) ([]schema.Option, bool) {
	opts, ok := s[name]
	return opts, ok
}

// MergeSources checks sources in order and returns the first that knows the
// named set.
func MergeSources(sources ...OptionSource) OptionSource {
	return mergedSource(sources)
}

type mergedSource []OptionSource

func (m mergedSource) Options(name string) ([]schema.Option, bool) {
	for _, src := range m {
		if src == nil {
			continue
		}
		if opts, ok := src.Options(name); ok {
			return opts, true
		}
	}
	return nil, false
}

// Result is the outcome of validating a whole session snapshot: either a
// validated value set or a per-field error map, never both.
type Result struct {
	values map[string]value.Value
	errors map[string]string
}

// Valid reports whether every field passed.
func (r Result) Valid() bool {
	return len(r.errors) == 0
}

// Values returns the validated value set. It is nil unless Valid.
func (r Result) Values() map[string]value.Value {
	if !r.Valid() {
		return nil
	}
	return r.values
}

// FieldErrors maps field keys to the single message of their first failing
// constraint.
func (r Result) FieldErrors() map[string]string {
	return r.errors
}

// FieldError returns the message recorded for one field.
func (r Result) FieldError(key string) (string, bool) {
	msg, ok := r.errors[key]
	return msg, ok
}

// Validate evaluates the snapshot as a whole unit against the schema in
// declaration order. Each field reports at most one message: the first
// failing check in the fixed order required → shape → length → pattern →
// option membership (files: MIME → size).
func Validate(s *schema.Schema, snapshot map[string]value.Value, options OptionSource) Result {
	result := Result{
		values: make(map[string]value.Value, s.Len()),
		errors: make(map[string]string),
	}
	for _, field := range s.Fields() {
		v := snapshot[field.Key]
		if msg := checkField(field, v, options); msg != "" {
			result.errors[field.Key] = msg
			continue
		}
		result.values[field.Key] = v
	}
	return result
}

func checkField(field schema.FieldDescriptor, v value.Value, options OptionSource) string {
	if v.IsEmpty() {
		if !field.Required {
			return ""
		}
		if field.RequiredMessage != "" {
			return field.RequiredMessage
		}
		return fmt.Sprintf("%s is required.", label(field))
	}

	switch field.Kind {
	case schema.KindFile, schema.KindComputed:
		if att, ok := v.File(); ok {
			return checkFileConstraints(field, att)
		}
		if field.Kind == schema.KindFile {
			return fmt.Sprintf("%s must be a file.", label(field))
		}
		return ""
	case schema.KindDate:
		return checkDate(field, v)
	case schema.KindPhone:
		return checkPhone(field, v)
	case schema.KindCheckbox:
		if _, ok := v.Flag(); !ok {
			return fmt.Sprintf("%s must be a yes/no value.", label(field))
		}
		return ""
	case schema.KindMultiSelect:
		return checkMultiSelect(field, v, options)
	case schema.KindSelect:
		return checkSelect(field, v, options)
	default:
		return checkText(field, v)
	}
}

func checkText(field schema.FieldDescriptor, v value.Value) string {
	text, ok := v.Str()
	if !ok {
		return fmt.Sprintf("%s must be text.", label(field))
	}
	length := utf8.RuneCountInString(text)
	if min := field.Constraints.MinLength; min > 0 && length < min {
		return fmt.Sprintf("%s must be at least %d characters.", label(field), min)
	}
	if max := field.Constraints.MaxLength; max > 0 && length > max {
		return fmt.Sprintf("%s must not exceed %d characters.", label(field), max)
	}
	if pattern := field.Constraints.CompiledPattern(); pattern != nil && !pattern.MatchString(text) {
		if field.PatternMessage != "" {
			return field.PatternMessage
		}
		return fmt.Sprintf("%s format is invalid.", label(field))
	}
	return ""
}

func checkDate(field schema.FieldDescriptor, v value.Value) string {
	text, ok := v.Str()
	if !ok {
		return fmt.Sprintf("%s must be a date.", label(field))
	}
	// Intermediate entry (partially typed DD/MM/YYYY) never validates.
	if _, err := time.Parse(time.RFC3339, text); err != nil {
		return fmt.Sprintf("Please select a valid %s.", label(field))
	}
	return ""
}

func checkPhone(field schema.FieldDescriptor, v value.Value) string {
	text, ok := v.Str()
	if !ok || !phoneShape.MatchString(text) {
		if field.PatternMessage != "" {
			return field.PatternMessage
		}
		return fmt.Sprintf("%s must be a valid phone number.", label(field))
	}
	return ""
}

func checkSelect(field schema.FieldDescriptor, v value.Value, options OptionSource) string {
	selected, ok := v.Str()
	if !ok {
		return fmt.Sprintf("%s must be a selection.", label(field))
	}
	allowed, msg := resolveOptions(field, options)
	if msg != "" {
		return msg
	}
	if allowed == nil {
		return ""
	}
	if !optionAllowed(selected, allowed) {
		return fmt.Sprintf("%s selection is not one of the available options.", label(field))
	}
	return ""
}

func checkMultiSelect(field schema.FieldDescriptor, v value.Value, options OptionSource) string {
	selected, ok := v.Selected()
	if !ok {
		return fmt.Sprintf("%s must be a selection.", label(field))
	}
	allowed, msg := resolveOptions(field, options)
	if msg != "" {
		return msg
	}
	if allowed == nil {
		return ""
	}
	for _, entry := range selected {
		if !optionAllowed(entry, allowed) {
			return fmt.Sprintf("%s selection is not one of the available options.", label(field))
		}
	}
	return ""
}

// resolveOptions returns the option set the field validates against, or a
// blocking message when the set is reference data that has not loaded yet. A
// nil set with no message means the field carries no membership constraint.
func resolveOptions(field schema.FieldDescriptor, options OptionSource) ([]schema.Option, string) {
	if static := field.Constraints.Options; len(static) > 0 {
		return static, ""
	}
	source := field.Constraints.OptionSource
	if source == "" {
		return nil, ""
	}
	if options == nil {
		return nil, fmt.Sprintf("%s options are still loading.", label(field))
	}
	opts, ok := options.Options(source)
	if !ok {
		return nil, fmt.Sprintf("%s options are still loading.", label(field))
	}
	return opts, ""
}

func optionAllowed(selected string, allowed []schema.Option) bool {
	for _, opt := range allowed {
		if opt.Value == selected {
			return true
		}
	}
	return false
}

func checkFileConstraints(field schema.FieldDescriptor, att value.Attachment) string {
	if allowed := field.Constraints.AllowedMIMETypes; len(allowed) > 0 && !fileTypeAllowed(att.MIMEType, allowed) {
		return fmt.Sprintf("%s must be one of: %s.", label(field), strings.Join(allowed, ", "))
	}
	// Exact byte counts, never rounded.
	if max := field.Constraints.MaxBytes; max > 0 && att.Size() > max {
		return fmt.Sprintf("%s size must be less than %d bytes.", label(field), max)
	}
	return ""
}

func fileTypeAllowed(mimeType string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
		if prefix, ok := strings.CutSuffix(candidate, "/*"); ok {
			if strings.HasPrefix(strings.ToLower(mimeType), strings.ToLower(prefix)+"/") {
				return true
			}
		}
	}
	return false
}

func label(field schema.FieldDescriptor) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Key
}
