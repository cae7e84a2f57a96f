package widgets

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// stripMarkup removes any HTML the user pasted into a free-text field,
// leaving plain text. bluemonday entity-escapes on the way out, so the result
// is unescaped back into readable characters.
var stripMarkup = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	return html.UnescapeString(stripMarkup.Sanitize(strings.TrimSpace(s)))
}

// textWidget handles both TEXT and TEXTAREA fields. The two kinds differ only
// in presentation; coercion is identical.
type textWidget struct {
	kind schema.FieldKind
}

func (w textWidget) Kind() schema.FieldKind { return w.kind }

func (w textWidget) Coerce(_ schema.FieldDescriptor, raw Input) (value.Value, error) {
	text := sanitizeText(raw.Text)
	if text == "" {
		return value.Absent(), nil
	}
	return value.String(text), nil
}

func (w textWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	s, _ := v.Str()
	return s
}

type selectWidget struct{}

func (selectWidget) Kind() schema.FieldKind { return schema.KindSelect }

func (selectWidget) Coerce(_ schema.FieldDescriptor, raw Input) (value.Value, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return value.Absent(), nil
	}
	return value.Option(text), nil
}

func (selectWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	s, _ := v.Str()
	return s
}

type multiSelectWidget struct{}

func (multiSelectWidget) Kind() schema.FieldKind { return schema.KindMultiSelect }

func (multiSelectWidget) Coerce(_ schema.FieldDescriptor, raw Input) (value.Value, error) {
	selected := make([]string, 0, len(raw.Values))
	seen := make(map[string]struct{}, len(raw.Values))
	for _, v := range raw.Values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		selected = append(selected, trimmed)
	}
	if len(selected) == 0 {
		return value.Absent(), nil
	}
	return value.OptionList(selected), nil
}

func (multiSelectWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	selected, _ := v.Selected()
	return strings.Join(selected, ", ")
}

type checkboxWidget struct{}

func (checkboxWidget) Kind() schema.FieldKind { return schema.KindCheckbox }

func (checkboxWidget) Coerce(field schema.FieldDescriptor, raw Input) (value.Value, error) {
	text := strings.ToLower(strings.TrimSpace(raw.Text))
	switch text {
	case "":
		return value.Absent(), nil
	case "on", "yes":
		return value.Bool(true), nil
	case "off", "no":
		return value.Bool(false), nil
	}
	parsed, err := strconv.ParseBool(text)
	if err != nil {
		return value.Absent(), &CoercionError{Field: field.Key, Message: "not a yes/no value"}
	}
	return value.Bool(parsed), nil
}

func (checkboxWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	flag, ok := v.Flag()
	if !ok {
		return ""
	}
	return strconv.FormatBool(flag)
}

// computedWidget passes externally produced values through unchanged. It
// backs fields whose editing surface lives outside the form core, such as the
// profile-picture uploader.
type computedWidget struct{}

func (computedWidget) Kind() schema.FieldKind { return schema.KindComputed }

func (computedWidget) Coerce(_ schema.FieldDescriptor, raw Input) (value.Value, error) {
	switch {
	case raw.File != nil:
		return value.File(*raw.File), nil
	case len(raw.Values) > 0:
		return value.OptionList(raw.Values), nil
	case strings.TrimSpace(raw.Text) != "":
		return value.String(raw.Text), nil
	default:
		return value.Absent(), nil
	}
}

func (computedWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	if att, ok := v.File(); ok {
		return att.Filename
	}
	s, _ := v.Str()
	return s
}
