package widgets

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

const defaultPhoneRegion = "IN"

// phoneWidget normalizes typed numbers to E.164 using the configured default
// region for input without a country code. Exact dialing validity is the
// phone library's problem; the validator only re-checks the E.164 shape.
type phoneWidget struct {
	region string
}

func (phoneWidget) Kind() schema.FieldKind { return schema.KindPhone }

func (w phoneWidget) Coerce(field schema.FieldDescriptor, raw Input) (value.Value, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return value.Absent(), nil
	}

	region := w.region
	if region == "" {
		region = defaultPhoneRegion
	}
	parsed, err := phonenumbers.Parse(text, region)
	if err != nil {
		return value.String(text), &CoercionError{Field: field.Key, Message: "not a valid phone number"}
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return value.String(text), &CoercionError{Field: field.Key, Message: "not a valid phone number"}
	}
	return value.String(phonenumbers.Format(parsed, phonenumbers.E164)), nil
}

func (phoneWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	s, _ := v.Str()
	return s
}
