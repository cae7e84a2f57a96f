package widgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

const dateDigits = 8 // DD MM YYYY

// dateWidget implements progressive day/month/year entry. Digits are masked
// into DD/MM/YYYY as they are typed; the canonical RFC 3339 value is emitted
// only once all eight digit positions are filled. Until then the field holds
// the intermediate display string, which never validates for submission.
type dateWidget struct{}

func (dateWidget) Kind() schema.FieldKind { return schema.KindDate }

func (dateWidget) Coerce(field schema.FieldDescriptor, raw Input) (value.Value, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return value.Absent(), nil
	}

	// A stored canonical value round-tripped through SetValue stays canonical.
	if strings.Contains(text, "T") {
		if ts, err := time.Parse(time.RFC3339, text); err == nil {
			return value.String(ts.UTC().Format(time.RFC3339)), nil
		}
	}

	digits := keepDigits(text)
	if len(digits) > dateDigits {
		digits = digits[:dateDigits]
	}
	display := maskDate(digits)
	if len(digits) < dateDigits {
		return value.String(display), nil
	}

	ts, ok := parseDayMonthYear(digits)
	if !ok {
		return value.String(display), &CoercionError{Field: field.Key, Message: "not a real calendar date"}
	}
	return value.String(ts.Format(time.RFC3339)), nil
}

func (dateWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	s, ok := v.Str()
	if !ok {
		return ""
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return fmt.Sprintf("%02d/%02d/%04d", ts.Day(), int(ts.Month()), ts.Year())
	}
	return s
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// maskDate inserts the DD/MM/YYYY separators for however many digits have
// been typed so far.
func maskDate(digits string) string {
	switch {
	case len(digits) <= 2:
		return digits
	case len(digits) <= 4:
		return digits[:2] + "/" + digits[2:]
	default:
		return digits[:2] + "/" + digits[2:4] + "/" + digits[4:]
	}
}

// parseDayMonthYear converts a complete 8-digit sequence into a UTC midnight
// timestamp, rejecting impossible calendar dates (31/02, month 13, ...).
func parseDayMonthYear(digits string) (time.Time, bool) {
	day := int(digits[0]-'0')*10 + int(digits[1]-'0')
	month := int(digits[2]-'0')*10 + int(digits[3]-'0')
	year := 0
	for _, r := range digits[4:] {
		year = year*10 + int(r-'0')
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if ts.Day() != day || int(ts.Month()) != month || ts.Year() != year {
		return time.Time{}, false
	}
	return ts, true
}
