package value

import "strings"

// Kind discriminates the tagged variants a field value can hold. Downstream
// code (validator, payload mapper) branches on Kind instead of inspecting the
// runtime type of anything.
type Kind string

const (
	// KindAbsent marks a field that has never been set and carries no data.
	KindAbsent Kind = "absent"
	// KindString covers free text, canonical date strings, and intermediate
	// (partially typed) date input.
	KindString Kind = "string"
	// KindNumber holds a numeric value such as a custom session rate.
	KindNumber Kind = "number"
	// KindBool holds a checkbox state.
	KindBool Kind = "bool"
	// KindOption holds a single selected option value.
	KindOption Kind = "option"
	// KindOptionList holds the selected values of a multi-select.
	KindOptionList Kind = "optionList"
	// KindAttachment holds a binary upload (photo, identity document).
	KindAttachment Kind = "attachment"
)

// Attachment is the binary payload of a file field: raw bytes plus the
// metadata needed to replay it as a multipart part.
type Attachment struct {
	Data     []byte
	Filename string
	MIMEType string
}

// Size returns the exact byte count of the attachment.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// Value is the tagged union stored per field in a form session. The zero
// Value is Absent.
type Value struct {
	kind       Kind
	str        string
	num        float64
	flag       bool
	list       []string
	attachment *Attachment
}

// Absent returns the value for a field that has not been set.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// String wraps free text or a canonical/intermediate date string.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number wraps a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool wraps a checkbox state.
func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// Option wraps one selected option value.
func Option(v string) Value {
	return Value{kind: KindOption, str: v}
}

// OptionList wraps the selected values of a multi-select. The slice is copied
// so later caller mutation cannot leak into a session.
func OptionList(vs []string) Value {
	return Value{kind: KindOptionList, list: append([]string(nil), vs...)}
}

// File wraps a binary attachment.
func File(a Attachment) Value {
	copied := a
	copied.Data = append([]byte(nil), a.Data...)
	return Value{kind: KindAttachment, attachment: &copied}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindAbsent
	}
	return v.kind
}

// IsEmpty reports whether the value counts as "no value provided" for
// required checks and payload omission: absent, blank string, empty option,
// empty option list, or a missing attachment. Bool and Number values are
// never empty.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case KindAbsent:
		return true
	case KindString, KindOption:
		return strings.TrimSpace(v.str) == ""
	case KindOptionList:
		return len(v.list) == 0
	case KindAttachment:
		return v.attachment == nil
	default:
		return false
	}
}

// Str returns the string payload for KindString and KindOption values.
func (v Value) Str() (string, bool) {
	if k := v.Kind(); k != KindString && k != KindOption {
		return "", false
	}
	return v.str, true
}

// Num returns the numeric payload of a KindNumber value.
func (v Value) Num() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Flag returns the boolean payload of a KindBool value.
func (v Value) Flag() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.flag, true
}

// Selected returns the values of a KindOptionList value.
func (v Value) Selected() ([]string, bool) {
	if v.Kind() != KindOptionList {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

// File returns the attachment of a KindAttachment value. The second return is
// false when the value is any other kind or the attachment is missing.
func (v Value) File() (Attachment, bool) {
	if v.Kind() != KindAttachment || v.attachment == nil {
		return Attachment{}, false
	}
	return *v.attachment, true
}
