package widgets

import (
	"fmt"
	"strings"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// fileWidget enforces the descriptor's MIME allow-list and byte ceiling at
// selection time. A violating file is rejected outright, never truncated, and
// only the first violated constraint is reported.
type fileWidget struct{}

func (fileWidget) Kind() schema.FieldKind { return schema.KindFile }

func (fileWidget) Coerce(field schema.FieldDescriptor, raw Input) (value.Value, error) {
	if raw.File == nil {
		return value.Absent(), nil
	}
	if msg := checkAttachment(field, *raw.File); msg != "" {
		return value.Absent(), &CoercionError{Field: field.Key, Message: msg}
	}
	return value.File(*raw.File), nil
}

func (fileWidget) Format(_ schema.FieldDescriptor, v value.Value) string {
	att, ok := v.File()
	if !ok {
		return ""
	}
	return att.Filename
}

// checkAttachment applies MIME then size, in that order, returning the first
// violation's message or "".
func checkAttachment(field schema.FieldDescriptor, att value.Attachment) string {
	if allowed := field.Constraints.AllowedMIMETypes; len(allowed) > 0 {
		if !mimeAllowed(att.MIMEType, allowed) {
			return fmt.Sprintf("file type %s is not allowed (expected %s)", att.MIMEType, strings.Join(allowed, ", "))
		}
	}
	if max := field.Constraints.MaxBytes; max > 0 && att.Size() > max {
		return fmt.Sprintf("file size must be less than %s", formatBytes(max))
	}
	return ""
}

func mimeAllowed(mimeType string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
		// "image/*" style wildcards.
		if prefix, ok := strings.CutSuffix(candidate, "/*"); ok {
			if strings.HasPrefix(strings.ToLower(mimeType), strings.ToLower(prefix)+"/") {
				return true
			}
		}
	}
	return false
}

func formatBytes(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case n%mb == 0:
		return fmt.Sprintf("%dMB", n/mb)
	case n%kb == 0:
		return fmt.Sprintf("%dKB", n/kb)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
