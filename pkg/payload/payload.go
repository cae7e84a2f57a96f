package payload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// ScalarPart is one named string field of the wire payload.
type ScalarPart struct {
	Name  string
	Value string
}

// AttachmentPart is one binary part with its filename and content type.
type AttachmentPart struct {
	Name       string
	Attachment value.Attachment
}

// Payload is the wire-ready form submission: renamed scalar fields in schema
// order plus any binary attachments.
type Payload struct {
	scalars     []ScalarPart
	attachments []AttachmentPart
}

// Build maps a validated value set onto wire parts. A field is included iff
// its value is non-empty, regardless of whether the schema marked it required
// (required fields are already guaranteed non-empty by validation). Absent
// optional fields are omitted entirely so the backend sees "no value
// provided" rather than an empty string. Fields declaring an EmptyWireValue
// transmit that sentinel instead of being omitted.
func Build(s *schema.Schema, values map[string]value.Value) (*Payload, error) {
	if s == nil {
		return nil, errors.New("payload: schema is required")
	}

	p := &Payload{}
	for _, field := range s.Fields() {
		if field.WireName == "" {
			continue
		}
		v := values[field.Key]

		if att, ok := v.File(); ok {
			// A null binary field is always omitted, never sent as an empty
			// attachment; File() already reported false for that case.
			p.attachments = append(p.attachments, AttachmentPart{
				Name:       field.WireName,
				Attachment: att,
			})
			continue
		}

		if v.IsEmpty() {
			if field.EmptyWireValue != "" {
				p.scalars = append(p.scalars, ScalarPart{Name: field.WireName, Value: field.EmptyWireValue})
			}
			continue
		}

		encoded, err := encodeScalar(field, v)
		if err != nil {
			return nil, err
		}
		p.scalars = append(p.scalars, encoded...)
	}
	return p, nil
}

func encodeScalar(field schema.FieldDescriptor, v value.Value) ([]ScalarPart, error) {
	switch v.Kind() {
	case value.KindString, value.KindOption:
		s, _ := v.Str()
		return []ScalarPart{{Name: field.WireName, Value: s}}, nil
	case value.KindNumber:
		n, _ := v.Num()
		return []ScalarPart{{Name: field.WireName, Value: strconv.FormatFloat(n, 'f', -1, 64)}}, nil
	case value.KindBool:
		b, _ := v.Flag()
		return []ScalarPart{{Name: field.WireName, Value: strconv.FormatBool(b)}}, nil
	case value.KindOptionList:
		selected, _ := v.Selected()
		parts := make([]ScalarPart, 0, len(selected))
		for _, entry := range selected {
			parts = append(parts, ScalarPart{Name: field.WireName, Value: entry})
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("payload: field %q: cannot encode %s value", field.Key, v.Kind())
	}
}

// Append adds an extra scalar part outside the schema mapping, e.g. the
// entity context identifier.
func (p *Payload) Append(name, val string) {
	p.scalars = append(p.scalars, ScalarPart{Name: name, Value: val})
}

// Scalars returns the scalar parts in order.
func (p *Payload) Scalars() []ScalarPart {
	return append([]ScalarPart(nil), p.scalars...)
}

// Attachments returns the binary parts in order.
func (p *Payload) Attachments() []AttachmentPart {
	return append([]AttachmentPart(nil), p.attachments...)
}

// Has reports whether any part (scalar or attachment) carries the wire name.
func (p *Payload) Has(name string) bool {
	for _, part := range p.scalars {
		if part.Name == name {
			return true
		}
	}
	for _, part := range p.attachments {
		if part.Name == name {
			return true
		}
	}
	return false
}

// Scalar returns the first scalar value under the wire name.
func (p *Payload) Scalar(name string) (string, bool) {
	for _, part := range p.scalars {
		if part.Name == name {
			return part.Value, true
		}
	}
	return "", false
}

// EncodeTo writes the payload as multipart/form-data and returns the content
// type carrying the boundary.
func (p *Payload) EncodeTo(w io.Writer) (string, error) {
	writer := multipart.NewWriter(w)
	for _, part := range p.scalars {
		if err := writer.WriteField(part.Name, part.Value); err != nil {
			return "", fmt.Errorf("payload: write field %q: %w", part.Name, err)
		}
	}
	for _, part := range p.attachments {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(part.Name), escapeQuotes(part.Attachment.Filename)))
		if part.Attachment.MIMEType != "" {
			header.Set("Content-Type", part.Attachment.MIMEType)
		}
		dst, err := writer.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("payload: create part %q: %w", part.Name, err)
		}
		if _, err := dst.Write(part.Attachment.Data); err != nil {
			return "", fmt.Errorf("payload: write attachment %q: %w", part.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("payload: close multipart writer: %w", err)
	}
	return writer.FormDataContentType(), nil
}

// Encode renders the payload into memory.
func (p *Payload) Encode() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	contentType, err = p.EncodeTo(&buf)
	if err != nil {
		return "", nil, err
	}
	return contentType, buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
