package schema

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override adjusts one field of a base schema for a named intake profile.
// A nil Required leaves the base requirement untouched.
type Override struct {
	Required *bool `yaml:"required"`
	// Omit removes the field from the profile entirely.
	Omit bool `yaml:"omit"`
}

// ProfileSpec selects which base fields a profile keeps and which it
// re-marks as required or optional. Overrides are layered onto the base
// schema once, at resolution time.
type ProfileSpec struct {
	Name      string              `yaml:"name"`
	Overrides map[string]Override `yaml:"overrides"`
}

// Resolve applies the profile's overrides to the base schema and returns a
// new Schema. Overrides naming unknown fields fail with a DefinitionError so
// a profile document cannot silently drift from the entity it configures.
func (s *Schema) Resolve(spec ProfileSpec) (*Schema, error) {
	for key := range spec.Overrides {
		if !s.Has(key) {
			return nil, &DefinitionError{Key: key, Reason: fmt.Sprintf("profile %q overrides undeclared field", spec.Name)}
		}
	}

	resolved := make([]FieldDescriptor, 0, len(s.fields))
	for _, field := range s.fields {
		override, ok := spec.Overrides[field.Key]
		if ok && override.Omit {
			continue
		}
		if ok && override.Required != nil {
			field.Required = *override.Required
		}
		resolved = append(resolved, field)
	}
	return Define(resolved...)
}

// ParseProfileSpec decodes a YAML profile document.
func ParseProfileSpec(r io.Reader) (ProfileSpec, error) {
	var spec ProfileSpec
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return ProfileSpec{}, fmt.Errorf("schema: parse profile document: %w", err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return ProfileSpec{}, &DefinitionError{Reason: "profile document is missing a name"}
	}
	return spec, nil
}

// LoadProfileSpec reads and parses a YAML profile document from a filesystem.
func LoadProfileSpec(fsys fs.FS, path string) (ProfileSpec, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return ProfileSpec{}, fmt.Errorf("schema: open profile document: %w", err)
	}
	defer file.Close()
	return ParseProfileSpec(file)
}
