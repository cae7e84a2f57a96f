package schema

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestDefine_DuplicateKey(t *testing.T) {
	_, err := Define(
		FieldDescriptor{Key: "name", Kind: KindText},
		FieldDescriptor{Key: "name", Kind: KindText},
	)

	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
	if defErr.Key != "name" {
		t.Fatalf("error key = %q, want %q", defErr.Key, "name")
	}
}

func TestDefine_UnknownKind(t *testing.T) {
	_, err := Define(FieldDescriptor{Key: "name", Kind: FieldKind("hologram")})

	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
}

func TestDefine_InvalidPattern(t *testing.T) {
	_, err := Define(FieldDescriptor{
		Key:         "phone",
		Kind:        KindPhone,
		Constraints: Constraints{Pattern: "+["},
	})
	if err == nil {
		t.Fatal("expected error for broken pattern")
	}
}

func TestDefine_OptionConflict(t *testing.T) {
	_, err := Define(FieldDescriptor{
		Key:  "plan",
		Kind: KindSelect,
		Constraints: Constraints{
			Options:      []Option{{Label: "Gold", Value: "gold"}},
			OptionSource: "membershipPlans",
		},
	})
	if err == nil {
		t.Fatal("expected error for conflicting option sources")
	}
}

func TestFieldLookup(t *testing.T) {
	s, err := Define(
		FieldDescriptor{Key: "name", Kind: KindText, Required: true},
		FieldDescriptor{Key: "email", Kind: KindText},
	)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	field, err := s.Field("email")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if field.Key != "email" {
		t.Fatalf("field key = %q", field.Key)
	}

	if _, err := s.Field("ghost"); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestKindsFirstUseOrder(t *testing.T) {
	s, err := Define(
		FieldDescriptor{Key: "name", Kind: KindText},
		FieldDescriptor{Key: "phone", Kind: KindPhone},
		FieldDescriptor{Key: "address", Kind: KindTextarea},
		FieldDescriptor{Key: "email", Kind: KindText},
	)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	want := []FieldKind{KindText, KindPhone, KindTextarea}
	if diff := cmp.Diff(want, s.Kinds()); diff != "" {
		t.Fatalf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveProfile(t *testing.T) {
	base, err := Define(
		FieldDescriptor{Key: "name", Kind: KindText, Required: true},
		FieldDescriptor{Key: "email", Kind: KindText, Required: true},
		FieldDescriptor{Key: "amountPaid", Kind: KindText},
	)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	optional := false
	resolved, err := base.Resolve(ProfileSpec{
		Name: "quick-intake",
		Overrides: map[string]Override{
			"email":      {Required: &optional},
			"amountPaid": {Omit: true},
		},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.Has("amountPaid") {
		t.Fatal("omitted field should be gone")
	}
	email, err := resolved.Field("email")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if email.Required {
		t.Fatal("email should have been demoted to optional")
	}
	name, _ := resolved.Field("name")
	if !name.Required {
		t.Fatal("untouched field should keep its base requirement")
	}
}

func TestResolveProfile_UnknownField(t *testing.T) {
	base, err := Define(FieldDescriptor{Key: "name", Kind: KindText})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	_, err = base.Resolve(ProfileSpec{
		Name:      "quick-intake",
		Overrides: map[string]Override{"ghost": {Omit: true}},
	})
	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
}

func TestParseProfileSpec(t *testing.T) {
	doc := `
name: quick-intake
overrides:
  email:
    required: false
  amountPaid:
    omit: true
`
	spec, err := ParseProfileSpec(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseProfileSpec: %v", err)
	}
	if spec.Name != "quick-intake" {
		t.Fatalf("name = %q", spec.Name)
	}
	if !spec.Overrides["amountPaid"].Omit {
		t.Fatal("amountPaid should be omitted")
	}
	if required := spec.Overrides["email"].Required; required == nil || *required {
		t.Fatal("email override should carry required=false")
	}
}

func TestParseProfileSpec_RejectsUnknownFields(t *testing.T) {
	_, err := ParseProfileSpec(strings.NewReader("name: x\nextra: true\n"))
	if err == nil {
		t.Fatal("expected strict decode failure")
	}
}

func TestLoadProfileSpec(t *testing.T) {
	fsys := fstest.MapFS{
		"profiles/minimal.yaml": &fstest.MapFile{Data: []byte("name: minimal\n")},
	}
	spec, err := LoadProfileSpec(fsys, "profiles/minimal.yaml")
	if err != nil {
		t.Fatalf("LoadProfileSpec: %v", err)
	}
	if spec.Name != "minimal" {
		t.Fatalf("name = %q", spec.Name)
	}
}
