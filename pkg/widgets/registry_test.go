package widgets

import (
	"testing"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

func TestRegistryCoversAllKinds(t *testing.T) {
	reg := NewRegistry()
	kinds := []schema.FieldKind{
		schema.KindText, schema.KindPhone, schema.KindSelect,
		schema.KindMultiSelect, schema.KindDate, schema.KindTextarea,
		schema.KindCheckbox, schema.KindFile, schema.KindComputed,
	}
	for _, kind := range kinds {
		if _, ok := reg.Resolve(kind); !ok {
			t.Fatalf("no built-in widget for kind %q", kind)
		}
	}
}

func TestCovers_MissingKind(t *testing.T) {
	reg := &Registry{widgets: map[schema.FieldKind]Widget{}}
	s, err := schema.Define(schema.FieldDescriptor{Key: "name", Kind: schema.KindText})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := reg.Covers(s); err == nil {
		t.Fatal("expected coverage failure for empty registry")
	}
}

func TestTextCoercion_StripsMarkup(t *testing.T) {
	reg := NewRegistry()
	w, _ := reg.Resolve(schema.KindText)
	field := schema.FieldDescriptor{Key: "name", Kind: schema.KindText}

	v, err := w.Coerce(field, Text("  <script>alert(1)</script>Tom & Jerry "))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	got, _ := v.Str()
	if got != "Tom & Jerry" {
		t.Fatalf("sanitized text = %q", got)
	}
}

func TestSelectCoercion(t *testing.T) {
	reg := NewRegistry()
	w, _ := reg.Resolve(schema.KindSelect)
	field := schema.FieldDescriptor{Key: "gender", Kind: schema.KindSelect}

	v, err := w.Coerce(field, Text("male"))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if v.Kind() != value.KindOption {
		t.Fatalf("kind = %q", v.Kind())
	}

	v, err = w.Coerce(field, Text("  "))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if !v.IsEmpty() {
		t.Fatal("blank selection should coerce to an empty value")
	}
}

func TestMultiSelectCoercion_Dedupes(t *testing.T) {
	reg := NewRegistry()
	w, _ := reg.Resolve(schema.KindMultiSelect)
	field := schema.FieldDescriptor{Key: "days", Kind: schema.KindMultiSelect}

	v, err := w.Coerce(field, Selections("mon", " mon ", "", "wed"))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	selected, _ := v.Selected()
	if len(selected) != 2 || selected[0] != "mon" || selected[1] != "wed" {
		t.Fatalf("selected = %v", selected)
	}
}

func TestCheckboxCoercion(t *testing.T) {
	reg := NewRegistry()
	w, _ := reg.Resolve(schema.KindCheckbox)
	field := schema.FieldDescriptor{Key: "consent", Kind: schema.KindCheckbox}

	cases := []struct {
		raw  string
		want bool
	}{
		{"on", true}, {"true", true}, {"yes", true},
		{"off", false}, {"false", false}, {"no", false},
	}
	for _, tc := range cases {
		v, err := w.Coerce(field, Text(tc.raw))
		if err != nil {
			t.Fatalf("Coerce(%q): %v", tc.raw, err)
		}
		if flag, _ := v.Flag(); flag != tc.want {
			t.Fatalf("Coerce(%q) = %v, want %v", tc.raw, flag, tc.want)
		}
	}

	if _, err := w.Coerce(field, Text("maybe")); err == nil {
		t.Fatal("expected coercion error for non-boolean input")
	}
}
