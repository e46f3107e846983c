package parser

import (
	"reflect"
	"testing"
)

func TestLoader_JSON(t *testing.T) {
	l := NewLoaderCapability()
	for _, format := range []string{"", "json"} {
		got, err := l.Evaluate(`{"a": [1, 2]}`, format, "")
		if err != nil {
			t.Fatalf("format %q failed: %v", format, err)
		}
		want := map[string]any{"a": []any{float64(1), float64(2)}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("format %q = %v, want %v", format, got, want)
		}
	}
}

func TestLoader_YAML(t *testing.T) {
	l := NewLoaderCapability()
	got, err := l.Evaluate("a: 1\nb:\n  - x\n  - y\n", "yaml", "")
	if err != nil {
		t.Fatalf("yaml failed: %v", err)
	}
	want := map[string]any{"a": 1, "b": []any{"x", "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("yaml = %v, want %v", got, want)
	}
}

func TestLoader_TOML(t *testing.T) {
	l := NewLoaderCapability()
	got, err := l.Evaluate("title = \"doc\"\n\n[owner]\nname = \"Tom\"\n", "toml", "")
	if err != nil {
		t.Fatalf("toml failed: %v", err)
	}
	want := map[string]any{
		"title": "doc",
		"owner": map[string]any{"name": "Tom"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toml = %v, want %v", got, want)
	}
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoaderCapability()

	if _, err := l.Evaluate("{broken", "json", ""); err == nil {
		t.Error("expected error for invalid json")
	}
	if _, err := l.Evaluate("{}", "csv", ""); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := l.Evaluate(42, "json", ""); err == nil {
		t.Error("expected error for non-text input")
	}
}
