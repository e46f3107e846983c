package parser

import (
	"reflect"
	"testing"
)

func TestRegex_FindAll(t *testing.T) {
	re := NewRegexCapability()

	got, err := re.Evaluate(testPageHTML, `class="a"`, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := []any{`class="a"`, `class="a"`, `class="a"`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findall without group = %v, want %v", got, want)
	}

	got, err = re.Evaluate(testPageHTML, `class="(.*?)"`, "")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want = []any{"title", "body", "a", "a", "a", "body"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findall with group = %v, want %v", got, want)
	}
}

func TestRegex_GroupSelect(t *testing.T) {
	re := NewRegexCapability()

	got, err := re.Evaluate(testPageHTML, `class="(a)"`, "$0")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if want := []any{`class="a"`, `class="a"`, `class="a"`}; !reflect.DeepEqual(got, want) {
		t.Errorf("$0 = %v, want %v", got, want)
	}

	got, err = re.Evaluate(testPageHTML, `class="(a)"`, "$1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if want := []any{"a", "a", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("$1 = %v, want %v", got, want)
	}
}

func TestRegex_Replace(t *testing.T) {
	re := NewRegexCapability()
	input := `<a class="a" id="link1"><!--invisible comment--></a>`
	got, err := re.Evaluate(input, `class="(a)"`, `@class="\1 b"`)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := `<a class="a b" id="link1"><!--invisible comment--></a>`
	if got != want {
		t.Errorf("replace = %q, want %q", got, want)
	}
}

func TestRegex_ReplaceLiteralDollar(t *testing.T) {
	re := NewRegexCapability()
	got, err := re.Evaluate("price: 12", `(\d+)`, `@$\1`)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != "price: $12" {
		t.Errorf("replace = %q, want %q", got, "price: $12")
	}
}

func TestRegex_Split(t *testing.T) {
	re := NewRegexCapability()
	got, err := re.Evaluate("a1b22c333d", `\d+`, "-")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := []any{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("split = %v, want %v", got, want)
	}
}

func TestRegex_Errors(t *testing.T) {
	re := NewRegexCapability()

	if _, err := re.Evaluate("x", "x", "nope"); err == nil {
		t.Error("expected error for malformed value")
	}
	if _, err := re.Evaluate("x", `class="(a)"`, "$5"); err == nil {
		t.Error("expected error for out-of-range group")
	}
	if _, err := re.Evaluate("x", "(", ""); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := re.Evaluate(42, "x", ""); err == nil {
		t.Error("expected error for non-string input")
	}
}
