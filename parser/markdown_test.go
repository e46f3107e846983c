package parser

import (
	"strings"
	"testing"
)

func TestMarkdown_Convert(t *testing.T) {
	m := NewMarkdownCapability()

	got, err := m.Evaluate("<strong>Bold</strong>", "", "")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if got != "**Bold**" {
		t.Errorf("convert = %q, want **Bold**", got)
	}
}

func TestMarkdown_Structure(t *testing.T) {
	m := NewMarkdownCapability()

	got, err := m.Evaluate("<h1>Hi</h1><p>a <em>b</em> c</p>", "", "")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	md := got.(string)
	if !strings.Contains(md, "# Hi") {
		t.Errorf("missing heading in %q", md)
	}
	if !strings.Contains(md, "*b*") {
		t.Errorf("missing emphasis in %q", md)
	}
}

func TestMarkdown_RelativeLinks(t *testing.T) {
	m := NewMarkdownCapability()

	got, err := m.Evaluate(`<a href="/post/1">read</a>`, "example.com", "")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.Contains(got.(string), "example.com/post/1") {
		t.Errorf("relative link not resolved: %q", got)
	}
}

func TestMarkdown_BadInput(t *testing.T) {
	m := NewMarkdownCapability()
	if _, err := m.Evaluate(nil, "", ""); err == nil {
		t.Error("expected error for nil input")
	}
}
