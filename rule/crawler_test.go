package rule

import (
	"bytes"
	"errors"
	"testing"

	"github.com/use-agent/sift/fetch"
)

func testCrawlerRule() *CrawlerRule {
	return &CrawlerRule{
		Name: "article",
		RequestArgs: fetch.RequestArguments{
			URL:     "https://example.com/article/1",
			Method:  "get",
			Headers: map[string]string{"Referer": "https://example.com"},
		},
		ParseRules: []*ParseRule{
			{Name: "title", ChainRules: []ChainStep{{Parser: "css", Param: "title", Value: "$text"}}},
		},
		Regex:    `https://example\.com/article/\d+`,
		Encoding: "utf-8",
	}
}

func TestCrawlerRule_RoundTrip(t *testing.T) {
	r := testCrawlerRule()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	first, err := r.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	loaded, err := LoadCrawlerRule(first)
	if err != nil {
		t.Fatalf("LoadCrawlerRule failed: %v", err)
	}
	second, err := loaded.Dump()
	if err != nil {
		t.Fatalf("second Dump failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("dump not byte-stable:\n first: %s\nsecond: %s", first, second)
	}
	if loaded.Name != r.Name || loaded.Regex != r.Regex || loaded.Encoding != r.Encoding {
		t.Errorf("loaded = %+v, want %+v", loaded, r)
	}
	if loaded.RequestArgs.Headers["Referer"] != "https://example.com" {
		t.Errorf("headers lost in round trip: %+v", loaded.RequestArgs)
	}
}

func TestCrawlerRule_ExtraRequestKeys(t *testing.T) {
	doc := []byte(`{"name":"x","request_args":{"url":"https://example.com/x","method":"get","verify":false},"parse_rules":[],"regex":"example"}`)
	r, err := LoadCrawlerRule(doc)
	if err != nil {
		t.Fatalf("LoadCrawlerRule failed: %v", err)
	}
	if r.RequestArgs.Extra["verify"] != false {
		t.Errorf("extra key lost: %+v", r.RequestArgs.Extra)
	}
	out, err := r.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if !bytes.Equal(out, doc) {
		t.Errorf("extra keys not byte-stable:\n got: %s\nwant: %s", out, doc)
	}
}

func TestCrawlerRule_MatchURL(t *testing.T) {
	r := testCrawlerRule()

	if !r.MatchURL("https://example.com/article/42") {
		t.Error("expected article URL to match")
	}
	if r.MatchURL("https://example.com/list") {
		t.Error("list URL should not match")
	}

	// The pattern applies unanchored.
	r.Regex = `/article/`
	if !r.MatchURL("https://example.com/article/42?ref=rss") {
		t.Error("unanchored pattern should match anywhere in the URL")
	}

	r.Regex = ""
	if r.MatchURL("https://example.com/article/42") {
		t.Error("empty regex must match nothing")
	}
}

func TestCrawlerRule_ValidateErrors(t *testing.T) {
	r := testCrawlerRule()
	r.Name = ""
	if err := r.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	r = testCrawlerRule()
	r.Regex = "("
	err := r.Validate()
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
	var malformed *MalformedRuleError
	if !errors.As(err, &malformed) {
		t.Errorf("error is %T, want *MalformedRuleError", err)
	}

	r = testCrawlerRule()
	r.ParseRules = append(r.ParseRules, &ParseRule{Name: "title"})
	if err := r.Validate(); err == nil {
		t.Error("expected error for duplicate parse rule names")
	}
}

func TestCrawlerRule_EmptyParseRulesStayEmpty(t *testing.T) {
	r := &CrawlerRule{Name: "bare", Regex: "x"}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	out, err := r.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	want := `{"name":"bare","request_args":{},"parse_rules":[],"regex":"x"}`
	if string(out) != want {
		t.Errorf("dump = %s, want %s", out, want)
	}
}
