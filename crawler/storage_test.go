package crawler

import (
	"errors"
	"sort"
	"testing"

	"github.com/use-agent/sift/fetch"
	"github.com/use-agent/sift/rule"
)

func storageRule(name, url, pattern string) *rule.CrawlerRule {
	return &rule.CrawlerRule{
		Name:        name,
		RequestArgs: fetch.RequestArguments{URL: url, Method: "get"},
		Regex:       pattern,
	}
}

func TestMemoryRuleStorage_AddAndFind(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(storageRule("list", "https://example.com/list", "/list")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}

	cr, err := s.FindCrawlerRule("https://example.com/list?page=2")
	if err != nil {
		t.Fatalf("FindCrawlerRule failed: %v", err)
	}
	if cr.Name != "list" {
		t.Errorf("found rule %q, want list", cr.Name)
	}
}

func TestMemoryRuleStorage_MissIsNoRuleMatched(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(storageRule("list", "https://example.com/list", "/list")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}

	// Unknown host and unmatched path both miss.
	if _, err := s.FindCrawlerRule("https://other.example/list"); !errors.Is(err, ErrNoRuleMatched) {
		t.Errorf("unknown host error = %v, want ErrNoRuleMatched", err)
	}
	if _, err := s.FindCrawlerRule("https://example.com/about"); !errors.Is(err, ErrNoRuleMatched) {
		t.Errorf("unmatched path error = %v, want ErrNoRuleMatched", err)
	}
	// A url without a host is a caller mistake, not a miss.
	if _, err := s.FindCrawlerRule("not a url"); err == nil || errors.Is(err, ErrNoRuleMatched) {
		t.Errorf("no-host error = %v, want a plain error", err)
	}
}

func TestMemoryRuleStorage_FirstMatchWins(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(storageRule("detail", "https://example.com/article/1", `/article/\d+`)); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}
	if err := s.AddCrawlerRule(storageRule("section", "https://example.com/article/x", "/article/")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}

	cr, err := s.FindCrawlerRule("https://example.com/article/7")
	if err != nil {
		t.Fatalf("FindCrawlerRule failed: %v", err)
	}
	if cr.Name != "detail" {
		t.Errorf("found rule %q, want the first-stored detail", cr.Name)
	}
}

func TestMemoryRuleStorage_AddRejectsInvalid(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(nil); err == nil {
		t.Error("nil rule accepted")
	}
	if err := s.AddCrawlerRule(storageRule("", "https://example.com/", "x")); err == nil {
		t.Error("nameless rule accepted")
	}
	if err := s.AddCrawlerRule(storageRule("r", "", "x")); err == nil {
		t.Error("rule without url accepted")
	}
	if err := s.AddCrawlerRule(storageRule("r", "https://example.com/", "(")); err == nil {
		t.Error("rule with broken regex accepted")
	}
}

func TestMemoryRuleStorage_PopCrawlerRule(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(storageRule("a", "https://example.com/a", "/a")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}
	if err := s.AddCrawlerRule(storageRule("b", "https://example.com/b", "/b")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}

	cr, err := s.PopCrawlerRule("example.com", "a")
	if err != nil || cr == nil || cr.Name != "a" {
		t.Fatalf("PopCrawlerRule = %v, %v", cr, err)
	}
	if len(s.Hosts()) != 1 {
		t.Error("host dropped while a rule remains")
	}

	if cr, err := s.PopCrawlerRule("example.com", "absent"); err != nil || cr != nil {
		t.Errorf("absent pop = %v, %v, want nil, nil", cr, err)
	}

	// Removing the last rule removes the host.
	if _, err := s.PopCrawlerRule("example.com", "b"); err != nil {
		t.Fatalf("PopCrawlerRule failed: %v", err)
	}
	if len(s.Hosts()) != 0 {
		t.Errorf("hosts = %v, want empty after last rule popped", s.Hosts())
	}
}

func TestMemoryRuleStorage_HostRuleSets(t *testing.T) {
	s := NewMemoryRuleStorage()
	hs := rule.NewHostRuleSet("example.com")
	if err := hs.Add(storageRule("a", "https://example.com/a", "/a")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.AddHostRuleSet(hs); err != nil {
		t.Fatalf("AddHostRuleSet failed: %v", err)
	}

	got, err := s.PopHostRuleSet("example.com")
	if err != nil || got == nil || got.Host != "example.com" {
		t.Fatalf("PopHostRuleSet = %v, %v", got, err)
	}
	if got, err := s.PopHostRuleSet("example.com"); err != nil || got != nil {
		t.Errorf("second pop = %v, %v, want nil, nil", got, err)
	}

	if err := s.AddHostRuleSet(nil); err == nil {
		t.Error("nil rule set accepted")
	}
	if err := s.AddHostRuleSet(&rule.HostRuleSet{}); err == nil {
		t.Error("rule set without host accepted")
	}
}

func TestMemoryRuleStorage_Hosts(t *testing.T) {
	s := NewMemoryRuleStorage()
	if err := s.AddCrawlerRule(storageRule("a", "https://a.example/x", "/x")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}
	if err := s.AddCrawlerRule(storageRule("b", "https://b.example/x", "/x")); err != nil {
		t.Fatalf("AddCrawlerRule failed: %v", err)
	}

	hosts := s.Hosts()
	sort.Strings(hosts)
	if len(hosts) != 2 || hosts[0] != "a.example" || hosts[1] != "b.example" {
		t.Errorf("hosts = %v", hosts)
	}

	if err := s.Commit(); err != nil {
		t.Errorf("Commit on memory store = %v, want nil", err)
	}
}
