package crawler

import (
	"fmt"
	"sync"

	"github.com/use-agent/sift/fetch"
	"github.com/use-agent/sift/rule"
)

// RuleStorage holds crawler rules grouped by host and resolves URLs to
// the first rule whose pattern matches.
type RuleStorage interface {
	// FindCrawlerRule resolves url to a stored rule. Misses return
	// ErrNoRuleMatched.
	FindCrawlerRule(url string) (*rule.CrawlerRule, error)
	// AddCrawlerRule stores r under the host of its request URL,
	// replacing any same-named rule.
	AddCrawlerRule(r *rule.CrawlerRule) error
	// PopCrawlerRule removes the named rule from host and returns it,
	// or nil when absent.
	PopCrawlerRule(host, name string) (*rule.CrawlerRule, error)
	// AddHostRuleSet stores a whole rule set, replacing the host's
	// previous one.
	AddHostRuleSet(hs *rule.HostRuleSet) error
	// PopHostRuleSet removes and returns the host's rule set, or nil
	// when absent.
	PopHostRuleSet(host string) (*rule.HostRuleSet, error)
	// Hosts lists stored hosts in unspecified order.
	Hosts() []string
	// Commit persists pending changes. In-memory stores treat it as a
	// no-op.
	Commit() error
}

// MemoryRuleStorage keeps rule sets in a map. Safe for concurrent use.
type MemoryRuleStorage struct {
	mu    sync.RWMutex
	hosts map[string]*rule.HostRuleSet
}

// NewMemoryRuleStorage returns an empty in-memory store.
func NewMemoryRuleStorage() *MemoryRuleStorage {
	return &MemoryRuleStorage{hosts: make(map[string]*rule.HostRuleSet)}
}

func (s *MemoryRuleStorage) FindCrawlerRule(url string) (*rule.CrawlerRule, error) {
	host := fetch.HostOf(url)
	if host == "" {
		return nil, fmt.Errorf("crawler: no host in url %q", url)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	hs, ok := s.hosts[host]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRuleMatched, url)
	}
	cr := hs.Search(url)
	if cr == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRuleMatched, url)
	}
	return cr, nil
}

func (s *MemoryRuleStorage) AddCrawlerRule(r *rule.CrawlerRule) error {
	if r == nil {
		return fmt.Errorf("crawler: nil crawler rule")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	host := fetch.HostOf(r.RequestArgs.URL)
	if host == "" {
		return fmt.Errorf("crawler: rule %q: no host in url %q", r.Name, r.RequestArgs.URL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.hosts[host]
	if !ok {
		hs = rule.NewHostRuleSet(host)
		s.hosts[host] = hs
	}
	return hs.Add(r)
}

func (s *MemoryRuleStorage) PopCrawlerRule(host, name string) (*rule.CrawlerRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.hosts[host]
	if !ok {
		return nil, nil
	}
	cr, _ := hs.Pop(name)
	if hs.Len() == 0 {
		delete(s.hosts, host)
	}
	return cr, nil
}

func (s *MemoryRuleStorage) AddHostRuleSet(hs *rule.HostRuleSet) error {
	if hs == nil {
		return fmt.Errorf("crawler: nil host rule set")
	}
	if err := hs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[hs.Host] = hs
	return nil
}

func (s *MemoryRuleStorage) PopHostRuleSet(host string) (*rule.HostRuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.hosts[host]
	if !ok {
		return nil, nil
	}
	delete(s.hosts, host)
	return hs, nil
}

func (s *MemoryRuleStorage) Hosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hosts := make([]string, 0, len(s.hosts))
	for h := range s.hosts {
		hosts = append(hosts, h)
	}
	return hosts
}

// Commit is a no-op for the in-memory store.
func (s *MemoryRuleStorage) Commit() error {
	return nil
}

// snapshot copies the host map for serialization.
func (s *MemoryRuleStorage) snapshot() map[string]*rule.HostRuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hosts := make(map[string]*rule.HostRuleSet, len(s.hosts))
	for h, hs := range s.hosts {
		hosts[h] = hs
	}
	return hosts
}

// replace swaps in a freshly loaded host map.
func (s *MemoryRuleStorage) replace(hosts map[string]*rule.HostRuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts = hosts
}
