package rule

import (
	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// HostRuleSet is the ordered collection of crawler rules for one host.
// Rules keep their insertion order, which decides resolution priority:
// Search returns the first rule whose regex matches. Adding a rule under an
// existing name replaces it in place (last write wins).
type HostRuleSet struct {
	Host  string
	Rules *orderedmap.OrderedMap[string, *CrawlerRule]
}

// NewHostRuleSet returns an empty rule set for host.
func NewHostRuleSet(host string) *HostRuleSet {
	return &HostRuleSet{
		Host:  host,
		Rules: orderedmap.New[string, *CrawlerRule](),
	}
}

// Add validates r and inserts it under its name, replacing any rule already
// stored there.
func (h *HostRuleSet) Add(r *CrawlerRule) error {
	if r == nil {
		return malformed("host %q: nil crawler rule", h.Host)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if h.Rules == nil {
		h.Rules = orderedmap.New[string, *CrawlerRule]()
	}
	h.Rules.Set(r.Name, r)
	return nil
}

// Get returns the rule stored under name.
func (h *HostRuleSet) Get(name string) (*CrawlerRule, bool) {
	if h.Rules == nil {
		return nil, false
	}
	return h.Rules.Get(name)
}

// Pop removes and returns the rule stored under name.
func (h *HostRuleSet) Pop(name string) (*CrawlerRule, bool) {
	if h.Rules == nil {
		return nil, false
	}
	r, ok := h.Rules.Get(name)
	if !ok {
		return nil, false
	}
	h.Rules.Delete(name)
	return r, true
}

// Len returns the number of stored rules.
func (h *HostRuleSet) Len() int {
	if h.Rules == nil {
		return 0
	}
	return h.Rules.Len()
}

// Names returns the rule names in insertion order.
func (h *HostRuleSet) Names() []string {
	if h.Rules == nil {
		return nil
	}
	names := make([]string, 0, h.Rules.Len())
	for pair := h.Rules.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Search returns the first rule, in insertion order, whose regex matches
// url, or nil when none does. A miss is an expected outcome, not an error.
func (h *HostRuleSet) Search(url string) *CrawlerRule {
	if h.Rules == nil {
		return nil
	}
	for pair := h.Rules.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.MatchURL(url) {
			return pair.Value
		}
	}
	return nil
}

// Match is an alias of Search kept for callers of earlier releases; both
// apply the rule regex unanchored.
func (h *HostRuleSet) Match(url string) *CrawlerRule {
	return h.Search(url)
}

// hostRuleSetWire is the JSON shape: {"host": ..., "crawler_rules": {...}}.
type hostRuleSetWire struct {
	Host  string                                       `json:"host"`
	Rules *orderedmap.OrderedMap[string, *CrawlerRule] `json:"crawler_rules"`
}

// MarshalJSON emits the rule set with crawler_rules in insertion order.
func (h *HostRuleSet) MarshalJSON() ([]byte, error) {
	rules := h.Rules
	if rules == nil {
		rules = orderedmap.New[string, *CrawlerRule]()
	}
	return json.Marshal(hostRuleSetWire{Host: h.Host, Rules: rules})
}

// UnmarshalJSON decodes the rule set, preserving document order.
func (h *HostRuleSet) UnmarshalJSON(data []byte) error {
	w := hostRuleSetWire{Rules: orderedmap.New[string, *CrawlerRule]()}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	h.Host = w.Host
	h.Rules = w.Rules
	return nil
}

// Validate checks the host name and every stored rule.
func (h *HostRuleSet) Validate() error {
	if h.Host == "" {
		return malformed("host rule set missing host")
	}
	if h.Rules == nil {
		h.Rules = orderedmap.New[string, *CrawlerRule]()
		return nil
	}
	for pair := h.Rules.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			return malformed("host %q: nil crawler rule %q", h.Host, pair.Key)
		}
		if err := pair.Value.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadHostRuleSet decodes and validates a host rule set document.
func LoadHostRuleSet(data []byte) (*HostRuleSet, error) {
	var h HostRuleSet
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, &MalformedRuleError{Reason: "decode host rule set", Err: err}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// Dump marshals the rule set with canonical key order.
func (h *HostRuleSet) Dump() ([]byte, error) {
	return json.Marshal(h)
}
