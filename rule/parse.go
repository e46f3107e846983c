package rule

import (
	json "github.com/goccy/go-json"
)

// ParseRule is the atomic named extraction unit: a chain of steps plus
// optional child rules. When ChildRules is non-empty the rule's own chain
// result is not part of the output; it only feeds the children. With
// IterParseChild set, the chain result must be a list and the children run
// once per element.
type ParseRule struct {
	Name           string       `json:"name"`
	ChainRules     []ChainStep  `json:"chain_rules"`
	ChildRules     []*ParseRule `json:"child_rules,omitempty"`
	IterParseChild bool         `json:"iter_parse_child,omitempty"`
}

// parseRuleWire also accepts the historical rules_chain key. chain_rules is
// the canonical name and the only one ever emitted.
type parseRuleWire struct {
	Name           string       `json:"name"`
	ChainRules     []ChainStep  `json:"chain_rules"`
	LegacyChain    []ChainStep  `json:"rules_chain"`
	ChildRules     []*ParseRule `json:"child_rules"`
	IterParseChild bool         `json:"iter_parse_child"`
}

// UnmarshalJSON decodes a parse rule object, accepting the legacy
// rules_chain key as an alias for chain_rules.
func (r *ParseRule) UnmarshalJSON(data []byte) error {
	var w parseRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Name = w.Name
	r.ChainRules = w.ChainRules
	if r.ChainRules == nil {
		r.ChainRules = w.LegacyChain
	}
	r.ChildRules = w.ChildRules
	r.IterParseChild = w.IterParseChild
	return nil
}

// Validate checks the rule tree: non-empty names, well-formed steps, unique
// sibling names and bounded depth. It normalizes a nil chain to an empty
// one so marshalling stays canonical.
func (r *ParseRule) Validate() error {
	return r.validate(0)
}

func (r *ParseRule) validate(depth int) error {
	if depth > maxRuleDepth {
		return malformed("parse rule nesting deeper than %d", maxRuleDepth)
	}
	if r.Name == "" {
		return malformed("parse rule missing name")
	}
	if r.ChainRules == nil {
		r.ChainRules = []ChainStep{}
	}
	for i := range r.ChainRules {
		step := &r.ChainRules[i]
		if step.Parser == "" {
			return malformed("parse rule %q: step %d has no parser name", r.Name, i)
		}
		if step.Value == nil {
			step.Value = ""
		}
	}
	seen := make(map[string]bool, len(r.ChildRules))
	for _, child := range r.ChildRules {
		if child == nil {
			return malformed("parse rule %q: nil child rule", r.Name)
		}
		if err := child.validate(depth + 1); err != nil {
			return err
		}
		if seen[child.Name] {
			return malformed("parse rule %q: duplicate child rule name %q", r.Name, child.Name)
		}
		seen[child.Name] = true
	}
	return nil
}

// LoadParseRule decodes and validates a parse rule document.
func LoadParseRule(data []byte) (*ParseRule, error) {
	var r ParseRule
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &MalformedRuleError{Reason: "decode parse rule", Err: err}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Dump marshals the rule with canonical key order.
func (r *ParseRule) Dump() ([]byte, error) {
	return json.Marshal(r)
}
