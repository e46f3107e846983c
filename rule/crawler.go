package rule

import (
	json "github.com/goccy/go-json"

	"github.com/use-agent/sift/fetch"
)

// CrawlerRule bundles everything one kind of page needs: the request
// arguments to fetch it, the parse rules to run over the response, a regex
// deciding which URLs the rule covers, and an optional response encoding
// override.
type CrawlerRule struct {
	Name        string                 `json:"name"`
	RequestArgs fetch.RequestArguments `json:"request_args"`
	ParseRules  []*ParseRule           `json:"parse_rules"`
	Regex       string                 `json:"regex"`
	Encoding    string                 `json:"encoding,omitempty"`
}

// Validate checks the rule: non-empty name, compiling regex, unique parse
// rule names, valid parse rule trees.
func (r *CrawlerRule) Validate() error {
	if r.Name == "" {
		return malformed("crawler rule missing name")
	}
	if r.Regex != "" {
		if _, err := compilePattern(r.Regex); err != nil {
			return &MalformedRuleError{
				Reason: "crawler rule " + r.Name + ": invalid regex " + r.Regex,
				Err:    err,
			}
		}
	}
	if r.ParseRules == nil {
		r.ParseRules = []*ParseRule{}
	}
	seen := make(map[string]bool, len(r.ParseRules))
	for _, pr := range r.ParseRules {
		if pr == nil {
			return malformed("crawler rule %q: nil parse rule", r.Name)
		}
		if err := pr.Validate(); err != nil {
			return err
		}
		if seen[pr.Name] {
			return malformed("crawler rule %q: duplicate parse rule name %q", r.Name, pr.Name)
		}
		seen[pr.Name] = true
	}
	return nil
}

// MatchURL reports whether url matches the rule's regex. Rules with an
// empty regex match nothing. The pattern applies unanchored; rule authors
// anchor with ^...$ themselves.
func (r *CrawlerRule) MatchURL(url string) bool {
	if r.Regex == "" {
		return false
	}
	re, err := compilePattern(r.Regex)
	if err != nil {
		return false
	}
	return re.MatchString(url)
}

// LoadCrawlerRule decodes and validates a crawler rule document.
func LoadCrawlerRule(data []byte) (*CrawlerRule, error) {
	var r CrawlerRule
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &MalformedRuleError{Reason: "decode crawler rule", Err: err}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Dump marshals the rule with canonical key order.
func (r *CrawlerRule) Dump() ([]byte, error) {
	return json.Marshal(r)
}
