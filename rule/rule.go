// Package rule defines the serializable rule model: chain steps, parse
// rules, crawler rules and host rule sets. Rules load from JSON with
// validation and marshal back with a fixed key order, so a load/dump cycle
// is byte-stable and rule files diff cleanly under version control.
package rule

import (
	"fmt"
	"regexp"
	"sync"
)

// maxRuleDepth bounds child_rules nesting so a hostile rule document cannot
// drive the recursive evaluator arbitrarily deep.
const maxRuleDepth = 32

// MalformedRuleError reports a rule document that fails validation: a
// missing name or host, an invalid regex, a bad chain step shape, duplicate
// sibling names or excessive nesting.
type MalformedRuleError struct {
	Reason string
	Err    error
}

func (e *MalformedRuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("rule: %s", e.Reason)
}

func (e *MalformedRuleError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) *MalformedRuleError {
	return &MalformedRuleError{Reason: fmt.Sprintf(format, args...)}
}

// patterns caches compiled URL regexes across all rules; rule files repeat
// the same handful of patterns and resolution runs per crawled URL.
var patterns = struct {
	mu    sync.RWMutex
	store map[string]*regexp.Regexp
}{store: make(map[string]*regexp.Regexp)}

func compilePattern(expr string) (*regexp.Regexp, error) {
	patterns.mu.RLock()
	re, ok := patterns.store[expr]
	patterns.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.mu.Lock()
	patterns.store[expr] = re
	patterns.mu.Unlock()
	return re, nil
}
