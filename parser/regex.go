package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RegexCapability applies an RE2 pattern (param) to string input. The value
// selects the operation:
//
//	""     find all matches; with one capture group the group is returned
//	       per match, with several a list of groups per match
//	@repl  replace every match with repl (\1..\9 backreferences supported)
//	$N     capture group N of every match
//	-      split the input around matches
//
// Patterns are RE2: no backtracking, no lookaround. Input must be a string
// or byte slice; lists fan out one evaluation per element.
type RegexCapability struct {
	patterns *patternCache[*regexp.Regexp]
}

// NewRegexCapability returns a re capability with a shared compiled-pattern
// cache.
func NewRegexCapability() *RegexCapability {
	return &RegexCapability{patterns: newPatternCache[*regexp.Regexp](512)}
}

func (r *RegexCapability) Name() string { return "re" }

func (r *RegexCapability) AcceptsList() bool { return false }

var regexValueShape = regexp.MustCompile(`^(@|\$\d+$|-$)`)

func (r *RegexCapability) Evaluate(input any, param string, value any) (any, error) {
	s, err := inputText("re", input)
	if err != nil {
		return nil, err
	}
	op, err := stringValue("re", value)
	if err != nil {
		return nil, err
	}
	if op != "" && !regexValueShape.MatchString(op) {
		return nil, fmt.Errorf(`re: invalid value %q: expected "", "-", "$N" or "@replacement"`, op)
	}

	re, err := r.patterns.get(param, regexp.Compile)
	if err != nil {
		return nil, fmt.Errorf("re: compile pattern %q: %w", param, err)
	}

	switch {
	case op == "":
		return regexFindAll(re, s), nil
	case op == "-":
		parts := re.Split(s, -1)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	case strings.HasPrefix(op, "@"):
		return re.ReplaceAllString(s, regexReplacement(op[1:])), nil
	default: // $N
		group, _ := strconv.Atoi(op[1:])
		if group > re.NumSubexp() {
			return nil, fmt.Errorf("re: pattern %q has no group %d", param, group)
		}
		matches := re.FindAllStringSubmatch(s, -1)
		out := make([]any, 0, len(matches))
		for _, m := range matches {
			out = append(out, m[group])
		}
		return out, nil
	}
}

// regexFindAll mirrors findall semantics: whole matches without groups, the
// group itself with exactly one, a list of groups with several.
func regexFindAll(re *regexp.Regexp, s string) []any {
	groups := re.NumSubexp()
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]any, 0, len(matches))
	for _, m := range matches {
		switch groups {
		case 0:
			out = append(out, m[0])
		case 1:
			out = append(out, m[1])
		default:
			gs := make([]any, groups)
			for i := 1; i <= groups; i++ {
				gs[i-1] = m[i]
			}
			out = append(out, gs)
		}
	}
	return out
}

// regexReplacement rewrites \1..\9 backreferences to Go's ${N} form and
// escapes literal dollars so user templates behave the same either way.
func regexReplacement(repl string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9':
			b.WriteString("${")
			b.WriteByte(repl[i+1])
			b.WriteByte('}')
			i++
		case c == '$':
			b.WriteString("$$")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
