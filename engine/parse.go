package engine

import (
	"fmt"

	"github.com/use-agent/sift/config"
	"github.com/use-agent/sift/parser"
	"github.com/use-agent/sift/rule"
)

// EvaluateParseRule runs one parse rule against input. Without children the
// result is the chain result itself. With children, the chain result only
// feeds them: the result becomes {child name: child result}, or a list of
// such mappings per chain result element when IterParseChild is set. Child
// failures abort the whole rule; per-rule isolation happens one level up in
// Parse.
func (e *Engine) EvaluateParseRule(pc *parser.Context, input any, r *rule.ParseRule) (any, error) {
	if pc == nil {
		pc = parser.NewContext()
	}
	chainResult, err := e.EvaluateChain(pc, input, r.ChainRules)
	if err != nil {
		return nil, err
	}
	if len(r.ChildRules) == 0 {
		return chainResult, nil
	}

	if !r.IterParseChild {
		return e.evaluateChildren(pc, chainResult, r.ChildRules)
	}

	if !parser.IsList(chainResult) {
		return nil, fmt.Errorf("engine: rule %q: iter_parse_child needs a list chain result, got %T", r.Name, chainResult)
	}
	items := parser.ToList(chainResult)
	out := make([]any, len(items))
	for i, item := range items {
		m, err := e.evaluateChildren(pc, item, r.ChildRules)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (e *Engine) evaluateChildren(pc *parser.Context, input any, children []*rule.ParseRule) (map[string]any, error) {
	m := make(map[string]any, len(children))
	for _, child := range children {
		v, err := e.EvaluateParseRule(pc, input, child)
		if err != nil {
			return nil, err
		}
		m[child.Name] = v
	}
	return m, nil
}

// Parse evaluates every parse rule of cr against input, in declared order,
// and returns {cr.Name: {parse rule name: result}}. The running inner map
// is stored in the context under parser.KeyParseResult before each rule
// runs, so later udf steps can read earlier rules' results. By default a
// failed rule contributes an error marker and evaluation continues; in
// strict mode the first failure aborts the whole call.
func (e *Engine) Parse(pc *parser.Context, input any, cr *rule.CrawlerRule) (map[string]any, error) {
	if pc == nil {
		pc = parser.NewContext()
	}
	inner := make(map[string]any, len(cr.ParseRules))
	pc.Set(parser.KeyParseResult, inner)

	for _, pr := range cr.ParseRules {
		v, err := e.EvaluateParseRule(pc, input, pr)
		if err != nil {
			if e.strict {
				return nil, fmt.Errorf("engine: rule %q: %w", pr.Name, err)
			}
			e.logger.Warn("parse rule failed",
				"crawler_rule", cr.Name, "parse_rule", pr.Name, "error", err)
			inner[pr.Name] = map[string]any{config.ErrorKey: err.Error()}
			continue
		}
		inner[pr.Name] = v
	}
	return map[string]any{cr.Name: inner}, nil
}
