package engine

import (
	"github.com/use-agent/sift/parser"
	"github.com/use-agent/sift/rule"
)

// EvaluateChain pipes input through the chain: each step's output is the
// next step's input. When the current input is a list and the step's
// capability does not accept lists, the capability runs once per element
// and the outputs are collected in order (the fan-out policy). Any step
// failure aborts the chain with a ParseError carrying the step index; no
// partial result is returned.
func (e *Engine) EvaluateChain(pc *parser.Context, input any, steps []rule.ChainStep) (any, error) {
	if pc == nil {
		pc = parser.NewContext()
	}
	current := input
	for i, step := range steps {
		c, err := e.registry.Resolve(step.Parser)
		if err != nil {
			return nil, &ParseError{Step: i, Parser: step.Parser, Err: err}
		}
		out, err := e.evaluateStep(pc, c, current, step)
		if err != nil {
			return nil, &ParseError{Step: i, Parser: step.Parser, Err: err}
		}
		e.logger.Debug("chain step evaluated",
			"step", i, "parser", step.Parser, "param", step.Param)
		current = out
	}
	return current, nil
}

func (e *Engine) evaluateStep(pc *parser.Context, c parser.Capability, input any, step rule.ChainStep) (any, error) {
	if parser.IsList(input) && !c.AcceptsList() {
		items := parser.ToList(input)
		out := make([]any, len(items))
		for i, item := range items {
			v, err := e.invoke(pc, c, item, step)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return e.invoke(pc, c, input, step)
}

func (e *Engine) invoke(pc *parser.Context, c parser.Capability, input any, step rule.ChainStep) (any, error) {
	if cc, ok := c.(parser.ContextCapability); ok {
		return cc.EvaluateInContext(pc, input, step.Param, step.Value)
	}
	return c.Evaluate(input, step.Param, step.Value)
}
