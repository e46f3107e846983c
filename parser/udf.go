package parser

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	json "github.com/goccy/go-json"
)

// UDFCapability runs a user-defined expr expression (param) against the
// current input. The environment exposes three names:
//
//	input    the current chain value
//	value    the step's auxiliary value; JSON strings are decoded first
//	context  the per-evaluation Context (Get/Set/Lookup methods)
//
// Expressions run in the expr virtual machine: they can transform input,
// value and context but cannot import packages, call the filesystem or
// reach the network. Compiled programs are cached by source text.
type UDFCapability struct {
	programs *patternCache[*vm.Program]
}

// NewUDFCapability returns a udf capability with a shared compiled-program
// cache.
func NewUDFCapability() *UDFCapability {
	return &UDFCapability{programs: newPatternCache[*vm.Program](256)}
}

func (u *UDFCapability) Name() string { return "udf" }

// AcceptsList is true: expressions receive list input whole.
func (u *UDFCapability) AcceptsList() bool { return true }

func (u *UDFCapability) Evaluate(input any, param string, value any) (any, error) {
	return u.EvaluateInContext(NewContext(), input, param, value)
}

// EvaluateInContext runs the expression with the supplied Context bound to
// the "context" name, so steps can share state across rules of one
// evaluation.
func (u *UDFCapability) EvaluateInContext(pc *Context, input any, param string, value any) (any, error) {
	prog, err := u.programs.get(param, compileExpr)
	if err != nil {
		return nil, fmt.Errorf("udf: compile expression: %w", err)
	}

	if pc == nil {
		pc = NewContext()
	}
	env := map[string]any{
		"input":   input,
		"value":   decodeAux(value),
		"context": pc,
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("udf: run expression: %w", err)
	}
	return out, nil
}

func compileExpr(src string) (*vm.Program, error) {
	return expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
}

// decodeAux decodes a JSON-looking string value so expressions receive
// structured data; anything else passes through unchanged.
func decodeAux(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}
