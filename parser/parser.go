// Package parser defines the capability behind every chain step and the
// registry that resolves parser names to implementations.
//
// A capability is a named transformation: Evaluate takes the current input,
// a param string (selector, pattern, expression, ...) and an auxiliary
// value, and returns the transformed output. Capabilities that operate on
// whole collections (jsonpath, objectpath, jmespath, udf, python) report
// AcceptsList() == true and receive list input as-is; for all others the
// chain evaluator maps Evaluate over each element of a list input and
// collects the outputs in order.
package parser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Capability is one named transformation usable as a chain step.
type Capability interface {
	// Name is the unique parser name referenced by chain steps.
	Name() string

	// AcceptsList reports whether Evaluate consumes list input natively.
	// When false, the chain evaluator fans out over list elements and
	// calls Evaluate once per element.
	AcceptsList() bool

	// Evaluate transforms input using param and value. Implementations
	// must not mutate input.
	Evaluate(input any, param string, value any) (any, error)
}

// ContextCapability is implemented by capabilities that read or write the
// per-evaluation Context. The chain evaluator prefers EvaluateInContext
// whenever a Context is in scope.
type ContextCapability interface {
	Capability
	EvaluateInContext(pc *Context, input any, param string, value any) (any, error)
}

// IsList reports whether v is an ordered sequence for fan-out purposes.
// Strings and byte slices are scalars here even though Go models them as
// slices.
func IsList(v any) bool {
	switch v.(type) {
	case nil, string, []byte:
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// ToList normalizes any list-like value to []any. The caller must have
// checked IsList first.
func ToList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// inputText coerces a textual input to string. Capabilities that operate on
// raw text (re, loader, time encode) accept string and []byte only; every
// other type is a caller error surfaced per step.
func inputText(name string, input any) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("%s: expected string input, got %T", name, input)
}

// stringValue coerces a step value to string. Most capabilities only accept
// string values; udf and loader take arbitrary JSON values instead.
func stringValue(name string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("%s: expected string value, got %T", name, value)
}

// toFloat converts numeric inputs (or numeric strings) to float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
