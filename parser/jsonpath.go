package parser

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/ohler55/ojg/jp"
)

// JSONPathCapability evaluates a JSONPath expression (param) against
// structured input and returns the list of matched values. String and
// []byte input is decoded as JSON first, so a jsonpath step can follow a
// fetch directly. A leading "JSON." in param is normalized to "$.". The
// value must be "" or "$value"; match values are the only supported
// projection.
type JSONPathCapability struct {
	exprs *patternCache[jp.Expr]
}

// NewJSONPathCapability returns a jsonpath capability with a shared
// compiled-expression cache.
func NewJSONPathCapability() *JSONPathCapability {
	return &JSONPathCapability{exprs: newPatternCache[jp.Expr](512)}
}

func (j *JSONPathCapability) Name() string { return "jsonpath" }

// AcceptsList is true: jsonpath traverses whole collections.
func (j *JSONPathCapability) AcceptsList() bool { return true }

func (j *JSONPathCapability) Evaluate(input any, param string, value any) (any, error) {
	op, err := stringValue("jsonpath", value)
	if err != nil {
		return nil, err
	}
	if op != "" && op != "$value" {
		return nil, fmt.Errorf(`jsonpath: unsupported value %q: expected "" or "$value"`, op)
	}

	data, err := structuredInput("jsonpath", input)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(param, "JSON.") {
		param = "$" + param[len("JSON"):]
	}
	expr, err := j.exprs.get(param, jp.ParseString)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: parse path %q: %w", param, err)
	}

	return expr.Get(data), nil
}

// structuredInput decodes textual input as JSON; structured input passes
// through untouched.
func structuredInput(name string, input any) (any, error) {
	var raw []byte
	switch v := input.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return input, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%s: decode json input: %w", name, err)
	}
	return data, nil
}
