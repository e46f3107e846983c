package parser

import (
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// JMESPathCapability evaluates a JMESPath expression (param) against
// structured input and returns the single resulting value. String and
// []byte input is decoded as JSON first. The value is unused.
type JMESPathCapability struct {
	exprs *patternCache[*jmespath.JMESPath]
}

// NewJMESPathCapability returns a jmespath capability with a shared
// compiled-expression cache.
func NewJMESPathCapability() *JMESPathCapability {
	return &JMESPathCapability{exprs: newPatternCache[*jmespath.JMESPath](512)}
}

func (j *JMESPathCapability) Name() string { return "jmespath" }

// AcceptsList is true: jmespath traverses whole collections.
func (j *JMESPathCapability) AcceptsList() bool { return true }

func (j *JMESPathCapability) Evaluate(input any, param string, value any) (any, error) {
	data, err := structuredInput("jmespath", input)
	if err != nil {
		return nil, err
	}

	expr, err := j.exprs.get(param, jmespath.Compile)
	if err != nil {
		return nil, fmt.Errorf("jmespath: parse expression %q: %w", param, err)
	}

	out, err := expr.Search(data)
	if err != nil {
		return nil, fmt.Errorf("jmespath: search: %w", err)
	}
	return out, nil
}
