package parser

import (
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"
)

// ObjectPathCapability evaluates a path or expression (param) against
// structured input and returns the single resulting value, list results
// included. String and []byte input is decoded as JSON first. Leading "$."
// and "JSON." prefixes are stripped, so "$.store.bicycle.color" addresses
// the same value as "store.bicycle.color". Beyond plain paths the full gval
// expression language is available (arithmetic, comparisons, indexing).
type ObjectPathCapability struct{}

// NewObjectPathCapability returns the objectpath capability.
func NewObjectPathCapability() *ObjectPathCapability {
	return &ObjectPathCapability{}
}

func (o *ObjectPathCapability) Name() string { return "objectpath" }

// AcceptsList is true: objectpath traverses whole collections.
func (o *ObjectPathCapability) AcceptsList() bool { return true }

func (o *ObjectPathCapability) Evaluate(input any, param string, value any) (any, error) {
	data, err := structuredInput("objectpath", input)
	if err != nil {
		return nil, err
	}

	expr := param
	if strings.HasPrefix(expr, "JSON.") {
		expr = expr[len("JSON."):]
	} else if strings.HasPrefix(expr, "$.") {
		expr = expr[len("$."):]
	}

	out, err := gval.Evaluate(expr, data)
	if err != nil {
		return nil, fmt.Errorf("objectpath: evaluate %q: %w", param, err)
	}
	return out, nil
}
