package rule

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// ChainStep is one (parser, param, value) transformation in a parse rule's
// chain. Param and Value are interpreted by the named parser; Value is a
// string for every built-in except udf and loader, which accept arbitrary
// JSON values.
type ChainStep struct {
	Parser string
	Param  string
	Value  any
}

// NewChainStep returns a step with an empty value.
func NewChainStep(parser, param string) ChainStep {
	return ChainStep{Parser: parser, Param: param, Value: ""}
}

// MarshalJSON emits the wire form [parser, param, value].
func (s ChainStep) MarshalJSON() ([]byte, error) {
	value := s.Value
	if value == nil {
		value = ""
	}
	return json.Marshal([]any{s.Parser, s.Param, value})
}

// UnmarshalJSON accepts [parser, param] or [parser, param, value].
func (s *ChainStep) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("rule: chain step must be an array: %w", err)
	}
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("rule: chain step must have 2 or 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Parser); err != nil {
		return fmt.Errorf("rule: chain step parser must be a string: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Param); err != nil {
		return fmt.Errorf("rule: chain step param must be a string: %w", err)
	}
	s.Value = ""
	if len(parts) == 3 {
		if err := json.Unmarshal(parts[2], &s.Value); err != nil {
			return fmt.Errorf("rule: chain step value: %w", err)
		}
		if s.Value == nil {
			s.Value = ""
		}
	}
	return nil
}
