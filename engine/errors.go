package engine

import "fmt"

// ParseError reports a failed chain step: the zero-based step index, the
// parser name and the underlying cause. Unknown parser names surface here
// too, with a parser.UnknownParserError as the cause.
type ParseError struct {
	Step   int
	Parser string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("engine: step %d (%s): %v", e.Step, e.Parser, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
