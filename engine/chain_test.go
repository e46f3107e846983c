package engine

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/use-agent/sift/parser"
	"github.com/use-agent/sift/rule"
)

func quietEngine(opts ...Option) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestEvaluateChain_TitleExtraction(t *testing.T) {
	e := quietEngine()
	steps := []rule.ChainStep{
		{Parser: "css", Param: "title,h1", Value: "$text"},
		{Parser: "python", Param: "index", Value: "0"},
	}
	got, err := e.EvaluateChain(nil, "<html><title>T</title></html>", steps)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	if got != "T" {
		t.Errorf("chain = %v, want T", got)
	}
}

func TestEvaluateChain_FindAll(t *testing.T) {
	e := quietEngine()
	steps := []rule.ChainStep{{Parser: "re", Param: "a", Value: ""}}
	got, err := e.EvaluateChain(nil, "a a b b c c", steps)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	if want := []any{"a", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("chain = %v, want %v", got, want)
	}
}

func TestEvaluateChain_ListFanOut(t *testing.T) {
	e := quietEngine()
	page := `<div><span>d1</span></div><div><span>d2</span></div>`
	steps := []rule.ChainStep{
		{Parser: "css", Param: "div", Value: "$self"},
		{Parser: "css", Param: "span", Value: "$text"},
	}
	got, err := e.EvaluateChain(nil, page, steps)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	// The second css step runs once per div; the per-element outputs keep
	// their nesting instead of being flattened together.
	want := []any{[]any{"d1"}, []any{"d2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fan-out = %v, want %v", got, want)
	}
}

func TestEvaluateChain_ListConsumersGetWholeList(t *testing.T) {
	e := quietEngine()
	steps := []rule.ChainStep{
		{Parser: "re", Param: `\w+`, Value: ""},
		{Parser: "python", Param: "join", Value: "-"},
	}
	got, err := e.EvaluateChain(nil, "x y z", steps)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	if got != "x-y-z" {
		t.Errorf("chain = %v, want x-y-z", got)
	}
}

func TestEvaluateChain_EmptyChain(t *testing.T) {
	e := quietEngine()
	got, err := e.EvaluateChain(nil, "unchanged", nil)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	if got != "unchanged" {
		t.Errorf("empty chain = %v, want input back", got)
	}
}

func TestEvaluateChain_UnknownParser(t *testing.T) {
	e := quietEngine()
	steps := []rule.ChainStep{
		{Parser: "css", Param: "a", Value: "$text"},
		{Parser: "bogus", Param: "", Value: ""},
	}
	_, err := e.EvaluateChain(nil, "<html></html>", steps)
	if err == nil {
		t.Fatal("expected unknown parser error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if pe.Step != 1 || pe.Parser != "bogus" {
		t.Errorf("ParseError = step %d parser %q, want step 1 parser bogus", pe.Step, pe.Parser)
	}
	var unknown *parser.UnknownParserError
	if !errors.As(err, &unknown) {
		t.Errorf("cause is %T, want *parser.UnknownParserError", pe.Err)
	}
}

func TestEvaluateChain_StepFailureAborts(t *testing.T) {
	e := quietEngine()
	steps := []rule.ChainStep{
		{Parser: "re", Param: `\w+`, Value: ""},
		{Parser: "re", Param: "(", Value: ""},
		{Parser: "python", Param: "join", Value: ","},
	}
	_, err := e.EvaluateChain(nil, "x y", steps)
	if err == nil {
		t.Fatal("expected step failure")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if pe.Step != 1 {
		t.Errorf("failed step = %d, want 1", pe.Step)
	}
}

func TestEvaluateChain_ContextFlowsToUDF(t *testing.T) {
	e := quietEngine()
	pc := parser.NewContext()
	pc.Set("greeting", "hi")

	steps := []rule.ChainStep{{Parser: "udf", Param: `context.Get("greeting")`, Value: ""}}
	got, err := e.EvaluateChain(pc, nil, steps)
	if err != nil {
		t.Fatalf("EvaluateChain failed: %v", err)
	}
	if got != "hi" {
		t.Errorf("context value = %v, want hi", got)
	}
}
