package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// CSSCapability selects HTML nodes with a CSS selector (param) and converts
// each match according to value:
//
//	$text       normalized text content
//	$innerHTML  inner HTML of the node
//	$outerHTML  the node rendered including its own tag
//	$self       the node itself, for further css steps
//	@attr       value of attribute attr, "" when absent
//
// An empty or unrecognized value behaves like $self. The output is always a
// list with one entry per matched node.
type CSSCapability struct {
	selectors *patternCache[cascadia.Selector]
}

// NewCSSCapability returns a css capability with a shared compiled-selector
// cache.
func NewCSSCapability() *CSSCapability {
	return &CSSCapability{selectors: newPatternCache[cascadia.Selector](512)}
}

func (c *CSSCapability) Name() string { return "css" }

// AcceptsList is false: the evaluator applies css once per element of list
// input, so a selector step after another css step drills into each node.
func (c *CSSCapability) AcceptsList() bool { return false }

func (c *CSSCapability) Evaluate(input any, param string, value any) (any, error) {
	op, err := stringValue("css", value)
	if err != nil {
		return nil, err
	}

	root, err := cssSelection(input)
	if err != nil {
		return nil, err
	}

	matcher, err := c.selectors.get(param, cascadia.Compile)
	if err != nil {
		return nil, fmt.Errorf("css: compile selector %q: %w", param, err)
	}

	matches := root.FindMatcher(matcher)
	out := make([]any, 0, matches.Length())
	var opErr error
	matches.Each(func(_ int, s *goquery.Selection) {
		if opErr != nil {
			return
		}
		v, err := cssApply(s, op)
		if err != nil {
			opErr = err
			return
		}
		out = append(out, v)
	})
	if opErr != nil {
		return nil, opErr
	}
	return out, nil
}

// cssApply converts one matched node per the value operation.
func cssApply(s *goquery.Selection, op string) (any, error) {
	switch {
	case op == "$text":
		return s.Text(), nil
	case op == "$innerHTML", op == "$html":
		h, err := s.Html()
		if err != nil {
			return nil, fmt.Errorf("css: render inner html: %w", err)
		}
		return h, nil
	case op == "$outerHTML", op == "$string":
		h, err := goquery.OuterHtml(s)
		if err != nil {
			return nil, fmt.Errorf("css: render outer html: %w", err)
		}
		return h, nil
	case strings.HasPrefix(op, "@"):
		return s.AttrOr(op[1:], ""), nil
	default:
		// "" and "$self" (and anything else) keep the node for later steps.
		return s, nil
	}
}

// cssSelection roots a goquery selection over any supported input shape.
func cssSelection(input any) (*goquery.Selection, error) {
	switch v := input.(type) {
	case *goquery.Document:
		return v.Selection, nil
	case *goquery.Selection:
		return v, nil
	case *html.Node:
		return goquery.NewDocumentFromNode(v).Selection, nil
	case string:
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(v))
		if err != nil {
			return nil, fmt.Errorf("css: parse html: %w", err)
		}
		return doc.Selection, nil
	case []byte:
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(v))
		if err != nil {
			return nil, fmt.Errorf("css: parse html: %w", err)
		}
		return doc.Selection, nil
	}
	return nil, fmt.Errorf("css: unsupported input type %T", input)
}
