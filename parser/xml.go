package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// XMLCapability selects XML nodes with an XPath expression (param) and
// converts each match according to value:
//
//	$text      concatenated text content
//	$innerXML  serialized children, excluding the node's own tag
//	$outerXML  the node serialized including its own tag
//	$self      the node itself, for further xml steps
//	@attr      value of attribute attr, "" when absent
//
// An empty or unrecognized value behaves like $self. The output is always a
// list with one entry per matched node.
type XMLCapability struct{}

// NewXMLCapability returns the xml capability.
func NewXMLCapability() *XMLCapability {
	return &XMLCapability{}
}

func (x *XMLCapability) Name() string { return "xml" }

// AcceptsList is false: list input fans out one xml evaluation per element.
func (x *XMLCapability) AcceptsList() bool { return false }

func (x *XMLCapability) Evaluate(input any, param string, value any) (any, error) {
	op, err := stringValue("xml", value)
	if err != nil {
		return nil, err
	}

	root, err := xmlNode(input)
	if err != nil {
		return nil, err
	}

	nodes, err := xmlquery.QueryAll(root, param)
	if err != nil {
		return nil, fmt.Errorf("xml: query %q: %w", param, err)
	}

	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, xmlApply(n, op))
	}
	return out, nil
}

func xmlApply(n *xmlquery.Node, op string) any {
	switch {
	case op == "$text":
		return n.InnerText()
	case op == "$innerXML":
		return n.OutputXML(false)
	case op == "$outerXML", op == "$string":
		return n.OutputXML(true)
	case strings.HasPrefix(op, "@"):
		return n.SelectAttr(op[1:])
	default:
		return n
	}
}

func xmlNode(input any) (*xmlquery.Node, error) {
	switch v := input.(type) {
	case *xmlquery.Node:
		return v, nil
	case string:
		doc, err := xmlquery.Parse(strings.NewReader(v))
		if err != nil {
			return nil, fmt.Errorf("xml: parse document: %w", err)
		}
		return doc, nil
	case []byte:
		doc, err := xmlquery.Parse(bytes.NewReader(v))
		if err != nil {
			return nil, fmt.Errorf("xml: parse document: %w", err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("xml: unsupported input type %T", input)
}
