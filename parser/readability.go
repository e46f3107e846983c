package parser

import (
	"fmt"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ReadabilityCapability extracts the main article from an HTML page. The
// param is the page URL, used to resolve relative links; it may be empty.
// The value selects the projection:
//
//	$html     clean article HTML (default)
//	$text     plain text content
//	$title    article title
//	$excerpt  short excerpt
//	$meta     map with title, byline, excerpt, site_name and length
type ReadabilityCapability struct{}

// NewReadabilityCapability returns the readability capability.
func NewReadabilityCapability() *ReadabilityCapability {
	return &ReadabilityCapability{}
}

func (r *ReadabilityCapability) Name() string { return "readability" }

func (r *ReadabilityCapability) AcceptsList() bool { return false }

func (r *ReadabilityCapability) Evaluate(input any, param string, value any) (any, error) {
	op, err := stringValue("readability", value)
	if err != nil {
		return nil, err
	}

	s, err := inputText("readability", input)
	if err != nil {
		return nil, err
	}

	pageURL, err := nurl.Parse(param)
	if err != nil {
		return nil, fmt.Errorf("readability: parse source url %q: %w", param, err)
	}

	article, err := readability.FromReader(strings.NewReader(s), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: extract: %w", err)
	}

	switch op {
	case "", "$html":
		return article.Content, nil
	case "$text":
		return article.TextContent, nil
	case "$title":
		return article.Title, nil
	case "$excerpt":
		return article.Excerpt, nil
	case "$meta":
		return map[string]any{
			"title":     article.Title,
			"byline":    article.Byline,
			"excerpt":   article.Excerpt,
			"site_name": article.SiteName,
			"length":    article.Length,
		}, nil
	}
	return nil, fmt.Errorf("readability: unknown value %q", op)
}
