package parser

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownCapability converts HTML input to Markdown. The param is the page
// domain, used to resolve relative links into absolute URLs; it may be
// empty. The value is unused. The converter strips script/style/head noise
// via the base plugin, renders CommonMark, and keeps table structure.
type MarkdownCapability struct {
	conv *converter.Converter
}

// NewMarkdownCapability returns a markdown capability with a shared,
// goroutine-safe converter.
func NewMarkdownCapability() *MarkdownCapability {
	return &MarkdownCapability{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

func (m *MarkdownCapability) Name() string { return "markdown" }

func (m *MarkdownCapability) AcceptsList() bool { return false }

func (m *MarkdownCapability) Evaluate(input any, param string, value any) (any, error) {
	s, err := inputText("markdown", input)
	if err != nil {
		return nil, err
	}
	md, err := m.conv.ConvertString(s, converter.WithDomain(param))
	if err != nil {
		return nil, fmt.Errorf("markdown: convert: %w", err)
	}
	return md, nil
}
