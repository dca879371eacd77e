package convert

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/pdfutil"
)

// TextConverter renders plain text files as Courier paragraphs, splitting on
// blank lines and wrapping long lines at the margin.
type TextConverter struct{}

// NewTextConverter creates the delegate.
func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

// Type implements Converter.
func (c *TextConverter) Type() document.Type {
	return document.TypeTxt
}

// Available implements Converter. Text rendering runs fully in-process.
func (c *TextConverter) Available() error {
	return nil
}

// Convert implements Converter.
func (c *TextConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	data, err := os.ReadFile(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := decodeText(data)
	content = strings.ReplaceAll(content, "\r\n", "\n")

	gen := pdfutil.NewPDFGenerator(req.Filename)
	gen.SetFont("Courier", "", 11)
	for _, paragraph := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		gen.AddParagraph(paragraph, 5)
		gen.AddSpacer(2)
	}
	if err := gen.Err(); err != nil {
		return nil, fmt.Errorf("failed to render text: %w", err)
	}
	if err := gen.SaveToFile(req.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return &Result{OutputPath: req.OutputPath}, nil
}

// decodeText returns the content as UTF-8, reading non-UTF-8 input as
// Latin-1, which maps every byte to a code point.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
