package pdfutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo contains basic information about a PDF.
type PDFInfo struct {
	PageCount int
	Size      int64
}

// Verify checks that data is a structurally sound PDF: the %PDF header, a
// minimum plausible size, a parseable cross-reference table, and at least one
// page. It returns the parsed info on success.
func Verify(data []byte) (*PDFInfo, error) {
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return nil, fmt.Errorf("missing %%PDF header")
	}
	if len(data) < 100 {
		return nil, fmt.Errorf("file too small to be a usable PDF (%d bytes)", len(data))
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("unreadable PDF structure: %w", err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	return &PDFInfo{PageCount: ctx.PageCount, Size: int64(len(data))}, nil
}

// ExtractText returns the plain text of every page, concatenated in order.
// Used by conversion tests to check that source text survived the trip.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
