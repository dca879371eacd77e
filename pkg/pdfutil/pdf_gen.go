package pdfutil

import (
	"bytes"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator builds flowing text documents on A4 pages. It wraps gofpdf
// with the small primitive set the text and slide renderers need: headings,
// wrapped paragraphs, spacers and page breaks.
type PDFGenerator struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// NewPDFGenerator creates a generator with an open first page.
func NewPDFGenerator(title string) *PDFGenerator {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("docpress", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	// core fonts are cp1252; translate UTF-8 input as far as they reach
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return &PDFGenerator{pdf: pdf, tr: tr}
}

// SetFont sets the font for subsequent text.
func (g *PDFGenerator) SetFont(family, style string, size float64) {
	g.pdf.SetFont(family, style, size)
}

// AddHeading writes a bold colored heading followed by a small gap.
func (g *PDFGenerator) AddHeading(text string, size float64, r, gr, b int) {
	g.pdf.SetFont("Arial", "B", size)
	g.pdf.SetTextColor(r, gr, b)
	g.pdf.MultiCell(0, size*0.6, g.tr(text), "", "L", false)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.Ln(2)
}

// AddParagraph writes a wrapped block of text in the current font. Long lines
// wrap at the right margin; embedded newlines are preserved.
func (g *PDFGenerator) AddParagraph(text string, lineHeight float64) {
	g.pdf.MultiCell(0, lineHeight, g.tr(text), "", "L", false)
}

// AddSpacer inserts vertical space.
func (g *PDFGenerator) AddSpacer(h float64) {
	g.pdf.Ln(h)
}

// PageBreak starts a new page.
func (g *PDFGenerator) PageBreak() {
	g.pdf.AddPage()
}

// Err reports a pending gofpdf error, if any.
func (g *PDFGenerator) Err() error {
	if g.pdf.Err() {
		return g.pdf.Error()
	}
	return nil
}

// SaveToFile saves the PDF to a file.
func (g *PDFGenerator) SaveToFile(filename string) error {
	return g.pdf.OutputFileAndClose(filename)
}

// WriteToWriter writes the PDF to an io.Writer.
func (g *PDFGenerator) WriteToWriter(w io.Writer) error {
	return g.pdf.Output(w)
}

// GetBytes returns the PDF as a byte slice.
func (g *PDFGenerator) GetBytes() ([]byte, error) {
	var buf bytes.Buffer
	err := g.pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
