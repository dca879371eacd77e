package convert

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/pdfutil"
)

// SlidesConverter renders PowerPoint presentations as one "Slide N" section
// per slide, carrying only the text content. It reads the OOXML parts
// directly, so no external tool is involved.
type SlidesConverter struct{}

// NewSlidesConverter creates the delegate.
func NewSlidesConverter() *SlidesConverter {
	return &SlidesConverter{}
}

// Type implements Converter.
func (c *SlidesConverter) Type() document.Type {
	return document.TypePptx
}

// Available implements Converter. Slide rendering runs fully in-process.
func (c *SlidesConverter) Available() error {
	return nil
}

// Convert implements Converter.
func (c *SlidesConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	slides, err := extractSlides(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gen := pdfutil.NewPDFGenerator(req.Filename)
	for i, blocks := range slides {
		if i > 0 {
			gen.AddSpacer(8)
		}
		gen.AddHeading(fmt.Sprintf("Slide %d", i+1), 16, 0, 0, 139)
		gen.AddSpacer(4)
		gen.SetFont("Arial", "", 12)
		if len(blocks) == 0 {
			gen.AddParagraph("(No text content)", 6)
			continue
		}
		for _, block := range blocks {
			gen.AddParagraph(block, 6)
			gen.AddSpacer(2)
		}
	}
	if err := gen.Err(); err != nil {
		return nil, fmt.Errorf("failed to render slides: %w", err)
	}
	if err := gen.SaveToFile(req.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return &Result{OutputPath: req.OutputPath}, nil
}

// extractSlides returns, per slide in deck order, the text blocks of its
// shapes. A slide with no text yields an empty slice.
func extractSlides(path string) ([][]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	type slideFile struct {
		num  int
		file *zip.File
	}
	var files []slideFile
	for _, f := range zr.File {
		num, ok := slideNumber(f.Name)
		if !ok {
			continue
		}
		files = append(files, slideFile{num: num, file: f})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("presentation has no slides")
	}
	// slide10.xml must follow slide9.xml, so sort numerically
	sort.Slice(files, func(i, j int) bool { return files[i].num < files[j].num })

	slides := make([][]string, 0, len(files))
	for _, sf := range files {
		rc, err := sf.file.Open()
		if err != nil {
			return nil, err
		}
		blocks, err := slideTextBlocks(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", sf.num, err)
		}
		slides = append(slides, blocks)
	}
	return slides, nil
}

// slideNumber parses N out of "ppt/slides/slideN.xml".
func slideNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	num, err := strconv.Atoi(digits)
	if err != nil || num < 1 {
		return 0, false
	}
	return num, true
}

// slideTextBlocks walks the slide XML and collects one text block per text
// body, paragraphs joined with newlines. DrawingML nests runs as
// txBody > a:p > a:r > a:t.
func slideTextBlocks(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var blocks []string
	var block strings.Builder
	inBody := false
	inText := false

	flushBlock := func() {
		text := strings.TrimSpace(block.String())
		if text != "" {
			blocks = append(blocks, text)
		}
		block.Reset()
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "txBody":
				inBody = true
				block.Reset()
			case "t":
				inText = inBody
			case "p":
				if inBody && block.Len() > 0 {
					block.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "txBody":
				flushBlock()
				inBody = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				block.Write(el)
			}
		}
	}
	return blocks, nil
}
