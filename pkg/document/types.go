package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Type identifies a supported upload format by its canonical extension.
type Type string

const (
	TypeDocx Type = "docx"
	TypePptx Type = "pptx"
	TypeTxt  Type = "txt"
	TypeMd   Type = "md"
)

// String returns the canonical extension without the dot.
func (t Type) String() string {
	return string(t)
}

// Ext returns the extension with the leading dot.
func (t Type) Ext() string {
	return "." + string(t)
}

// TypeInfo describes a supported format for the UI and the formats endpoint.
type TypeInfo struct {
	Type        Type   `json:"type"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	// Requires names the external delegate the conversion depends on.
	// Empty means the conversion runs fully in-process.
	Requires string   `json:"requires,omitempty"`
	Tips     []string `json:"tips"`
}

var catalog = map[Type]TypeInfo{
	TypeDocx: {
		Type:        TypeDocx,
		Name:        "Word Document",
		Icon:        "📄",
		Description: "Microsoft Word documents (.docx)",
		Requires:    "LibreOffice",
		Tips: []string{
			"Ensure LibreOffice is installed and on the PATH",
			"Check that the DOCX file is not corrupted",
			"Try opening the file in Word or LibreOffice first to verify it works",
		},
	},
	TypePptx: {
		Type:        TypePptx,
		Name:        "PowerPoint Presentation",
		Icon:        "📊",
		Description: "Microsoft PowerPoint presentations (.pptx)",
		Tips: []string{
			"Ensure the PPTX file is not corrupted",
			"Check that the presentation contains readable text",
			"Only slide text is carried into the PDF",
		},
	},
	TypeTxt: {
		Type:        TypeTxt,
		Name:        "Text File",
		Icon:        "📝",
		Description: "Plain text files (.txt)",
		Tips: []string{
			"Ensure the text file uses UTF-8 encoding",
			"Check that the file contains readable text",
			"Try opening the file in a text editor to verify content",
		},
	},
	TypeMd: {
		Type:        TypeMd,
		Name:        "Markdown File",
		Icon:        "📋",
		Description: "Markdown files (.md)",
		Requires:    "Chromium",
		Tips: []string{
			"Ensure the Markdown file uses UTF-8 encoding",
			"Check that the file contains valid Markdown syntax",
			"Try previewing the file in a Markdown editor",
		},
	},
}

// typeOrder fixes the display order of the catalog.
var typeOrder = []Type{TypeDocx, TypePptx, TypeTxt, TypeMd}

// Catalog returns the supported formats in display order.
func Catalog() []TypeInfo {
	infos := make([]TypeInfo, 0, len(typeOrder))
	for _, t := range typeOrder {
		infos = append(infos, catalog[t])
	}
	return infos
}

// Info returns the catalog entry for a type.
func Info(t Type) (TypeInfo, bool) {
	info, ok := catalog[t]
	return info, ok
}

// AllowedExtensions returns the allow-list without dots, in display order.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(typeOrder))
	for _, t := range typeOrder {
		exts = append(exts, string(t))
	}
	return exts
}

// TypeFromFilename maps a filename to its document type by extension.
func TypeFromFilename(name string) (Type, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	t := Type(ext)
	_, ok := catalog[t]
	return t, ok
}

// MIMEType returns the MIME type for a document type.
func (t Type) MIMEType() string {
	switch t {
	case TypeDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case TypePptx:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case TypeTxt:
		return "text/plain"
	case TypeMd:
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}

// FormatSize renders a byte count as a human-readable string with one decimal.
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f PB", value)
}

// SanitizeFilename strips characters that are unsafe in download filenames,
// keeping letters, digits, spaces, dashes, underscores and dots.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" -_.", r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// OutputFilename derives the suggested download name for a converted PDF.
func OutputFilename(original string) string {
	safe := SanitizeFilename(original)
	stem := strings.TrimSuffix(safe, filepath.Ext(safe))
	if stem == "" {
		stem = "document"
	}
	return stem + ".pdf"
}
