package document

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourorg/docpress/pkg/errors"
)

const testMaxBytes = 50 * 1024 * 1024

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func minimalDocx(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   `<w:document><w:body><w:p><w:r><w:t>hello</w:t></w:r></w:p></w:body></w:document>`,
	})
}

func minimalPptx(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"[Content_Types].xml":   `<Types/>`,
		"ppt/presentation.xml":  `<p:presentation/>`,
		"ppt/slides/slide1.xml": `<p:sld><p:cSld><p:spTree><a:t>slide one</a:t></p:spTree></p:cSld></p:sld>`,
	})
}

func assertAppCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(testMaxBytes)

	cases := []struct {
		name     string
		filename string
		content  []byte
		want     Type
	}{
		{"Word document", "report.docx", minimalDocx(t), TypeDocx},
		{"Presentation", "deck.pptx", minimalPptx(t), TypePptx},
		{"UTF-8 text", "notes.txt", []byte("plain text\nwith lines\n"), TypeTxt},
		{"Latin-1 text", "legacy.txt", []byte{'c', 'a', 'f', 0xE9}, TypeTxt},
		{"Markdown", "README.md", []byte("# Title\n\nsome *markdown*\n"), TypeMd},
		{"Uppercase extension", "REPORT.DOCX", minimalDocx(t), TypeDocx},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := bytes.NewReader(tc.content)
			docType, err := v.Validate(tc.filename, int64(len(tc.content)), reader)
			require.NoError(t, err)
			assert.Equal(t, tc.want, docType)

			// reader must be rewound for the caller
			rest, err := io.ReadAll(reader)
			require.NoError(t, err)
			assert.Equal(t, tc.content, rest)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	v := NewValidator(testMaxBytes)

	t.Run("Missing upload", func(t *testing.T) {
		_, err := v.Validate("", 0, nil)
		assertAppCode(t, err, apperrors.ErrorCodeBadRequest)
		assert.Contains(t, err.Error(), "No file uploaded")
	})

	t.Run("Oversized file", func(t *testing.T) {
		_, err := v.Validate("big.docx", testMaxBytes+1, bytes.NewReader([]byte("PK")))
		assertAppCode(t, err, apperrors.ErrorCodeFileTooLarge)
		assert.Contains(t, err.Error(), "File too large. Maximum size allowed: 50MB")
	})

	t.Run("Empty file", func(t *testing.T) {
		_, err := v.Validate("empty.txt", 0, bytes.NewReader(nil))
		assertAppCode(t, err, apperrors.ErrorCodeValidation)
		assert.Contains(t, err.Error(), "File is empty")
	})

	t.Run("Disallowed extension", func(t *testing.T) {
		content := []byte("MZ binary")
		_, err := v.Validate("malware.exe", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeUnsupportedType)
		assert.Contains(t, err.Error(), "Allowed types: docx, pptx, txt, md")
	})

	t.Run("No extension", func(t *testing.T) {
		content := []byte("text")
		_, err := v.Validate("Makefile", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeUnsupportedType)
	})

	t.Run("DOCX without ZIP magic", func(t *testing.T) {
		content := []byte("this is not a zip archive at all")
		_, err := v.Validate("fake.docx", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
		assert.Contains(t, err.Error(), "Invalid DOCX file format")
	})

	t.Run("DOCX with magic but corrupt archive", func(t *testing.T) {
		content := append([]byte{'P', 'K', 0x03, 0x04}, []byte("truncated garbage")...)
		_, err := v.Validate("corrupt.docx", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
	})

	t.Run("Valid ZIP missing the Word part", func(t *testing.T) {
		content := buildZip(t, map[string]string{"random.txt": "zip but not OOXML"})
		_, err := v.Validate("renamed.docx", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
	})

	t.Run("DOCX content labeled PPTX", func(t *testing.T) {
		content := minimalDocx(t)
		_, err := v.Validate("mislabeled.pptx", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
		assert.Contains(t, err.Error(), "Invalid PPTX file format")
	})

	t.Run("Text with NUL bytes", func(t *testing.T) {
		content := []byte{'h', 'i', 0x00, 0x00, 'x'}
		_, err := v.Validate("binary.txt", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
		assert.Contains(t, err.Error(), "Text file contains invalid characters")
	})

	t.Run("Markdown with broken UTF-8", func(t *testing.T) {
		content := []byte{'#', ' ', 0xFF, 0xFE, 0xFD}
		_, err := v.Validate("bad.md", int64(len(content)), bytes.NewReader(content))
		assertAppCode(t, err, apperrors.ErrorCodeInvalidStructure)
		assert.Contains(t, err.Error(), "Markdown file must be UTF-8 encoded")
	})
}

func TestValidateSizeBoundary(t *testing.T) {
	v := NewValidator(1024)

	content := []byte(strings.Repeat("a", 1024))
	_, err := v.Validate("exact.txt", int64(len(content)), bytes.NewReader(content))
	assert.NoError(t, err, "file exactly at the limit is allowed")

	_, err = v.Validate("over.txt", 1025, bytes.NewReader(content))
	assertAppCode(t, err, apperrors.ErrorCodeFileTooLarge)
}
