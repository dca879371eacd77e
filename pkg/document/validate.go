package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "github.com/yourorg/docpress/pkg/errors"
)

// Content is the readable view of an upload the validator needs. Satisfied by
// multipart.File and *os.File.
type Content interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Validator performs every pre-trust check on an upload: size ceiling,
// extension allow-list, and per-type content sniffing.
type Validator struct {
	maxBytes int64
}

// NewValidator creates a validator with the given upload ceiling in bytes.
func NewValidator(maxBytes int64) *Validator {
	return &Validator{maxBytes: maxBytes}
}

// MaxBytes returns the configured upload ceiling.
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate runs all checks in order and returns the detected document type.
// The reader is rewound to the start before returning so the caller can
// consume the content afterwards.
func (v *Validator) Validate(name string, size int64, content Content) (Type, error) {
	if name == "" || content == nil {
		return "", apperrors.NewBadRequestError("No file uploaded")
	}

	if size > v.maxBytes {
		return "", apperrors.NewFileTooLargeError(
			fmt.Sprintf("File too large. Maximum size allowed: %dMB", v.maxBytes/(1024*1024)))
	}

	if size == 0 {
		return "", apperrors.NewValidationError("File is empty")
	}

	t, ok := TypeFromFilename(name)
	if !ok {
		return "", apperrors.NewUnsupportedTypeError(
			fmt.Sprintf("Unsupported file type. Allowed types: %s", strings.Join(AllowedExtensions(), ", ")))
	}

	if err := v.checkContent(t, size, content); err != nil {
		return t, err
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return t, apperrors.NewInternalError("Failed to rewind uploaded file")
	}
	return t, nil
}

func (v *Validator) checkContent(t Type, size int64, content Content) error {
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("Error reading file: %v", err))
	}

	switch t {
	case TypeDocx, TypePptx:
		return v.checkArchive(t, size, content)
	case TypeTxt:
		data, err := io.ReadAll(content)
		if err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("Error reading file: %v", err))
		}
		// UTF-8 is preferred; anything else is read as Latin-1, which maps
		// every byte, so only NUL bytes mark the content as non-text.
		if bytes.IndexByte(data, 0) >= 0 {
			return apperrors.NewInvalidStructureError("Text file contains invalid characters")
		}
		return nil
	case TypeMd:
		data, err := io.ReadAll(content)
		if err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("Error reading file: %v", err))
		}
		if !utf8.Valid(data) {
			return apperrors.NewInvalidStructureError("Markdown file must be UTF-8 encoded")
		}
		return nil
	default:
		return apperrors.NewUnsupportedTypeError(
			fmt.Sprintf("Unsupported file type. Allowed types: %s", strings.Join(AllowedExtensions(), ", ")))
	}
}

// checkArchive verifies the ZIP container OOXML formats live in: the PK
// signature, a parseable archive, and the part that marks the format.
func (v *Validator) checkArchive(t Type, size int64, content Content) error {
	invalid := apperrors.NewInvalidStructureError(
		fmt.Sprintf("Invalid %s file format", strings.ToUpper(string(t))))

	head := make([]byte, 4)
	if _, err := io.ReadFull(content, head); err != nil {
		return invalid
	}
	if head[0] != 'P' || head[1] != 'K' {
		return invalid
	}
	// local file, empty archive, or spanned archive marker
	validPair := (head[2] == 0x03 && head[3] == 0x04) ||
		(head[2] == 0x05 && head[3] == 0x06) ||
		(head[2] == 0x07 && head[3] == 0x08)
	if !validPair {
		return invalid
	}

	zr, err := zip.NewReader(content, size)
	if err != nil {
		return invalid
	}

	required := "word/document.xml"
	if t == TypePptx {
		required = "ppt/presentation.xml"
	}
	for _, f := range zr.File {
		if f.Name == required {
			return nil
		}
	}
	return invalid
}
