// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	TypeText = "text/plain"
	TypePDF  = "application/pdf"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type (only PDF and TXT allowed)")
	ErrNoText          = errors.New("no text could be extracted")
)

// DetectType resolves the document type from the declared content type,
// falling back to the file extension when none was sent.
func DetectType(filename, contentType string) (string, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", ErrUnsupportedType
		}
		switch mediaType {
		case TypeText, TypePDF:
			return mediaType, nil
		case "application/octet-stream":
		default:
			return "", ErrUnsupportedType
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return TypeText, nil
	case ".pdf":
		return TypePDF, nil
	default:
		return "", ErrUnsupportedType
	}
}

// Text returns the text content of a document of the given type.
func Text(docType string, content []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch docType {
	case TypeText:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("text file is not valid UTF-8: %w", ErrNoText)
		}
		text = string(content)
	case TypePDF:
		text, err = pdfText(content)
		if err != nil {
			return "", fmt.Errorf("read pdf: %w", err)
		}
	default:
		return "", ErrUnsupportedType
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(content []byte) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			// A page that fails to decode is skipped.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
