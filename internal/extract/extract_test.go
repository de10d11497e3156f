package extract

import (
	"errors"
	"testing"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		want        string
		wantErr     bool
	}{
		{"declared text", "notes.txt", "text/plain", TypeText, false},
		{"declared text with charset", "notes", "text/plain; charset=utf-8", TypeText, false},
		{"declared pdf", "paper.pdf", "application/pdf", TypePDF, false},
		{"missing type uses extension", "paper.PDF", "", TypePDF, false},
		{"octet stream uses extension", "notes.txt", "application/octet-stream", TypeText, false},
		{"unsupported extension", "report.docx", "", "", true},
		{"unsupported declared type", "report.doc", "application/msword", "", true},
		{"malformed content type", "notes.txt", ";;", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.filename, tt.contentType)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Errorf("expected ErrUnsupportedType, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("DetectType = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		docType string
		content []byte
		want    string
		wantErr error
	}{
		{"plain text", TypeText, []byte("Hello\nworld"), "Hello\nworld", nil},
		{"blank text", TypeText, []byte("  \n\t"), "", ErrNoText},
		{"invalid utf8", TypeText, []byte{0xff, 0xfe, 0xfd}, "", ErrNoText},
		{"unknown type", "image/png", []byte("x"), "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.docType, tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Text = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestTextRejectsCorruptPDF(t *testing.T) {
	if _, err := Text(TypePDF, []byte("%PDF-1.4 not really a pdf")); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}
