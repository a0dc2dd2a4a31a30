// Package pdfextract pulls plain text out of PDF uploads.
package pdfextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF parses but carries no extractable text.
var ErrNoText = errors.New("pdf contains no extractable text")

// ExtractText parses data as a PDF and returns its plain text.
func ExtractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrNoText
	}
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", ErrNoText
	}
	return string(out), nil
}
