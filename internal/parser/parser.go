// Package parser extracts plain text from uploaded document bytes.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedType reports a file extension with no extractor.
	ErrUnsupportedType = errors.New("parser: unsupported file type")
	// ErrPageLimit reports a PDF with more pages than allowed.
	ErrPageLimit = errors.New("parser: page count exceeds limit")
)

// DefaultMaxPDFPages caps how large a PDF is accepted for extraction.
const DefaultMaxPDFPages = 150

// Parser dispatches raw bytes to the extractor for their file extension.
// Supported: txt, pdf, docx, pptx.
type Parser struct {
	maxPDFPages int
}

// New creates a Parser. maxPDFPages <= 0 selects the default cap.
func New(maxPDFPages int) *Parser {
	if maxPDFPages <= 0 {
		maxPDFPages = DefaultMaxPDFPages
	}
	return &Parser{maxPDFPages: maxPDFPages}
}

// Parse extracts the text content of data. The extension may be given with
// or without a leading dot and is case-insensitive.
func (p *Parser) Parse(data []byte, ext string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt":
		return parseTXT(data)
	case "pdf":
		return p.parsePDF(data)
	case "docx":
		return parseDOCX(data)
	case "pptx":
		return parsePPTX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// ParseFile reads path and extracts its text based on the file extension.
func (p *Parser) ParseFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("parser: read %s: %w", path, err)
	}
	return p.Parse(data, filepath.Ext(path))
}

func parseTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("parser: txt content is not valid UTF-8")
	}
	return string(data), nil
}
