package parser

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func (p *Parser) parsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parser: open PDF: %w", err)
	}
	numPages := r.NumPage()
	if numPages > p.maxPDFPages {
		return "", fmt.Errorf("%w: PDF has %d pages, limit is %d", ErrPageLimit, numPages, p.maxPDFPages)
	}
	var buf bytes.Buffer
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("parser: extract PDF page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
