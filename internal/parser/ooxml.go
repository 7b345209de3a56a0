package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DOCX and PPTX are OOXML zip packages. Text lives in <w:t> (Word) and
// <a:t> (PowerPoint) nodes; pulling those directly keeps the content
// searchable regardless of paragraph or run attributes.
var (
	wtTag     = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	atTag     = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// xmlEntities undoes the escaping OOXML applies to text nodes.
var xmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func parseDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parser: DOCX is not a zip: %w", err)
	}
	docXML, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("parser: DOCX: %w", err)
	}
	parts := wtTag.FindAllStringSubmatch(string(docXML), -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(xmlEntities.Replace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}

func parsePPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parser: PPTX is not a zip: %w", err)
	}
	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		xml, err := readZipFile(zr, f.Name)
		if err != nil {
			return "", fmt.Errorf("parser: PPTX: %w", err)
		}
		parts := atTag.FindAllStringSubmatch(string(xml), -1)
		var b strings.Builder
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(xmlEntities.Replace(p[1]))
		}
		slides = append(slides, slide{num: num, text: b.String()})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })
	var b strings.Builder
	for i, s := range slides {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n", s.num, s.text)
	}
	return strings.TrimSpace(b.String()), nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
