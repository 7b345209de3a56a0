package parser

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseUnsupportedType(t *testing.T) {
	p := New(0)
	_, err := p.Parse([]byte("whatever"), "exe")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = p.Parse([]byte("whatever"), ".xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseTXT(t *testing.T) {
	p := New(0)

	text, err := p.Parse([]byte("plain text content"), "txt")
	require.NoError(t, err)
	assert.Equal(t, "plain text content", text)

	// extension dispatch is case-insensitive and dot-tolerant
	text, err = p.Parse([]byte("more text"), ".TXT")
	require.NoError(t, err)
	assert.Equal(t, "more text", text)

	_, err = p.Parse([]byte{0xff, 0xfe, 0xfd}, "txt")
	assert.Error(t, err)
}

func TestParseDOCX(t *testing.T) {
	p := New(0)
	data := buildZip(t, map[string]string{
		"word/document.xml": `<w:document><w:body>` +
			`<w:p w:rsidR="001"><w:r><w:t>Hello</w:t></w:r>` +
			`<w:r><w:t xml:space="preserve">docx &amp; friends</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	text, err := p.Parse(data, "docx")
	require.NoError(t, err)
	assert.Equal(t, "Hello docx & friends", text)
}

func TestParseDOCXNotAZip(t *testing.T) {
	p := New(0)
	_, err := p.Parse([]byte("not a zip archive"), "docx")
	assert.Error(t, err)
}

func TestParsePPTXSlideOrder(t *testing.T) {
	p := New(0)
	data := buildZip(t, map[string]string{
		"ppt/slides/slide2.xml": `<p:sld><a:t>second slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml": `<p:sld><a:t>first slide</a:t><a:t>more text</a:t></p:sld>`,
		"ppt/slides/notes1.xml": `<a:t>ignored</a:t>`,
	})

	text, err := p.Parse(data, "pptx")
	require.NoError(t, err)
	assert.Equal(t, "Page 1:\nfirst slide\nmore text\n\nPage 2:\nsecond slide", text)
}

func TestParseFile(t *testing.T) {
	p := New(0)
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("file on disk"), 0o644))

	text, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file on disk", text)

	_, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
