package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)

	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestAllowed(t *testing.T) {
	exts := []string{"txt", "pdf", "docx"}
	tests := map[string]bool{
		"notes.txt":         true,
		"Report.PDF":        true,
		"letter.final.docx": true,
		"image.png":         false,
		"noextension":       false,
		"archive.docx.exe":  false,
		"":                  false,
	}
	for name, want := range tests {
		assert.Equal(t, want, Allowed(name, exts), name)
	}
}

func TestAllowedAcceptsDottedConfig(t *testing.T) {
	assert.True(t, Allowed("a.txt", []string{".TXT"}))
}

func TestFromReaderText(t *testing.T) {
	text, err := FromReader("notes.txt", strings.NewReader("Hello, world.\nSecond line."))
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.\nSecond line.", text)
}

func TestFromReaderTextDropsInvalidUTF8(t *testing.T) {
	text, err := FromReader("notes.TXT", bytes.NewReader([]byte("caf\xc3\xa9 \xff\xfeok")))
	require.NoError(t, err)
	assert.Equal(t, "café ok", text)
}

func TestFromReaderDOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>First paragraph</w:t></w:r><w:r><w:t xml:space="preserve"> continues.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>tabbed</w:t></w:r></w:p>`+
			`<w:p/>`+
			`<w:p><w:r><w:t>Line</w:t><w:br/><w:t>break</w:t></w:r></w:p>`)

	text, err := FromReader("doc.docx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph continues.\nSecond\ttabbed\n\nLine\nbreak", text)
}

func TestFromReaderDOCXWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = FromReader("doc.docx", &buf)
	assert.ErrorContains(t, err, "word/document.xml not found")
}

func TestFromReaderCorruptDocuments(t *testing.T) {
	_, err := FromReader("doc.docx", strings.NewReader("not a zip"))
	assert.ErrorContains(t, err, "error reading DOCX")

	_, err = FromReader("doc.pdf", strings.NewReader("not a pdf"))
	assert.ErrorContains(t, err, "error reading PDF")
}

func TestFromReaderUnsupported(t *testing.T) {
	_, err := FromReader("image.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFromReaderEmpty(t *testing.T) {
	_, err := FromReader("blank.txt", strings.NewReader("  \n\t "))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = FromReader("blank.docx", bytes.NewReader(buildDOCX(t, `<w:p/>`)))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("from disk"), 0o600))

	text, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from disk", text)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"My Report.pdf":         "My_Report.pdf",
		"../../etc/passwd":      "etc_passwd",
		`C:\Users\me\notes.txt`: "C_Users_me_notes.txt",
		"résumé final.docx":     "rsum_final.docx",
		"..hidden":              "hidden",
		"***":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}
