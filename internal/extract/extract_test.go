package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	if documentXML != "" {
		w, err = zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>What is </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>Go</w:t></w:r><w:r><w:t>?</w:t></w:r></w:p>
    <w:p><w:r><w:t>Answer</w:t><w:tab/><w:t>briefly.</w:t><w:br/><w:t>Thanks</w:t></w:r></w:p>
    <w:sectPr/>
  </w:body>
</w:document>`

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     string
	}{
		{"plain text", "q.txt", []byte("What is Go?\n"), "What is Go?\n"},
		{"upper case extension", "Q.TXT", []byte("hi"), "hi"},
		{"docx paragraphs", "q.docx", buildDOCX(t, docXML), "What is Go?\n\nAnswer\tbriefly.\nThanks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.filename, tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextErrors(t *testing.T) {
	_, err := Text("notes.doc", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text("noext", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text("broken.docx", []byte("not a zip"))
	assert.Error(t, err)

	_, err = Text("empty.docx", buildDOCX(t, ""))
	assert.ErrorContains(t, err, "word/document.xml missing")
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.txt", "a.pdf", "a.docx", "A.PDF"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.doc", "a", "a.md", "docx"} {
		assert.False(t, Supported(name), name)
	}
}
