package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"GanttGen/internal/domain/models"
	"GanttGen/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Phase one:</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> regulatory review</w:t></w:r></w:p>
    <w:p><w:r><w:t>Launch Q3 2026</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   body,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_SortsAndDelimits(t *testing.T) {
	e := New(logger.Nop())
	out, err := e.Extract(context.Background(), []models.UploadedFile{
		{Name: "b.md", Content: []byte("second")},
		{Name: "a.txt", MIMEType: "text/plain", Content: []byte("first")},
	})
	require.NoError(t, err)

	want := "--- Start of file: a.txt ---\nfirst\n--- End of file: a.txt ---\n\n" +
		"--- Start of file: b.md ---\nsecond\n--- End of file: b.md ---\n\n"
	assert.Equal(t, want, out)
}

func TestExtract_Docx(t *testing.T) {
	doc := buildDocx(t, documentXML)
	e := New(logger.Nop())

	for _, mime := range []string{DocxMIME, "", "application/octet-stream"} {
		out, err := e.Extract(context.Background(), []models.UploadedFile{
			{Name: "plan.docx", MIMEType: mime, Content: doc},
		})
		require.NoError(t, err, mime)
		assert.Contains(t, out, "Phase one:\t regulatory review\n\nLaunch Q3 2026")
		assert.NotContains(t, out, "w:t")
	}
}

func TestExtract_DocxTabStopsAreNotText(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9360"/></w:tabs></w:pPr>
      <w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>World</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`
	e := New(logger.Nop())
	out, err := e.Extract(context.Background(), []models.UploadedFile{
		{Name: "tabs.docx", MIMEType: DocxMIME, Content: buildDocx(t, body)},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "---\nHello\tWorld\n---")
}

func TestExtract_InvalidUTF8Replaced(t *testing.T) {
	e := New(logger.Nop())
	out, err := e.Extract(context.Background(), []models.UploadedFile{
		{Name: "notes.txt", Content: []byte{'o', 'k', 0xff}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "ok�")
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		files []models.UploadedFile
		want  error
	}{
		{
			name:  "corrupt docx",
			files: []models.UploadedFile{{Name: "x.docx", MIMEType: DocxMIME, Content: []byte("not a zip")}},
			want:  ErrNotDocx,
		},
		{
			name:  "docx without body",
			files: []models.UploadedFile{{Name: "x.docx", MIMEType: DocxMIME, Content: emptyZip(t)}},
			want:  ErrNotDocx,
		},
		{
			name:  "extension",
			files: []models.UploadedFile{{Name: "x.exe", Content: []byte("MZ")}},
			want:  ErrExtensionBlocked,
		},
		{
			name:  "size",
			opts:  []Option{WithMaxFileBytes(4)},
			files: []models.UploadedFile{{Name: "x.md", Content: []byte("too long")}},
			want:  ErrFileTooLarge,
		},
		{
			name: "count",
			opts: []Option{WithMaxFiles(1)},
			files: []models.UploadedFile{
				{Name: "a.md", Content: []byte("a")},
				{Name: "b.md", Content: []byte("b")},
			},
			want: ErrTooManyFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(logger.Nop(), tt.opts...)
			out, err := e.Extract(context.Background(), tt.files)
			require.Error(t, err)
			assert.Empty(t, out)

			var upErr *models.UploadError
			require.ErrorAs(t, err, &upErr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtract_OneBadFileAbortsAll(t *testing.T) {
	e := New(logger.Nop())
	_, err := e.Extract(context.Background(), []models.UploadedFile{
		{Name: "a.md", Content: []byte("fine")},
		{Name: "b.docx", MIMEType: DocxMIME, Content: []byte("broken")},
	})

	var upErr *models.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "b.docx", upErr.File)
}

func TestExtract_AllowAnyExtension(t *testing.T) {
	e := New(logger.Nop(), WithAllowedExtensions())
	out, err := e.Extract(context.Background(), []models.UploadedFile{{Name: "data.csv", Content: []byte("a,b")}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "a,b"))
}

func TestExtract_Empty(t *testing.T) {
	out, err := New(logger.Nop()).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func emptyZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
