package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

var ErrNotDocx = errors.New("not a docx document")

// docxText returns the raw text of a .docx body: paragraphs separated by a
// blank line, tabs and breaks kept.
func docxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: missing %s", ErrNotDocx, docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()

	return paragraphs(rc)
}

func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    []string
		cur    strings.Builder
		inText bool
		runs   int // open w:r elements; w:tab outside a run is a tab stop
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				runs++
			case "t":
				inText = true
			case "tab":
				if runs > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if runs > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				if runs > 0 {
					runs--
				}
			case "t":
				inText = false
			case "p":
				out = append(out, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return strings.Join(out, "\n\n"), nil
}
