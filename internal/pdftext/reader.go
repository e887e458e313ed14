// Package pdftext turns statement documents into per-page lines of text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// gapFactor is the horizontal gap, relative to font size, above which two
// glyph runs on one row are separated by a space.
const gapFactor = 0.15

// Page is the text of one page, top to bottom.
type Page struct {
	Number int
	Lines  []string
}

// Document is the extracted text of a whole statement.
type Document struct {
	Pages []Page
}

// LineCount returns the number of lines across all pages.
func (d Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// FromText builds a Document from already-extracted page text.
func FromText(pages ...string) Document {
	doc := Document{Pages: make([]Page, 0, len(pages))}
	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{
			Number: i + 1,
			Lines:  strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"),
		})
	}
	return doc
}

// Read extracts the text layer of a PDF. An empty password opens only
// unprotected files.
func Read(data []byte, password string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = &ReadError{Code: ErrUnreadable, Message: "pdf library panic", Cause: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := open(data, password)
	if err != nil {
		return Document{}, err
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return Document{}, &ReadError{Code: ErrUnreadable, Message: fmt.Sprintf("read page %d", i), Cause: err}
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if line := joinRow(row.Content); line != "" {
				lines = append(lines, line)
			}
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Lines: lines})
	}

	if doc.LineCount() == 0 {
		return doc, &ReadError{Code: ErrEmpty, Message: "document has no text layer"}
	}
	return doc, nil
}

func open(data []byte, password string) (*pdf.Reader, error) {
	r := bytes.NewReader(data)
	size := int64(len(data))

	if password == "" {
		reader, err := pdf.NewReader(r, size)
		if err != nil {
			return nil, classify(err)
		}
		return reader, nil
	}

	// The library keeps asking until the callback returns "".
	offered := false
	reader, err := pdf.NewReaderEncrypted(r, size, func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	})
	if err != nil {
		return nil, classify(err)
	}
	return reader, nil
}

func classify(err error) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return &ReadError{Code: ErrEncrypted, Message: "document is password protected", Cause: err}
	}
	return &ReadError{Code: ErrUnreadable, Message: "open pdf", Cause: err}
}

// joinRow rebuilds a line from glyph runs sorted left to right.
func joinRow(texts pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > t.FontSize*gapFactor {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
