// Package docx extracts table text from Word documents.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"strings"

	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

// DocumentPart is the zip entry holding the main document body
const DocumentPart = "word/document.xml"

// Row is a table row; each cell holds its text runs joined by "\n"
type Row struct {
	Cells []string
}

// Table is a table of the document body
type Table struct {
	Rows []Row
}

// Document is the table content of a Word document
type Document struct {
	Path   string
	Tables []Table
}

// Open reads the document at path
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, apperrors.Newf("input file not found: %s", path).
			WithCode(apperrors.CodeNotFound).
			WithOperation("docx.Open").
			WithDetail("path", path)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open input file").
			WithCode(apperrors.CodeIOError).
			WithOperation("docx.Open").
			WithDetail("path", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to stat input file").
			WithCode(apperrors.CodeIOError).
			WithOperation("docx.Open").
			WithDetail("path", path)
	}

	doc, err := Read(f, info.Size())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read document").
			WithDetail("path", path)
	}
	doc.Path = path
	return doc, nil
}

// Read reads a document from a zip container of the given size
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, apperrors.Wrap(err, "not a docx container").
			WithCode(apperrors.CodeInvalidFormat).
			WithOperation("docx.Read")
	}

	part, err := zr.Open(DocumentPart)
	if err != nil {
		return nil, apperrors.Newf("container has no %s", DocumentPart).
			WithCode(apperrors.CodeInvalidFormat).
			WithOperation("docx.Read")
	}
	defer part.Close()

	tables, err := ReadTables(part)
	if err != nil {
		return nil, err
	}
	return &Document{Tables: tables}, nil
}

// ReadTables extracts all tables of a WordprocessingML body in document order.
// Nested tables are returned as separate tables and their text also counts
// toward the enclosing cell.
func ReadTables(r io.Reader) ([]Table, error) {
	var (
		dec    = xml.NewDecoder(r)
		tables []*tableBuilder
		open   []*tableBuilder // innermost last
		cells  []*cellBuilder  // every cell enclosing the current position
		path   []string        // local names of open elements
		text   strings.Builder
		inText bool
	)

	parent := func() string {
		if len(path) == 0 {
			return ""
		}
		return path[len(path)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, "malformed document xml").
				WithCode(apperrors.CodeInvalidFormat).
				WithOperation("docx.ReadTables")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tb := &tableBuilder{}
				tables = append(tables, tb)
				open = append(open, tb)
			case "tr":
				if parent() == "tbl" && len(open) > 0 {
					open[len(open)-1].rows = append(open[len(open)-1].rows, nil)
				}
			case "tc":
				if parent() == "tr" && len(open) > 0 {
					c := open[len(open)-1].addCell()
					cells = append(cells, c)
				} else {
					cells = append(cells, nil)
				}
			case "t":
				inText = true
				text.Reset()
			}
			path = append(path, t.Name.Local)

		case xml.EndElement:
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
			switch t.Name.Local {
			case "tbl":
				if len(open) > 0 {
					open = open[:len(open)-1]
				}
			case "tc":
				if len(cells) > 0 {
					cells = cells[:len(cells)-1]
				}
			case "t":
				inText = false
				if text.Len() > 0 {
					for _, c := range cells {
						if c != nil {
							c.parts = append(c.parts, text.String())
						}
					}
				}
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}

	result := make([]Table, len(tables))
	for i, tb := range tables {
		result[i] = tb.build()
	}
	return result, nil
}

type cellBuilder struct {
	parts []string
}

type tableBuilder struct {
	rows [][]*cellBuilder
}

// addCell appends a cell to the last row, starting a row if none is open
func (b *tableBuilder) addCell() *cellBuilder {
	if len(b.rows) == 0 {
		b.rows = append(b.rows, nil)
	}
	c := &cellBuilder{}
	last := len(b.rows) - 1
	b.rows[last] = append(b.rows[last], c)
	return c
}

func (b *tableBuilder) build() Table {
	t := Table{Rows: make([]Row, len(b.rows))}
	for i, row := range b.rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.Join(c.parts, "\n")
		}
		t.Rows[i].Cells = cells
	}
	return t
}
