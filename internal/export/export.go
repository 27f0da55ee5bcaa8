// Package export writes parsed menus as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"

	"github.com/msto63/etlap/internal/menu"
	"github.com/msto63/etlap/internal/parser"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
	"github.com/msto63/etlap/pkg/core/version"
)

// Format is an export format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Columns is the CSV header line
var Columns = []string{
	"table", "row", "meal", "foods", "allergens",
	"energy", "carbohydrate", "protein", "sugar", "fat", "salt", "saturated_fat",
}

// ParseFormat converts a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperrors.Newf("unsupported export format: %q", s).
		WithCode(apperrors.CodeInvalidInput).
		WithOperation("export.ParseFormat")
}

// FormatFromPath guesses the format from the file extension
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Options control the written document
type Options struct {
	// Delimiter separates CSV fields (default ';')
	Delimiter rune

	// Header writes the CSV column line
	Header bool

	// Document metadata for JSON and YAML
	Source      string
	RunID       string
	GeneratedAt time.Time
}

// Document is the JSON and YAML export layout
type Document struct {
	Schema      string       `json:"schema" yaml:"schema"`
	Generator   string       `json:"generator" yaml:"generator"`
	RunID       string       `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Tables      []menu.Table `json:"tables" yaml:"tables"`
}

// NewDocument wraps tables with metadata
func NewDocument(tables []menu.Table, opts Options) Document {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	if tables == nil {
		tables = []menu.Table{}
	}
	return Document{
		Schema:      version.ExportSchema,
		Generator:   "etlap " + version.Version,
		RunID:       opts.RunID,
		Source:      opts.Source,
		GeneratedAt: generated.UTC(),
		Tables:      tables,
	}
}

// Write writes tables to w in the given format
func Write(w io.Writer, format Format, tables []menu.Table, opts Options) error {
	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(w, tables, opts)
	case FormatJSON:
		err = json.MarshalWrite(w, NewDocument(tables, opts),
			jsontext.Multiline(true), jsontext.WithIndent("  "))
	case FormatYAML:
		err = writeYAML(w, NewDocument(tables, opts))
	default:
		return apperrors.Newf("unsupported export format: %q", format).
			WithCode(apperrors.CodeInvalidInput).
			WithOperation("export.Write")
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to write export").
			WithCode(apperrors.CodeIOError).
			WithOperation("export.Write").
			WithDetail("format", string(format))
	}
	return nil
}

func writeYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func writeCSV(w io.Writer, tables []menu.Table, opts Options) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	} else {
		cw.Comma = ';'
	}

	if opts.Header {
		if err := cw.Write(Columns); err != nil {
			return err
		}
	}

	for _, t := range tables {
		for _, r := range t.Rows {
			for _, c := range r.Cells {
				if err := cw.Write(Record(t.Index, r.Header, c)); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// Record renders one meal as a CSV record in Columns order. Foods and their
// allergens are listed one per line; nutrient columns stay empty when the
// meal has no nutrient record.
func Record(table int, header string, c menu.Cell) []string {
	names := make([]string, len(c.Foods))
	allergens := make([]string, len(c.Foods))
	for i, f := range c.Foods {
		names[i] = f.Name
		allergens[i] = f.Allergens
	}

	record := []string{
		strconv.Itoa(table),
		header,
		c.Label,
		strings.Join(names, "\n"),
		strings.Join(allergens, "\n"),
	}
	return append(record, nutrientFields(c.Nutrient)...)
}

func nutrientFields(n *parser.Nutrient) []string {
	fields := make([]string, parser.MinNutrientValues)
	if n == nil {
		return fields
	}
	for i, v := range n.Values() {
		precision := 1
		if i == 0 {
			precision = 0
		}
		fields[i] = strconv.FormatFloat(v, 'f', precision, 64)
	}
	return fields
}
