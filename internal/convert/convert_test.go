package convert

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/msto63/etlap/internal/docx"
	"github.com/msto63/etlap/internal/export"
	"github.com/msto63/etlap/internal/store"
	"github.com/msto63/etlap/pkg/core/config"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

const menuXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:tbl>
<w:tr><w:tc><w:p><w:r><w:t></w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>A menü</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Hétfő</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Gulyásleves (1,9)</w:t></w:r></w:p><w:p><w:r><w:t>Kenyér (1)</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc/><w:tc><w:p><w:r><w:t>520 kcal 64,2 21,5 12 18,3 2,1 6,4</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Kedd</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Lecsó</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc/><w:tc><w:p><w:r><w:t>nincs adat</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl></w:body></w:document>`

func writeMenu(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "menu.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(docx.DocumentPart)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(menuXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

type recordingArchiver struct {
	runs []*store.Run
}

func (a *recordingArchiver) SaveRun(_ context.Context, run *store.Run) error {
	a.runs = append(a.runs, run)
	return nil
}

func TestConverter_RunCSV(t *testing.T) {
	dir := t.TempDir()
	input := writeMenu(t, dir)
	output := filepath.Join(dir, "out", "menu.csv")
	archive := &recordingArchiver{}

	c := New(Options{
		Input:     input,
		Output:    output,
		Format:    export.FormatCSV,
		Delimiter: ';',
		Header:    true,
	}, archive, nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RunID == "" || result.Output != output {
		t.Errorf("Result = %+v", result)
	}
	if result.Stats.Rows != 2 || result.Stats.Foods != 3 || result.Stats.Nutrients != 1 {
		t.Errorf("Stats = %+v", result.Stats)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	expected := strings.Join(export.Columns, ";") + "\n" +
		"1;Hétfő;A menü;\"Gulyásleves\nKenyér\";\"1,9\n1\";520;64.2;21.5;12.0;18.3;2.1;6.4\n" +
		"1;Kedd;A menü;Lecsó;;;;;;;;\n"
	if string(data) != expected {
		t.Errorf("output =\n%s\nwant\n%s", data, expected)
	}

	if len(archive.runs) != 1 || archive.runs[0].ID != result.RunID {
		t.Fatalf("archived runs = %+v", archive.runs)
	}
	if len(archive.runs[0].Tables) != 1 {
		t.Errorf("archived run has %d tables, want 1", len(archive.runs[0].Tables))
	}

	entries, _ := os.ReadDir(filepath.Dir(output))
	if len(entries) != 1 {
		t.Errorf("output directory has %d entries, temporary file left behind", len(entries))
	}
}

func TestConverter_RowFilterAndDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeMenu(t, dir)

	c := New(Options{
		Input:     input,
		Format:    export.FormatJSON,
		RowFilter: regexp.MustCompile("^Kedd"),
	}, nil, nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := filepath.Join(dir, "menu.json"); result.Output != want {
		t.Errorf("Output = %v, want %v", result.Output, want)
	}
	if result.Stats.Rows != 1 {
		t.Errorf("Stats.Rows = %d, want 1", result.Stats.Rows)
	}

	data, err := os.ReadFile(result.Output)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Hétfő") || !strings.Contains(string(data), `"header": "Kedd"`) {
		t.Errorf("unexpected JSON output:\n%s", data)
	}
}

func TestConverter_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		opts Options
		code apperrors.Code
	}{
		{"no input", Options{Format: export.FormatCSV}, apperrors.CodeMissingConfig},
		{"missing input", Options{Input: filepath.Join(dir, "nope.docx"), Format: export.FormatCSV}, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, nil, nil).Run(context.Background())
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("Run() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestConverter_Cancelled(t *testing.T) {
	input := writeMenu(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Input: input, Format: export.FormatCSV}, nil, nil).Run(ctx)
	if err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Path = "heti.docx"
	cfg.Input.RowFilter = "^H"
	cfg.Output.Format = "yaml"

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if opts.Format != export.FormatYAML || opts.Delimiter != ';' || !opts.Header || opts.RowFilter == nil {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
	if opts.OutputPath() != "heti.yaml" {
		t.Errorf("OutputPath() = %v, want heti.yaml", opts.OutputPath())
	}
}
