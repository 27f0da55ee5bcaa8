// Package convert runs the document to export pipeline.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/etlap/internal/docx"
	"github.com/msto63/etlap/internal/export"
	"github.com/msto63/etlap/internal/menu"
	"github.com/msto63/etlap/internal/store"
	"github.com/msto63/etlap/pkg/core/config"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
	"github.com/msto63/etlap/pkg/core/logging"
)

// Options describe a conversion
type Options struct {
	Input     string
	Output    string
	Format    export.Format
	Delimiter rune
	Header    bool
	RowFilter *regexp.Regexp
	Workers   int
}

// OptionsFromConfig builds conversion options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return Options{}, err
	}
	filter, err := cfg.RowFilter()
	if err != nil {
		return Options{}, apperrors.Wrap(err, "invalid row filter").
			WithCode(apperrors.CodeInvalidConfig).
			WithOperation("convert.OptionsFromConfig")
	}
	return Options{
		Input:     cfg.Input.Path,
		Output:    cfg.Output.Path,
		Format:    format,
		Delimiter: cfg.Delimiter(),
		Header:    cfg.WriteHeader(),
		RowFilter: filter,
		Workers:   cfg.Parser.Workers,
	}, nil
}

// OutputPath returns the configured output or the input path with the
// extension of the format
func (o Options) OutputPath() string {
	if o.Output != "" {
		return o.Output
	}
	return strings.TrimSuffix(o.Input, filepath.Ext(o.Input)) + "." + string(o.Format)
}

// Archiver stores finished runs
type Archiver interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

// Result describes a finished conversion
type Result struct {
	RunID    string
	Source   string
	Output   string
	Format   export.Format
	Stats    menu.Stats
	Duration time.Duration
}

// Converter reads a menu document and writes the parsed menu
type Converter struct {
	opts    Options
	archive Archiver
	cache   *menu.ParseCache
	logger  *logging.Logger
}

// parseCacheSize bounds the memoized cell texts kept between runs
const parseCacheSize = 4096

// New creates a converter. archive may be nil. Parsed cell texts are
// cached for the lifetime of the converter.
func New(opts Options, archive Archiver, logger *logging.Logger) *Converter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Converter{
		opts:    opts,
		archive: archive,
		cache:   menu.NewParseCache(parseCacheSize),
		logger:  logger,
	}
}

// Run performs one conversion
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	if c.opts.Input == "" {
		return nil, apperrors.New("no input file configured").
			WithCode(apperrors.CodeMissingConfig).
			WithOperation("convert.Run")
	}

	runID := uuid.New().String()
	logger := c.logger.WithCorrelationID(runID)
	output := c.opts.OutputPath()
	timer := logger.StartTimer("convert").WithLevel(logging.LevelInfo)
	logger.Debug("conversion started", "input", c.opts.Input, "output", output, "format", string(c.opts.Format))

	doc, err := docx.Open(c.opts.Input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := menu.Build(doc.Tables, menu.Options{
		RowFilter: c.opts.RowFilter,
		Workers:   c.opts.Workers,
		Cache:     c.cache,
		Logger:    logger,
	})
	stats := menu.Summarize(tables)
	logger.Debug("tables parsed", "tables", stats.Tables, "cache_hit_rate", c.cache.HitRate())
	if stats.Rows == 0 {
		logger.Warn("no menu rows found", "input", c.opts.Input, "tables", stats.Tables)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := time.Now()
	err = writeAtomic(output, func(f *os.File) error {
		return export.Write(f, c.opts.Format, tables, export.Options{
			Delimiter:   c.opts.Delimiter,
			Header:      c.opts.Header,
			Source:      c.opts.Input,
			RunID:       runID,
			GeneratedAt: created,
		})
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:  runID,
		Source: c.opts.Input,
		Output: output,
		Format: c.opts.Format,
		Stats:  stats,
	}
	result.Duration = timer.Stop(
		"rows", stats.Rows,
		"cells", stats.Cells,
		"foods", stats.Foods,
		"output", output,
	)

	if c.archive != nil {
		run := &store.Run{
			ID:        runID,
			Source:    result.Source,
			Output:    result.Output,
			Format:    string(result.Format),
			CreatedAt: created,
			Duration:  result.Duration,
			Stats:     stats,
			Tables:    tables,
		}
		if err := c.archive.SaveRun(ctx, run); err != nil {
			return result, err
		}
		logger.Debug("run archived")
	}
	return result, nil
}

// writeAtomic writes to a temporary file next to path and renames it into
// place once write succeeded
func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ioError(err, "failed to create output directory", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError(err, "failed to create temporary file", path)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ioError(err, "failed to sync output", path)
	}
	if err := tmp.Close(); err != nil {
		return ioError(err, "failed to close output", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return ioError(err, "failed to set output permissions", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ioError(err, "failed to move output into place", path)
	}
	return nil
}

func ioError(err error, msg, path string) error {
	return apperrors.Wrap(err, msg).
		WithCode(apperrors.CodeIOError).
		WithOperation("convert.writeAtomic").
		WithDetail("path", path)
}
