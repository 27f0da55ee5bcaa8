package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/msto63/etlap/internal/convert"
	"github.com/msto63/etlap/internal/export"
	"github.com/msto63/etlap/internal/store"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

var (
	convertOutput    string
	convertFormat    string
	convertDelimiter string
	convertNoHeader  bool
	convertRowFilter string
	convertWorkers   int
	convertArchive   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [input.docx]",
	Short: "Convert a menu document",
	Long: `Reads the tables of a menu document and writes one record per meal.

The first row of every table holds the meal labels. Below it, each food row
is followed by a row with the nutrient values of the meals above.

Examples:
  etlap convert heti-menu.docx
  etlap convert heti-menu.docx -o menu.json
  etlap convert --format yaml --row-filter '^(Hétfő|Kedd)' heti-menu.docx
  etlap convert --archive   # input and output from config.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConvertFlags(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (default: input name with format extension)")
	cmd.Flags().StringVarP(&convertFormat, "format", "f", "", "output format (csv, json, yaml)")
	cmd.Flags().StringVarP(&convertDelimiter, "delimiter", "d", "", "CSV delimiter")
	cmd.Flags().BoolVar(&convertNoHeader, "no-header", false, "omit the CSV header line")
	cmd.Flags().StringVar(&convertRowFilter, "row-filter", "", "keep only rows whose header matches this regular expression")
	cmd.Flags().IntVarP(&convertWorkers, "workers", "w", 0, "rows parsed concurrently")
	cmd.Flags().BoolVar(&convertArchive, "archive", false, "archive the run in the SQLite store")
}

// convertOptions merges the configuration with the command line
func convertOptions(cmd *cobra.Command, args []string) (convert.Options, error) {
	opts, err := convert.OptionsFromConfig(cfg)
	if err != nil {
		return opts, err
	}

	if len(args) > 0 {
		opts.Input = args[0]
		// The configured output belongs to the configured input
		opts.Output = ""
	}
	if convertOutput != "" {
		opts.Output = convertOutput
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("format"):
		if opts.Format, err = export.ParseFormat(convertFormat); err != nil {
			return opts, err
		}
	case opts.Output != "":
		if f, ok := export.FormatFromPath(opts.Output); ok {
			opts.Format = f
		}
	}
	if flags.Changed("delimiter") {
		if utf8.RuneCountInString(convertDelimiter) != 1 {
			return opts, apperrors.Newf("delimiter must be a single character: %q", convertDelimiter).
				WithCode(apperrors.CodeInvalidInput)
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(convertDelimiter)
	}
	if convertNoHeader {
		opts.Header = false
	}
	if flags.Changed("row-filter") {
		if convertRowFilter == "" {
			opts.RowFilter = nil
		} else if opts.RowFilter, err = regexp.Compile(convertRowFilter); err != nil {
			return opts, apperrors.Wrap(err, "invalid row filter").WithCode(apperrors.CodeInvalidInput)
		}
	}
	if convertWorkers > 0 {
		opts.Workers = convertWorkers
	}
	return opts, nil
}

// openArchive opens the store when archiving is enabled. The returned
// archiver is nil otherwise.
func openArchive(enabled bool) (convert.Archiver, func(), error) {
	if !enabled {
		return nil, func() {}, nil
	}
	s, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := convertOptions(cmd, args)
	if err != nil {
		return err
	}

	archive, closeArchive, err := openArchive(cfg.Store.Enabled || convertArchive)
	if err != nil {
		return err
	}
	defer closeArchive()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := convert.New(opts, archive, logger).Run(ctx)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(r *convert.Result) {
	fmt.Println(okStyle.Render("✓ ") + titleStyle.Render(r.Output))
	fmt.Println(field("Source", r.Source))
	fmt.Println(field("Format", string(r.Format)))
	fmt.Println(field("Rows", fmt.Sprintf("%d (%d tables)", r.Stats.Rows, r.Stats.Tables)))
	fmt.Println(field("Meals", fmt.Sprintf("%d, %d with nutrients", r.Stats.Cells, r.Stats.Nutrients)))
	fmt.Println(field("Foods", fmt.Sprintf("%d", r.Stats.Foods)))
	fmt.Println(field("Duration", r.Duration.String()))
	fmt.Println(mutedStyle.Render("run " + r.RunID))
}
