package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/etlap/internal/convert"
	"github.com/msto63/etlap/internal/watch"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

var watchCmd = &cobra.Command{
	Use:   "watch [input.docx]",
	Short: "Convert again whenever the menu document changes",
	Long: `Converts the document once and then again after every change, until
interrupted. Accepts the flags of convert.

Examples:
  etlap watch heti-menu.docx -o /srv/share/menu.csv
  etlap watch --archive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addConvertFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := convertOptions(cmd, args)
	if err != nil {
		return err
	}
	if opts.Input == "" {
		return apperrors.New("no input file configured").WithCode(apperrors.CodeMissingConfig)
	}

	archive, closeArchive, err := openArchive(cfg.Store.Enabled || convertArchive)
	if err != nil {
		return err
	}
	defer closeArchive()

	converter := convert.New(opts, archive, logger)
	onChange := func(ctx context.Context) error {
		result, err := converter.Run(ctx)
		if err != nil {
			return err
		}
		printResult(result)
		fmt.Println()
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := onChange(ctx); err != nil {
		// The document may be mid-save; keep watching
		logger.LogError("initial conversion failed", err)
	}

	return watch.New(opts.Input, cfg.Watch.Debounce.Duration, onChange, logger).Run(ctx)
}
