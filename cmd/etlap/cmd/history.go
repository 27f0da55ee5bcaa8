package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/etlap/internal/store"
)

var (
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived conversion runs",
	Long: `Lists the runs archived in the SQLite store, newest first.

Examples:
  etlap history
  etlap history show 3f2c...
  etlap history search gulyas
  etlap history delete 3f2c...`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the meals of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Fuzzy search archived food names",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 = all)")
}

func withStore(fn func(ctx context.Context, s *store.Store) error) error {
	s, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(context.Background(), s)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s *store.Store) error {
		runs, err := s.ListRuns(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println(mutedStyle.Render("no archived runs in " + cfg.Store.Path))
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %s\n",
				titleStyle.Render(r.ID),
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Source)
			fmt.Println(mutedStyle.Render(fmt.Sprintf("    %d rows, %d meals, %d foods -> %s (%s)",
				r.Stats.Rows, r.Stats.Cells, r.Stats.Foods, r.Output, r.Format)))
		}
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s *store.Store) error {
		run, err := s.LoadRun(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(run.Source))
		fmt.Println(field("Run", run.ID))
		fmt.Println(field("Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Println(field("Output", run.Output+" ("+run.Format+")"))

		for _, t := range run.Tables {
			for _, r := range t.Rows {
				fmt.Println(sectionStyle.Render(fmt.Sprintf("%s  (table %d)", r.Header, t.Index)))
				for _, c := range r.Cells {
					names := make([]string, len(c.Foods))
					for i, f := range c.Foods {
						names[i] = f.String()
					}
					label := c.Label
					if label == "" {
						label = "-"
					}
					line := field("  "+label, strings.Join(names, ", "))
					if c.Nutrient != nil {
						line += mutedStyle.Render(fmt.Sprintf("  %.0f kcal", c.Nutrient.Energy))
					}
					fmt.Println(line)
				}
			}
		}
		return nil
	})
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s *store.Store) error {
		matches, err := s.FindFoods(ctx, args[0], historyLimit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println(mutedStyle.Render("no matching foods"))
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%s %s\n",
				highlight(m.Name, m.MatchedIndexes),
				mutedStyle.Render(fmt.Sprintf("(%d runs)", m.Runs)))
		}
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s *store.Store) error {
		if err := s.DeleteRun(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("deleted " + args[0]))
		return nil
	})
}
