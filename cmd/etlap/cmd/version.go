package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/etlap/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("etlap v%s\n", info.Version)
		fmt.Printf("  Git Commit:    %s\n", info.GitCommit)
		fmt.Printf("  Build Date:    %s\n", info.BuildDate)
		fmt.Printf("  Go Version:    %s\n", info.GoVersion)
		fmt.Printf("  OS/Arch:       %s\n", info.Platform)
		fmt.Printf("  Export Schema: %s\n", version.ExportSchema)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
