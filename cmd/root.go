package cmd

import (
	"github.com/dfbscan/dfbscan/analytics"
	"github.com/spf13/cobra"
)

var (
	verboseFlag bool
	Version     = "0.1.0"
	GitCommit   = "HEAD"
)

var rootCmd = &cobra.Command{
	Use:   "dfbscan",
	Short: "CFL-bounded, LLM-guided data-flow bug scanner",
	Long: `dfbscan combines a tree-sitter call graph with an LLM-driven
intra-procedural data-flow oracle to find reachability bugs (null-pointer
dereferences, use-after-free) and unreachability bugs (memory leaks) across
a repository, one source-to-sink path at a time.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics") //nolint:all
		verboseFlag, _ = cmd.Flags().GetBool("verbose")             //nolint:all
		analytics.LoadEnvFile()
		analytics.Init(disableMetrics)
		analytics.SetVersion(Version)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable metrics collection")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")
}
