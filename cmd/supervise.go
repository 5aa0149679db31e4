package cmd

import (
	"github.com/spf13/cobra"

	"text2phenotype.com/gst/logger"
)

var superviseCmd = &cobra.Command{
	Use:   "supervise -- executable [args...]",
	Short: "Run a process and report its panics as structured logs",
	Long: `Run executable, forward its JSON log lines to stdout and turn a Go panic on its
stderr into one error log entry. Exits with the child's exit code.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger.WrapProcess(args[0], args[1:]...)
	},
}

func init() {
	rootCmd.AddCommand(superviseCmd)
}
