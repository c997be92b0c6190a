package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags "-X github.com/envctl/envctl/internal/cli.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("envctl %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
