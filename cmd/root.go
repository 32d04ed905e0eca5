package cmd

import (
	"fmt"
	"os"

	"github.com/itsmostafa/goconsole/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goconsole",
	Short: "Embeddable interactive JavaScript console",
	Long: `goconsole is an embeddable interactive code console: a scrolling transcript
of prompts, echoed input and output, backed by a goja worker that executes
submitted source statement by statement and can be interrupted mid-run.`,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("goconsole %s\n", version.String()))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
