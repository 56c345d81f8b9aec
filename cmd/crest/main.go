package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crest/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "crest",
	Short: "Crest resolution middle-end",
	Long:  `crest rewrites resolved Crest call sites into positional calls against synthesized wrappers`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(wrapCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "crest.toml", "pass configuration file")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
