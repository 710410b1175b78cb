package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/docedit/internal/editor"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	idPrefix string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Keep rich-text documents and their footnotes consistent",
	Long: `docctl normalizes, edits, imports and exports documents in the editor's
markup. Every change goes through the same footnote correction pass the
server uses, so references, bodies and numbering always agree.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&idPrefix, "id-prefix", footnote.DefaultIDPrefix, "Prefix for generated footnote ids")
}

func newEditor() *editor.Editor {
	log := slog.Default()
	return editor.New(log, footnote.New(log.With("component", "footnote"), idPrefix))
}
