package main

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docedit/internal/markup"
	"github.com/spf13/cobra"
)

var (
	applyTx    string
	applyWrite bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Apply a transaction to a document",
	Long: `Apply reads a transaction from a YAML or JSON file and runs it against the
document through the editor pipeline, including the footnote pass.

Example transaction (YAML):

  steps:
    - op: delete
      path: [0]
      count: 1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		if applyTx == "" {
			fatal("Missing flag", fmt.Errorf("--tx is required"))
		}
		if applyWrite && !isMarkup(path) {
			fatal("Cannot write", fmt.Errorf("%s is not a markup file", path))
		}

		tx, err := readTransaction(applyTx)
		if err != nil {
			fatal("Failed to read transaction", err)
		}
		root, _, err := loadDocument(path)
		if err != nil {
			fatal("Failed to load document", err)
		}

		ed := newEditor()
		// Start from a consistent tree so the report only covers this edit.
		root, _ = ed.Normalize(root)
		res, err := ed.Apply(root, tx)
		if err != nil {
			fatal("Transaction rejected", err)
		}
		if res.Corrected {
			slog.Info("footnotes corrected", "summary", summarize(res.Footnotes))
		}

		out := markup.Serialize(res.Root)
		if applyWrite {
			if err := writeFile(path, []byte(out)); err != nil {
				fatal("Failed to write", err)
			}
			return
		}
		fmt.Println(out)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVar(&applyTx, "tx", "", "Transaction file (.yaml, .yml or .json)")
	applyCmd.Flags().BoolVarP(&applyWrite, "write", "w", false, "Write the result back to the file")
}
