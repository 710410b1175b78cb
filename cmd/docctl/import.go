package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/docedit/internal/markup"
	"github.com/spf13/cobra"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Convert a file into editor markup",
	Long: `Import converts a .txt, .md, .html, .docx or .pdf file into a normalized
document and prints it as markup, or as the JSON node tree with --json.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, degraded, err := loadDocument(args[0])
		if err != nil {
			fatal("Failed to import", err)
		}
		for _, d := range degraded {
			slog.Warn("degraded markup", "tag", d.Tag, "reason", d.Reason)
		}

		out, report := newEditor().Normalize(root)
		slog.Debug("imported", "file", args[0], "footnotes", summarize(report))

		if importJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		fmt.Println(markup.Serialize(out))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output the node tree as JSON")
}
