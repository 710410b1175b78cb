package main

import (
	"fmt"

	"github.com/dgallion1/docedit/internal/export"
	"github.com/spf13/cobra"
)

var markdownCmd = &cobra.Command{
	Use:   "markdown [file]",
	Short: "Export a document as Markdown",
	Long:  `Markdown renders a document as Markdown, with footnotes as [^n] references and definitions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, _, err := loadDocument(args[0])
		if err != nil {
			fatal("Failed to load document", err)
		}
		out, _ := newEditor().Normalize(root)
		md, err := export.Markdown(out)
		if err != nil {
			fatal("Failed to export", err)
		}
		fmt.Print(md)
	},
}

func init() {
	rootCmd.AddCommand(markdownCmd)
}
