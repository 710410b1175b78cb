package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/docedit/internal/outline"
	"github.com/spf13/cobra"
)

var (
	outlineJSON      bool
	outlineMinTokens int
)

var outlineCmd = &cobra.Command{
	Use:   "outline [file]",
	Short: "List a document's sections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, _, err := loadDocument(args[0])
		if err != nil {
			fatal("Failed to load document", err)
		}
		sections := outline.Build(root, outline.Config{MinTokens: outlineMinTokens})

		if outlineJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(sections); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		for _, s := range sections {
			fmt.Println(formatSection(s))
		}
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "Output in JSON format")
	outlineCmd.Flags().IntVar(&outlineMinTokens, "min-tokens", 0, "Drop untitled sections smaller than this")
}

func formatSection(s outline.Section) string {
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	indent := strings.Repeat("  ", max(s.Level-1, 0))
	line := fmt.Sprintf("%s%s  [%s] ~%d tokens", indent, title, s.Path, s.Tokens)
	if len(s.Footnotes) > 0 {
		line += fmt.Sprintf(", %d footnotes", len(s.Footnotes))
	}
	return line
}
