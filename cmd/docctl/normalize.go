package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/docedit/internal/editor"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/dgallion1/docedit/internal/markup"
	"github.com/spf13/cobra"
)

var (
	normalizeWrite bool
	normalizeCheck bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [glob]...",
	Short: "Repair footnotes in markup files",
	Long: `Normalize runs the footnote correction pass over every markup file matching
the given patterns. Patterns support ** for recursive matches.

Without --write the normalized markup of a single file is printed to stdout;
with several files only a per-file summary is printed.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		files, err := expandGlobs(args)
		if err != nil {
			fatal("Invalid pattern", err)
		}
		if len(files) == 0 {
			fatal("No files matched", fmt.Errorf("%v", args))
		}

		ed := newEditor()
		dirty := 0
		for _, path := range files {
			out, report, err := normalizeFile(ed, path, normalizeWrite && !normalizeCheck)
			if err != nil {
				fatal("Failed to normalize "+path, err)
			}
			if report.Changed() {
				dirty++
			}
			if len(files) == 1 && !normalizeWrite && !normalizeCheck {
				fmt.Println(out)
				continue
			}
			fmt.Printf("%s: %s\n", path, summarize(report))
		}

		if normalizeCheck && dirty > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d files need normalizing\n", dirty, len(files))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().BoolVarP(&normalizeWrite, "write", "w", false, "Write the result back to the file")
	normalizeCmd.Flags().BoolVar(&normalizeCheck, "check", false, "Exit non-zero if any file would change")
}

// expandGlobs resolves each pattern against the filesystem, keeping the
// first occurrence of every path.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// normalizeFile normalizes one markup file and returns the result. The file
// is rewritten only when write is set and the pass changed something.
func normalizeFile(ed *editor.Editor, path string, write bool) (string, footnote.Report, error) {
	root, degraded, err := loadDocument(path)
	if err != nil {
		return "", footnote.Report{}, err
	}
	for _, d := range degraded {
		slog.Warn("degraded markup", "file", path, "tag", d.Tag, "reason", d.Reason)
	}

	out, report := ed.Normalize(root)
	serialized := markup.Serialize(out)
	if write && report.Changed() {
		if err := writeFile(path, []byte(serialized)); err != nil {
			return "", report, fmt.Errorf("write %s: %w", path, err)
		}
		slog.Info("normalized", "file", path, "summary", summarize(report))
	}
	return serialized, report, nil
}
