package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/docedit/internal/editor"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Normalize markup files as they change",
	Long: `Watch keeps every markup file under dir normalized. Each write to a file
matching --pattern is followed by a footnote pass, and the file is rewritten
when the pass changed something.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !doublestar.ValidatePathPattern(watchPattern) {
			fatal("Invalid pattern", fmt.Errorf("%q", watchPattern))
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := watch(ctx, newEditor(), args[0], watchPattern); err != nil {
			fatal("Watch failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "**/*.html", "Files to normalize, relative to dir")
}

// watch blocks until ctx is done.
func watch(ctx context.Context, ed *editor.Editor, dir, pattern string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}
	slog.Info("watching", "dir", dir, "pattern", pattern)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(watcher, ed, dir, pattern, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", "error", err)
		}
	}
}

func handleEvent(watcher *fsnotify.Watcher, ed *editor.Editor, dir, pattern string, event fsnotify.Event) {
	slog.Debug("event received", "name", event.Name, "op", event.Op.String())
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := addRecursive(watcher, event.Name); err != nil {
				slog.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
		}
		return
	}
	if !matches(dir, pattern, event.Name) {
		return
	}

	// Our own rewrite triggers another event, which finds nothing to change.
	if _, _, err := normalizeFile(ed, event.Name, true); err != nil {
		slog.Warn("normalize failed", "file", event.Name, "error", err)
	}
}

// matches reports whether path, taken relative to dir, matches pattern.
// Temporary files from our own atomic writes never match.
func matches(dir, pattern, path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".docctl-") {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	ok, err := doublestar.PathMatch(pattern, rel)
	return err == nil && ok
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
