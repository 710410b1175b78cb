package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docedit/internal/editor"
	"github.com/dgallion1/docedit/internal/footnote"
	"github.com/dgallion1/docedit/internal/importer"
	"github.com/dgallion1/docedit/internal/markup"
	"github.com/dgallion1/docedit/internal/stats"
)

// Worker processes a single import job.
type Worker struct {
	editor  *editor.Editor
	opts    importer.Options
	latency *stats.Latency
	log     *slog.Logger
}

// NewWorker creates a worker. latency may be nil.
func NewWorker(ed *editor.Editor, opts importer.Options, latency *stats.Latency, log *slog.Logger) *Worker {
	return &Worker{editor: ed, opts: opts, latency: latency, log: log}
}

// Process imports the job's file and normalizes its footnotes.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Import
	job.SetStatus(StatusImporting, "importing")
	imp, err := importer.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail("importing", err)
		return
	}

	res, err := imp.Import(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("import failed", "error", err)
		job.Fail("importing", fmt.Errorf("import: %w", err))
		return
	}
	if err := ctx.Err(); err != nil {
		job.Fail("importing", err)
		return
	}
	for _, d := range res.Degraded {
		log.Warn("degraded markup", "error", d)
	}

	// Phase 2: Normalize footnotes
	job.SetStatus(StatusNormalizing, "normalizing")
	root, report := w.editor.Normalize(res.Doc)
	if err := footnote.Verify(root); err != nil {
		log.Error("footnotes inconsistent after normalization", "error", err)
		job.Fail("normalizing", err)
		return
	}

	degraded := make([]string, 0, len(res.Degraded))
	for _, d := range res.Degraded {
		degraded = append(degraded, d.Error())
	}
	job.mu.Lock()
	if job.Title == "" {
		job.Title = res.Title
	}
	job.mu.Unlock()

	job.Complete(&Output{
		Doc:       root,
		Markup:    markup.Serialize(root),
		Footnotes: report,
		Degraded:  degraded,
	})
	if w.latency != nil {
		w.latency.Since(start)
	}
	log.Info("import complete",
		"blocks", len(root.Children),
		"footnotes_changed", report.Changed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
