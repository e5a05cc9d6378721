// Package pipeline sequences the per-file steps: extract a title, check
// for an existing cover, fetch a poster, attach it. Files are processed
// strictly one at a time, a failure is isolated to its file, and results
// are reported in scan order.
package pipeline

import (
	"context"
	"iter"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mydehq/covermux/internal/naming"
	"github.com/mydehq/covermux/internal/types"
)

// CoverSource resolves a movie query to a poster. Implemented by the
// fetcher; tests substitute deterministic fakes.
type CoverSource interface {
	Search(ctx context.Context, q types.Query) ([]types.Candidate, error)
	Fetch(ctx context.Context, q types.Query) (*types.Cover, error)
}

// Attacher embeds poster bytes into a container file. Implemented by the
// mkvmerge attacher; tests substitute deterministic fakes.
type Attacher interface {
	HasCover(ctx context.Context, path string) (bool, error)
	Attach(ctx context.Context, path string, cover *types.Cover, title string) error
}

// Options are the per-run switches.
type Options struct {
	DryRun bool // search and report only, never touch the attacher
	Force  bool // reprocess files that already have a cover
}

// Pipeline drives the per-file state machine.
type Pipeline struct {
	source   CoverSource
	attacher Attacher
	opts     Options
	logger   *log.Logger
}

// New wires a pipeline from its collaborators.
func New(source CoverSource, attacher Attacher, opts Options, logger *log.Logger) *Pipeline {
	return &Pipeline{source: source, attacher: attacher, opts: opts, logger: logger}
}

// Run processes every file the sequence yields, in order. Per-file
// failures are recorded and never abort the run; the only early exit is
// context cancellation, checked between files.
func (p *Pipeline) Run(ctx context.Context, files iter.Seq2[string, error]) (*Report, error) {
	report := &Report{}
	for path, err := range files {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if err != nil {
			p.logger.Warn("walk error", "error", err)
			continue
		}

		res := p.processFile(ctx, path)
		report.add(res)
		p.logResult(res)
	}
	return report, nil
}

// processFile walks one file through
// Pending → TitleExtracted → CoverFetched → Attached.
func (p *Pipeline) processFile(ctx context.Context, path string) Result {
	res := Result{File: types.MovieFile{Path: path}, Stage: StagePending}

	// Title extraction is best-effort and never fails.
	title := naming.Parse(filepath.Base(path))
	res.File.Title = title.Name
	res.File.Year = title.Year
	res.Stage = StageTitleExtracted
	p.logger.Info("processing", "file", filepath.Base(path), "title", title.String())

	q := types.Query{Title: title.Name, Year: title.Year}

	if p.opts.DryRun {
		candidates, err := p.source.Search(ctx, q)
		if err != nil {
			return res.fail(StageCoverFetched, err)
		}
		if len(candidates) == 0 {
			return res.fail(StageCoverFetched, types.SearchError{Query: q.String(), Message: "no results"})
		}
		res.CoverURL = candidates[0].URL
		res.Stage = StageCoverFetched
		res.Status = StatusPlanned
		return res
	}

	if !p.opts.Force {
		has, err := p.attacher.HasCover(ctx, path)
		if err != nil {
			// A probe hiccup should not skip the file; the attach step
			// will surface any real tool problem.
			p.logger.Debug("cover probe failed, proceeding", "file", filepath.Base(path), "error", err)
		} else if has {
			res.Status = StatusSkipped
			return res
		}
	}

	cover, err := p.source.Fetch(ctx, q)
	if err != nil {
		return res.fail(StageCoverFetched, err)
	}
	res.Stage = StageCoverFetched
	res.CoverURL = cover.URL
	res.CoverBytes = len(cover.Data)

	if err := p.attacher.Attach(ctx, path, cover, title.Name); err != nil {
		return res.fail(StageAttached, err)
	}
	res.Stage = StageAttached
	res.Status = StatusAttached
	return res
}

func (p *Pipeline) logResult(res Result) {
	base := filepath.Base(res.File.Path)
	switch res.Status {
	case StatusAttached:
		p.logger.Info("cover attached", "file", base, "poster", humanize.Bytes(uint64(res.CoverBytes)))
	case StatusPlanned:
		p.logger.Info("would attach", "file", base, "url", res.CoverURL)
	case StatusSkipped:
		p.logger.Info("cover already present", "file", base)
	case StatusFailed:
		p.logger.Error("failed", "file", base, "stage", res.Stage, "reason", res.Reason(), "error", res.Err)
	}
}
