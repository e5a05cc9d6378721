package pipeline

import (
	"errors"
	"fmt"

	"github.com/mydehq/covermux/internal/types"
)

// Status is a file's terminal outcome.
type Status string

const (
	StatusAttached Status = "attached" // cover embedded
	StatusPlanned  Status = "planned"  // dry-run: reported only
	StatusSkipped  Status = "skipped"  // cover already present
	StatusFailed   Status = "failed"
)

// Stage tracks a file through the per-file state machine. On success it
// holds the terminal state; on failure, the stage that raised.
type Stage string

const (
	StagePending        Stage = "pending"
	StageTitleExtracted Stage = "title-extracted"
	StageCoverFetched   Stage = "cover-fetched"
	StageAttached       Stage = "attached"
)

// Result is the per-file outcome, reported in scan order.
type Result struct {
	File       types.MovieFile
	Status     Status
	Stage      Stage
	CoverURL   string
	CoverBytes int
	Err        error
}

func (r Result) fail(stage Stage, err error) Result {
	r.Stage = stage
	r.Status = StatusFailed
	r.Err = err
	return r
}

// Reason classifies a failure by its error kind.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	var (
		searchErr   types.SearchError
		downloadErr types.DownloadError
		muxErr      types.MuxError
	)
	switch {
	case errors.As(r.Err, &searchErr):
		return "search failed"
	case errors.As(r.Err, &downloadErr):
		return "download failed"
	case errors.As(r.Err, &muxErr):
		return "mux failed"
	default:
		return "failed"
	}
}

// Report aggregates a run's results.
type Report struct {
	Results  []Result
	Attached int
	Planned  int
	Skipped  int
	Failed   int
	Bytes    int64 // total poster bytes attached
}

func (rep *Report) add(r Result) {
	rep.Results = append(rep.Results, r)
	switch r.Status {
	case StatusAttached:
		rep.Attached++
		rep.Bytes += int64(r.CoverBytes)
	case StatusPlanned:
		rep.Planned++
	case StatusSkipped:
		rep.Skipped++
	case StatusFailed:
		rep.Failed++
	}
}

// Succeeded counts files that reached their terminal goal (attached, or
// planned under dry-run).
func (rep *Report) Succeeded() int { return rep.Attached + rep.Planned }

// Total counts all processed files.
func (rep *Report) Total() int { return len(rep.Results) }

// Summary renders the one-line run outcome.
func (rep *Report) Summary() string {
	s := fmt.Sprintf("%d succeeded, %d failed", rep.Succeeded(), rep.Failed)
	if rep.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", rep.Skipped)
	}
	return s
}
