package types

import (
	"errors"
	"fmt"
)

// NotFoundError reports a root path that does not exist or is not a
// directory. It is fatal: no files are processed when the scanner
// returns it.
type NotFoundError struct {
	Path string
	Err  error
}

func (e NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("movie path %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("movie path %q not found", e.Path)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// SearchError reports a failed poster search: provider/API errors,
// non-success statuses, or zero results across all providers.
type SearchError struct {
	Provider string // empty when no single provider is at fault
	Query    string
	Message  string
	Err      error
}

func (e SearchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("search %q via %s: %s", e.Query, e.Provider, msg)
	}
	return fmt.Sprintf("search %q: %s", e.Query, msg)
}

func (e SearchError) Unwrap() error { return e.Err }

// DownloadError reports that a selected candidate's image bytes could not
// be retrieved, or that no candidate survived validation.
type DownloadError struct {
	URL     string
	Message string
	Err     error
}

func (e DownloadError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.URL == "" {
		return fmt.Sprintf("download: %s", msg)
	}
	return fmt.Sprintf("download %s: %s", e.URL, msg)
}

func (e DownloadError) Unwrap() error { return e.Err }

// MuxError reports a failed mkvmerge invocation: the binary is missing
// from $PATH or it exited non-zero. Output holds the tool's trailing
// combined output when available.
type MuxError struct {
	Binary   string
	ExitCode int
	Output   string
	Err      error
}

func (e MuxError) Error() string {
	if e.Err != nil && e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Binary, e.Err)
	}
	return fmt.Sprintf("%s exited %d: %s", e.Binary, e.ExitCode, e.Output)
}

func (e MuxError) Unwrap() error { return e.Err }

// ErrRateLimited is wrapped by SearchError when a provider gives up after
// exhausting its 429 backoff budget.
var ErrRateLimited = errors.New("rate limit exceeded after retries")
