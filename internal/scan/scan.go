// Package scan enumerates movie files under a root directory.
package scan

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mydehq/covermux/internal/types"
)

// Videos returns a lazy sequence of movie file paths under root whose
// extension is in formats (extensions listed without the leading dot,
// matched case-insensitively). Files whose name contains "sample" are
// skipped. The sequence yields paths in WalkDir order; walk errors are
// yielded through the error slot.
//
// Returns types.NotFoundError before any yield when root does not exist
// or is not a directory.
func Videos(root string, formats []string) (iter.Seq2[string, error], error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, types.NotFoundError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, types.NotFoundError{Path: root}
	}

	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield("", err) {
					return fs.SkipAll
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !isVideo(d.Name(), formats) {
				return nil
			}
			if !yield(path, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}, nil
}

// Count walks the sequence and returns how many paths it yields, ignoring
// per-entry walk errors. Used for pre-run reporting; the pipeline consumes
// a fresh sequence.
func Count(root string, formats []string) (int, error) {
	seq, err := Videos(root, formats)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, err := range seq {
		if err == nil {
			n++
		}
	}
	return n, nil
}

func isVideo(name string, formats []string) bool {
	if strings.Contains(strings.ToLower(name), "sample") {
		return false
	}
	ext := filepath.Ext(name)
	if len(ext) > 0 {
		ext = ext[1:] // Remove leading dot
	}
	ext = strings.ToLower(ext)
	return slices.ContainsFunc(formats, func(f string) bool {
		return strings.EqualFold(strings.TrimPrefix(f, "."), ext)
	})
}
