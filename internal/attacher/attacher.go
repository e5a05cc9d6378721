// Package attacher embeds poster images into movie containers using
// mkvmerge. Mutation is never in place: mkvmerge writes a sibling
// temporary file which replaces the original only after a clean exit, so
// a failed mux leaves the movie untouched.
package attacher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mydehq/covermux/internal/types"
)

const defaultBinary = "mkvmerge"

// MKVMerge drives the mkvmerge binary.
type MKVMerge struct {
	binary string
	logger *log.Logger
}

// New returns an attacher using cfg.Binary, falling back to "mkvmerge".
func New(cfg types.MuxConfig, logger *log.Logger) *MKVMerge {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultBinary
	}
	return &MKVMerge{binary: binary, logger: logger}
}

// Binary returns the configured tool name.
func (m *MKVMerge) Binary() string { return m.binary }

// IsAvailable returns true if the binary is found in $PATH.
func (m *MKVMerge) IsAvailable() bool {
	_, err := exec.LookPath(m.binary)
	return err == nil
}

// Version returns the tool's version line, for diagnostics.
func (m *MKVMerge) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, m.binary, "--version").Output()
	if err != nil {
		return "", types.MuxError{Binary: m.binary, ExitCode: exitCode(err), Err: err}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Attach embeds cover.Data into the movie at path as its cover.jpg
// attachment, dropping any attachments already present so covers never
// accumulate. Non-Matroska inputs are remuxed into a sibling .mkv that
// replaces the original file. The segment title is set when non-empty.
func (m *MKVMerge) Attach(ctx context.Context, path string, cover *types.Cover, title string) error {
	if _, err := exec.LookPath(m.binary); err != nil {
		return types.MuxError{Binary: m.binary, Err: err}
	}

	imgPath, err := writeTempCover(cover.Data)
	if err != nil {
		return err
	}
	defer os.Remove(imgPath)

	finalPath := outputPath(path)
	tmpOut, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(finalPath)+".covermux-*")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpPath := tmpOut.Name()
	tmpOut.Close()
	defer os.Remove(tmpPath)

	args := []string{
		"-o", tmpPath,
		"--attachment-name", "cover.jpg",
		"--attachment-mime-type", "image/jpeg",
		"--attach-file", imgPath,
	}
	if title != "" {
		args = append(args, "--title", title)
	}
	args = append(args, "--no-attachments", path)

	cmd := exec.CommandContext(ctx, m.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return types.MuxError{
			Binary:   m.binary,
			ExitCode: exitCode(err),
			Output:   strings.TrimSpace(string(out)),
			Err:      err,
		}
	}

	syncBestEffort(tmpPath)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	syncDirBestEffort(filepath.Dir(finalPath))

	if finalPath != path {
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove original after remux", "path", path, "error", err)
		}
	}
	return nil
}

// outputPath normalizes the container extension to .mkv; attachments are
// a Matroska feature, so avi/mp4 inputs get remuxed.
func outputPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".mkv") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".mkv"
}

// writeTempCover stages the poster bytes where mkvmerge can read them.
func writeTempCover(data []byte) (string, error) {
	f, err := os.CreateTemp("", "covermux-cover-*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp cover file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp cover file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp cover file: %w", err)
	}
	return f.Name(), nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func syncBestEffort(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}

func syncDirBestEffort(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
