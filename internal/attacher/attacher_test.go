package attacher

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mydehq/covermux/internal/types"
)

// writeStub installs a shell script named mkvmerge at the front of $PATH
// so Attach and HasCover run against controlled behavior.
func writeStub(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries require a POSIX shell")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mkvmerge"), []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newTestAttacher(t *testing.T) *MKVMerge {
	t.Helper()
	return New(types.MuxConfig{}, log.New(io.Discard))
}

func testCover() *types.Cover {
	return &types.Cover{MIME: "image/jpeg", Data: []byte("poster bytes")}
}

func writeMovie(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// argValue returns the argument following the given flag.
func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		t.Fatalf("flag %s missing from args %v", flag, args)
	}
	return args[i+1]
}

const successStub = `#!/bin/sh
printf '%s\n' "$@" > "$COVERMUX_TEST_ARGS"
out=""
prev=""
last=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
  last="$a"
done
printf 'MUXED:' > "$out"
cat "$last" >> "$out"
`

func TestAttach_ReplacesFileViaTemp(t *testing.T) {
	writeStub(t, successStub)
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("COVERMUX_TEST_ARGS", argsFile)

	dir := t.TempDir()
	movie := writeMovie(t, dir, "Dark City (1998).mkv", "ORIGINAL")

	m := newTestAttacher(t)
	if err := m.Attach(context.Background(), movie, testCover(), "Dark City"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	got, err := os.ReadFile(movie)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "MUXED:ORIGINAL" {
		t.Errorf("movie content = %q; want the muxed replacement", got)
	}

	// The tool wrote to a hidden sibling temp file, not to the movie.
	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("ReadFile args: %v", err)
	}
	args := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	tmpOut := argValue(t, args, "-o")
	if filepath.Dir(tmpOut) != dir || !strings.HasPrefix(filepath.Base(tmpOut), ".") {
		t.Errorf("-o target %q is not a hidden sibling of the movie", tmpOut)
	}
	if got := argValue(t, args, "--attachment-name"); got != "cover.jpg" {
		t.Errorf("--attachment-name = %q; want cover.jpg", got)
	}
	if got := argValue(t, args, "--attachment-mime-type"); got != "image/jpeg" {
		t.Errorf("--attachment-mime-type = %q; want image/jpeg", got)
	}
	if got := argValue(t, args, "--title"); got != "Dark City" {
		t.Errorf("--title = %q; want Dark City", got)
	}
	if !slices.Contains(args, "--no-attachments") {
		t.Errorf("args %v missing --no-attachments", args)
	}
	if last := args[len(args)-1]; last != movie {
		t.Errorf("input argument = %q; want %q", last, movie)
	}

	// No temp leftovers next to the movie.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("movie dir has %d entries; want only the movie", len(entries))
	}
}

func TestAttach_RemuxRenamesToMKV(t *testing.T) {
	writeStub(t, successStub)
	t.Setenv("COVERMUX_TEST_ARGS", filepath.Join(t.TempDir(), "args"))

	dir := t.TempDir()
	movie := writeMovie(t, dir, "Heat.avi", "AVIDATA")

	m := newTestAttacher(t)
	if err := m.Attach(context.Background(), movie, testCover(), "Heat"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if _, err := os.Stat(movie); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("original %s still present after remux", movie)
	}
	got, err := os.ReadFile(filepath.Join(dir, "Heat.mkv"))
	if err != nil {
		t.Fatalf("remuxed file missing: %v", err)
	}
	if string(got) != "MUXED:AVIDATA" {
		t.Errorf("remuxed content = %q", got)
	}
}

func TestAttach_FailureLeavesOriginalIntact(t *testing.T) {
	writeStub(t, `#!/bin/sh
echo "Error: container is corrupt"
exit 2
`)

	dir := t.TempDir()
	movie := writeMovie(t, dir, "Heat.mkv", "ORIGINAL")

	m := newTestAttacher(t)
	err := m.Attach(context.Background(), movie, testCover(), "Heat")

	var muxErr types.MuxError
	if !errors.As(err, &muxErr) {
		t.Fatalf("expected MuxError, got %T: %v", err, err)
	}
	if muxErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d; want 2", muxErr.ExitCode)
	}
	if !strings.Contains(muxErr.Output, "container is corrupt") {
		t.Errorf("Output = %q; want the tool's message", muxErr.Output)
	}

	got, err := os.ReadFile(movie)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "ORIGINAL" {
		t.Errorf("movie content = %q; a failed mux must not touch the original", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("movie dir has %d entries after failure; want only the movie", len(entries))
	}
}

func TestAttach_MissingBinary(t *testing.T) {
	m := New(types.MuxConfig{Binary: "covermux-no-such-tool"}, log.New(io.Discard))
	if m.IsAvailable() {
		t.Fatal("IsAvailable = true for a nonexistent binary")
	}

	err := m.Attach(context.Background(), "/tmp/whatever.mkv", testCover(), "")
	var muxErr types.MuxError
	if !errors.As(err, &muxErr) {
		t.Fatalf("expected MuxError, got %T: %v", err, err)
	}
}

func TestHasCover_WithStub(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    bool
		wantErr bool
	}{
		{
			name: "cover present",
			script: `#!/bin/sh
printf '%s' '{"attachments":[{"id":1,"file_name":"cover.jpg","content_type":"image/jpeg"}]}'
`,
			want: true,
		},
		{
			name: "no attachments",
			script: `#!/bin/sh
printf '%s' '{"attachments":[]}'
`,
			want: false,
		},
		{
			name: "identify failure",
			script: `#!/bin/sh
printf '%s' '{"errors":["unsupported container"]}'
exit 2
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeStub(t, tt.script)
			m := newTestAttacher(t)

			got, err := m.HasCover(context.Background(), "/tmp/whatever.mkv")
			if tt.wantErr {
				var muxErr types.MuxError
				if !errors.As(err, &muxErr) {
					t.Fatalf("expected MuxError, got %T: %v", err, err)
				}
				if !strings.Contains(muxErr.Output, "unsupported container") {
					t.Errorf("Output = %q; want the identify error", muxErr.Output)
				}
				return
			}
			if err != nil {
				t.Fatalf("HasCover failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasCover = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestVersion_WithStub(t *testing.T) {
	writeStub(t, `#!/bin/sh
printf 'mkvmerge v82.0 (Taxman) 64-bit\nsecond line\n'
`)
	m := newTestAttacher(t)
	got, err := m.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if got != "mkvmerge v82.0 (Taxman) 64-bit" {
		t.Errorf("Version = %q", got)
	}
}

func realJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

// TestAttach_Integration muxes a real MKV created with ffmpeg and checks
// the cover attachment with mkvmerge itself, twice to prove covers never
// accumulate. Skipped when ffmpeg or mkvmerge are not available.
func TestAttach_Integration(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found; skipping integration test")
	}
	m := newTestAttacher(t)
	if !m.IsAvailable() {
		t.Skip("mkvmerge not found; skipping integration test")
	}

	tmpDir := t.TempDir()
	mkvPath := filepath.Join(tmpDir, "Dark City (1998).mkv")
	ffmpegArgs := []string{
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d=1",
		"-map", "0:a", "-map", "1:v",
		"-c:v", "libx264", "-c:a", "aac", "-shortest",
		mkvPath, "-y", "-loglevel", "quiet",
	}
	if out, err := exec.Command("ffmpeg", ffmpegArgs...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg failed to create test MKV: %v\n%s", err, out)
	}

	cover := &types.Cover{MIME: "image/jpeg", Data: realJPEG(t)}
	ctx := context.Background()

	for run := 1; run <= 2; run++ {
		if err := m.Attach(ctx, mkvPath, cover, "Dark City"); err != nil {
			t.Fatalf("Attach run %d failed: %v", run, err)
		}
		has, err := m.HasCover(ctx, mkvPath)
		if err != nil {
			t.Fatalf("HasCover after run %d failed: %v", run, err)
		}
		if !has {
			t.Fatalf("no cover detected after run %d", run)
		}
	}

	out, err := exec.Command(m.Binary(), "-J", mkvPath).Output()
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	atts, err := ParseIdentify(out)
	if err != nil {
		t.Fatalf("ParseIdentify failed: %v", err)
	}
	if len(atts) != 1 || !atts[0].IsCover() {
		t.Errorf("attachments after two runs = %+v; want exactly one cover", atts)
	}
	t.Logf("✓ cover verified in MKV: %s (%s)", atts[0].FileName, atts[0].ContentType)
}
