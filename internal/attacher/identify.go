package attacher

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mydehq/covermux/internal/types"
)

// identifyOutput mirrors the slice of `mkvmerge -J` JSON we read.
type identifyOutput struct {
	Attachments []struct {
		ID          int    `json:"id"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
	} `json:"attachments"`
}

// Attachment describes one attachment inside a container file.
type Attachment struct {
	ID          int
	FileName    string
	ContentType string
}

// IsCover reports whether the attachment looks like embedded cover art:
// named cover.<ext> with an image content type.
func (a Attachment) IsCover() bool {
	name := strings.ToLower(a.FileName)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return stem == "cover" && strings.HasPrefix(a.ContentType, "image/")
}

// ParseIdentify converts raw `mkvmerge -J` output into attachments.
// Exported so tests can exercise the parsing without the binary.
func ParseIdentify(data []byte) ([]Attachment, error) {
	var raw identifyOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse identify output: %w", err)
	}
	atts := make([]Attachment, len(raw.Attachments))
	for i, a := range raw.Attachments {
		atts[i] = Attachment{ID: a.ID, FileName: a.FileName, ContentType: a.ContentType}
	}
	return atts, nil
}

// HasCover runs `mkvmerge -J` on the file and reports whether a cover
// attachment is already present. Non-Matroska containers identify with no
// attachments and report false.
func (m *MKVMerge) HasCover(ctx context.Context, path string) (bool, error) {
	if _, err := exec.LookPath(m.binary); err != nil {
		return false, types.MuxError{Binary: m.binary, Err: err}
	}

	cmd := exec.CommandContext(ctx, m.binary, "-J", path)
	out, err := cmd.Output()
	if err != nil {
		return false, types.MuxError{Binary: m.binary, ExitCode: exitCode(err), Output: identifyErrors(out), Err: err}
	}

	atts, err := ParseIdentify(out)
	if err != nil {
		return false, err
	}
	for _, a := range atts {
		if a.IsCover() {
			return true, nil
		}
	}
	return false, nil
}

// identifyErrors pulls the "errors" strings out of a failed identify run
// (mkvmerge still emits JSON on exit 2).
func identifyErrors(out []byte) string {
	var raw struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(out, &raw); err != nil || len(raw.Errors) == 0 {
		return strings.TrimSpace(string(out))
	}
	return strings.Join(raw.Errors, "; ")
}
