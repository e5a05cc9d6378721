package fetcher

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
)

// jpegQuality is used when a non-JPEG download is re-encoded.
const jpegQuality = 95

// normalizeJPEG decodes the downloaded image and guarantees JPEG output.
// JPEG input is passed through untouched (only its header is read for the
// dimensions); PNG, WebP and GIF are decoded and re-encoded. Matroska
// players expect the cover attachment as cover.jpg, so everything funnels
// into that format.
func normalizeJPEG(data []byte, mime string) ([]byte, int, int, error) {
	switch baseMIME(mime) {
	case "image/jpeg":
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode jpeg: %w", err)
		}
		return data, cfg.Width, cfg.Height, nil

	case "image/png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode png: %w", err)
		}
		return encodeJPEG(img)

	case "image/webp":
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode webp: %w", err)
		}
		return encodeJPEG(img)

	case "image/gif":
		img, err := gif.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode gif: %w", err)
		}
		return encodeJPEG(img)

	default:
		// Unknown or missing content type: let the registered decoders
		// sniff the format.
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode image (%s): %w", mime, err)
		}
		return encodeJPEG(img)
	}
}

func encodeJPEG(img image.Image) ([]byte, int, int, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	bounds := img.Bounds()
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// baseMIME strips parameters like "; charset=..." from a content type.
func baseMIME(mime string) string {
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
