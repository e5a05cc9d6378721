// Package fetcher turns a movie query into downloaded, validated poster
// bytes. It consults the search providers in priority order and walks
// their candidates in rank order; the first candidate that downloads and
// passes the poster rules wins.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mydehq/covermux/internal/provider"
	"github.com/mydehq/covermux/internal/types"
)

// Fetcher searches and downloads poster images.
type Fetcher struct {
	providers []provider.Provider
	client    *http.Client
	userAgent string
	rules     types.PosterConfig
	logger    *log.Logger
}

// New wires a fetcher from resolved providers and the shared HTTP client.
func New(providers []provider.Provider, client *http.Client, userAgent string, rules types.PosterConfig, logger *log.Logger) *Fetcher {
	return &Fetcher{
		providers: providers,
		client:    client,
		userAgent: userAgent,
		rules:     rules,
		logger:    logger,
	}
}

// Search queries providers in priority order and returns the first
// non-empty candidate list. When every provider comes back empty the
// result is a types.SearchError; when every provider fails, the last
// failure is returned.
func (f *Fetcher) Search(ctx context.Context, q types.Query) ([]types.Candidate, error) {
	var lastErr error
	for _, p := range f.providers {
		candidates, err := p.Search(ctx, q)
		if err != nil {
			f.logger.Debug("provider search failed", "provider", p.Name(), "query", q.String(), "error", err)
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			f.logger.Debug("provider returned candidates", "provider", p.Name(), "count", len(candidates))
			return candidates, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, types.SearchError{Query: q.String(), Message: "no results from any provider"}
}

// Fetch searches and downloads the first usable candidate: downloadable,
// decodable, and acceptable under the poster rules. The returned cover is
// always JPEG.
func (f *Fetcher) Fetch(ctx context.Context, q types.Query) (*types.Cover, error) {
	candidates, err := f.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	var lastErr error
	rejected := 0
	for _, c := range candidates {
		// Skip candidates the provider already knows are too small.
		if c.Width > 0 && c.Height > 0 && !f.rules.Acceptable(c.Width, c.Height) {
			f.logger.Debug("candidate rejected by reported size", "url", c.URL, "width", c.Width, "height", c.Height)
			rejected++
			continue
		}

		data, mime, err := f.download(ctx, c.URL)
		if err != nil {
			f.logger.Debug("candidate download failed", "url", c.URL, "error", err)
			lastErr = err
			continue
		}

		jpegData, width, height, err := normalizeJPEG(data, mime)
		if err != nil {
			f.logger.Debug("candidate not decodable", "url", c.URL, "mime", mime, "error", err)
			rejected++
			continue
		}
		if !f.rules.Acceptable(width, height) {
			f.logger.Debug("candidate rejected by poster rules", "url", c.URL, "width", width, "height", height)
			rejected++
			continue
		}

		f.logger.Debug("poster selected",
			"url", c.URL, "provider", c.Provider, "rank", c.Rank,
			"size", humanize.Bytes(uint64(len(jpegData))), "dimensions", fmt.Sprintf("%dx%d", width, height))
		return &types.Cover{
			URL:      c.URL,
			Rank:     c.Rank,
			Provider: c.Provider,
			Width:    width,
			Height:   height,
			MIME:     "image/jpeg",
			Data:     jpegData,
		}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, types.DownloadError{
		Message: fmt.Sprintf("no usable candidate (%d rejected by poster rules)", rejected),
	}
}

// download retrieves the image bytes. Single attempt: a failed candidate
// is skipped, not retried.
func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", types.DownloadError{URL: imageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", types.DownloadError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", types.DownloadError{URL: imageURL, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", types.DownloadError{URL: imageURL, Err: err}
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}
