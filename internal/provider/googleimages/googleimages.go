// Package googleimages searches for posters through the Google Custom
// Search JSON API in image mode.
package googleimages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mydehq/covermux/internal/provider"
	"github.com/mydehq/covermux/internal/types"
)

const name = "googleimages"

// Provider holds the API credentials and the query templates tried, in
// order, until one yields results.
type Provider struct {
	cfg    types.GoogleConfig
	client *http.Client
}

// New returns a configured provider. The API key and search engine ID are
// mandatory; covermux disables the provider when they are absent.
func New(cfg types.GoogleConfig, client *http.Client) (*Provider, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, fmt.Errorf("googleimages: api_key and cx are required (google.api_key/google.cx or GCS_DEVELOPER_KEY/GCS_CX)")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("googleimages: endpoint is required")
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 10
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return name }

// Search tries each query template in order and returns the first
// template's non-empty candidate list. Zero results across all templates
// is not an error; a failing API call is remembered and surfaced only if
// no template succeeds.
func (p *Provider) Search(ctx context.Context, q types.Query) ([]types.Candidate, error) {
	var lastErr error
	for _, tmpl := range p.cfg.Queries {
		query := renderQuery(tmpl, q)
		if query == "" {
			continue
		}

		candidates, err := p.search(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	if lastErr != nil {
		return nil, types.SearchError{Provider: name, Query: q.String(), Err: lastErr}
	}
	return nil, nil
}

// searchResponse mirrors the slice of the Custom Search response we read.
type searchResponse struct {
	Items []struct {
		Link  string `json:"link"`
		Mime  string `json:"mime"`
		Image struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image"`
	} `json:"items"`
}

func (p *Provider) search(ctx context.Context, query string) ([]types.Candidate, error) {
	params := url.Values{}
	params.Set("key", p.cfg.APIKey)
	params.Set("cx", p.cfg.CX)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", strconv.Itoa(p.cfg.NumResults))
	params.Set("fileType", "jpg")
	params.Set("imgSize", "xxlarge")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := provider.DoWithRetry(ctx, p.client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(result.Items))
	for i, item := range result.Items {
		if item.Link == "" {
			continue
		}
		candidates = append(candidates, types.Candidate{
			URL:      item.Link,
			Rank:     i,
			Provider: name,
			Width:    item.Image.Width,
			Height:   item.Image.Height,
		})
	}
	return candidates, nil
}

// renderQuery fills a query template with the movie title and year.
// Templates that need a year are skipped (empty result) when the query
// has none.
func renderQuery(tmpl string, q types.Query) string {
	if strings.Contains(tmpl, "{{YEAR}}") && q.Year == 0 {
		return ""
	}
	r := strings.NewReplacer(
		"{{TITLE}}", q.Title,
		"{{YEAR}}", strconv.Itoa(q.Year),
	)
	return strings.Join(strings.Fields(r.Replace(tmpl)), " ")
}
