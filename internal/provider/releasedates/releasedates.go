// Package releasedates finds posters on dvdsreleasedates.com. The site
// hosts poster scans under a predictable static path, so the provider
// first probes the direct URL and only falls back to scraping the search
// page when the probe misses.
package releasedates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/mydehq/covermux/internal/provider"
	"github.com/mydehq/covermux/internal/types"
	"golang.org/x/net/html"
)

const name = "releasedates"

// Provider probes poster URLs and scrapes search results on the
// configured site.
type Provider struct {
	baseURL string
	client  *http.Client
}

// New returns a provider rooted at cfg.BaseURL.
func New(cfg types.ReleaseDatesConfig, client *http.Client) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("releasedates: base_url is required")
	}
	return &Provider{baseURL: strings.TrimRight(cfg.BaseURL, "/"), client: client}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return name }

// Search probes the direct poster URLs (year-qualified first), then falls
// back to scraping the site search page for poster images. An empty
// result is not an error.
func (p *Provider) Search(ctx context.Context, q types.Query) ([]types.Candidate, error) {
	for _, posterURL := range p.posterURLs(q) {
		ok, err := p.probe(ctx, posterURL)
		if err != nil {
			return nil, types.SearchError{Provider: name, Query: q.String(), Err: err}
		}
		if ok {
			return []types.Candidate{{URL: posterURL, Rank: 0, Provider: name}}, nil
		}
	}

	candidates, err := p.scrapeSearch(ctx, q)
	if err != nil {
		return nil, types.SearchError{Provider: name, Query: q.String(), Err: err}
	}
	return candidates, nil
}

// posterURLs builds the direct poster URL guesses:
// /posters/800/<letter>/<slug>-<year>-movie-poster.jpg and the year-less
// variant. Titles starting with a digit live under the "0" letter bucket.
func (p *Provider) posterURLs(q types.Query) []string {
	slug := slugify(q.Title)
	if slug == "" {
		return nil
	}

	letter := "0"
	if first := []rune(slug)[0]; !unicode.IsDigit(first) {
		letter = string(first)
	}

	prefix := fmt.Sprintf("%s/posters/800/%s/", p.baseURL, url.PathEscape(letter))
	var urls []string
	if q.Year > 0 {
		urls = append(urls, prefix+url.PathEscape(fmt.Sprintf("%s-%d-movie-poster.jpg", slug, q.Year)))
	}
	urls = append(urls, prefix+url.PathEscape(slug+"-movie-poster.jpg"))
	return urls
}

// probe issues a HEAD request; a 200 means the poster exists.
func (p *Provider) probe(ctx context.Context, posterURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, posterURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := provider.DoWithRetry(ctx, p.client, req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// scrapeSearch fetches the site search page and collects <img> tags that
// point into the poster archive, in document order.
func (p *Provider) scrapeSearch(ctx context.Context, q types.Query) ([]types.Candidate, error) {
	searchURL := fmt.Sprintf("%s/search.php?searchStr=%s", p.baseURL, url.QueryEscape(q.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := provider.DoWithRetry(ctx, p.client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, err
	}

	var candidates []types.Candidate
	seen := make(map[string]bool)
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "img" {
			continue
		}
		src := attr(n, "src")
		if src == "" || !strings.Contains(src, "/posters/") {
			continue
		}
		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			continue
		}
		seen[abs] = true
		candidates = append(candidates, types.Candidate{
			URL:      abs,
			Rank:     len(candidates),
			Provider: name,
		})
	}
	return candidates, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// slugify joins the title words with dashes, preserving case, the way the
// site names its poster files.
func slugify(title string) string {
	return strings.Join(strings.Fields(title), "-")
}
