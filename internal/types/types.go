// Package types defines the shared data structures used across covermux.
package types

import "fmt"

// MovieFile is one movie discovered by the scanner, enriched with the
// title and year inferred from its filename. Year is 0 when the filename
// carries no usable year token.
type MovieFile struct {
	Path  string
	Title string
	Year  int
}

// Query is a poster search request derived from a MovieFile.
type Query struct {
	Title string
	Year  int
}

// String renders the query the way it would be typed into a search box.
func (q Query) String() string {
	if q.Year > 0 {
		return fmt.Sprintf("%s %d", q.Title, q.Year)
	}
	return q.Title
}

// Candidate is a poster URL returned by a search provider, before any
// bytes have been downloaded. Width and Height are provider-reported and
// may be 0 when the provider does not know them.
type Candidate struct {
	URL      string
	Rank     int
	Provider string
	Width    int
	Height   int
}

// Cover is a downloaded and validated poster ready to be attached.
// Data is always JPEG; non-JPEG downloads are re-encoded by the fetcher.
type Cover struct {
	URL      string
	Rank     int
	Provider string
	Width    int
	Height   int
	MIME     string
	Data     []byte
}
