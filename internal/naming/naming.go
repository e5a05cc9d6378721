// Package naming derives a searchable movie title and release year from a
// filename. Extraction is heuristic and best-effort: it never fails, it
// only degrades to the raw (separator-normalized) basename.
package naming

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Title is the parsed result: a cleaned display title and the release
// year, 0 when the filename carries none.
type Title struct {
	Name string
	Year int
}

// String renders "Name (Year)" or just "Name" when the year is unknown.
func (t Title) String() string {
	if t.Year > 0 {
		return t.Name + " (" + strconv.Itoa(t.Year) + ")"
	}
	return t.Name
}

var (
	// Parenthesized year, the strongest signal: "Movie (2009)".
	reYearParen = regexp.MustCompile(`\((19[0-9]{2}|20[0-9]{2})\)`)

	// Bare year preceded by a separator: "Movie.2009.1080p". The greedy
	// prefix makes the last in-range token win, so titles that start
	// with a number ("2012", "1917") keep it.
	reYearBare = regexp.MustCompile(`(.+)[._\s]\(?((19[0-9]{2}|20[0-9]{2}))\)?`)
)

// Release tag pattern, case-insensitive. The first known tag and
// everything after it is noise.
var reReleaseTags = regexp.MustCompile(
	`(?i)(^|[\s._\-])(` +
		`480p|720p|1080p|2160p|4K|UHD|` +
		`WEB-DL|WEBRip|BluRay|BRRip|BDRip|BD|DVDRip|HDTV|HDRip|CAM|TS|` +
		`x264|x265|HEVC|H\.?264|H\.?265|XviD|DivX|AV1|` +
		`AAC|AC3|DTS|DTS-HD|TrueHD|FLAC|EAC3|DD\+?|Atmos|MP3|` +
		`10bit|HDR|HDR10|HDR10\+|DV|DoVi|` +
		`Dual\.?Audio|MULTI|REMUX|PROPER|REPACK|LIMITED|EXTENDED|UNRATED|` +
		`INTERNAL|SUBBED|DUBBED|iNT|` +
		`NF|AMZN|DSNP|HMAX|ATVP` +
		`)([\s._\-]|$)`)

// reBrackets matches square-bracket groups like [SubGroup] or [1080p].
var reBrackets = regexp.MustCompile(`\[[^\]]*\]`)

var sepReplacer = strings.NewReplacer(".", " ", "_", " ", "-", " ")

// Parse extracts the title and year from a movie filename. The extension
// is stripped, the year token (parenthesized preferred, else the last
// bare in-range 4-digit token) is split off, bracketed groups and release
// tags are removed, and separators become spaces. Case is preserved.
// If stripping leaves nothing, the normalized basename is returned.
func Parse(basename string) Title {
	base := strings.TrimSuffix(basename, filepath.Ext(basename))

	raw, year := splitYear(base)
	name := cleanTitle(raw)
	if name == "" {
		name = collapse(sepReplacer.Replace(base))
	}
	return Title{Name: name, Year: year}
}

// splitYear returns the text before the year token and the year itself,
// or (base, 0) when no in-range year is present.
func splitYear(base string) (string, int) {
	if loc := reYearParen.FindAllStringSubmatchIndex(base, -1); loc != nil {
		last := loc[len(loc)-1]
		year, _ := strconv.Atoi(base[last[2]:last[3]])
		return base[:last[0]], year
	}
	if m := reYearBare.FindStringSubmatch(base); m != nil {
		year, _ := strconv.Atoi(m[2])
		return m[1], year
	}
	return base, 0
}

func cleanTitle(s string) string {
	s = stripBrackets(s)
	s = stripReleaseTags(s)
	return collapse(sepReplacer.Replace(s))
}

// stripReleaseTags removes the first matching release tag and everything
// after it.
func stripReleaseTags(s string) string {
	loc := reReleaseTags.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return strings.TrimSpace(s[:loc[0]])
}

// stripBrackets removes all [bracketed] content.
func stripBrackets(s string) string {
	return strings.TrimSpace(reBrackets.ReplaceAllString(s, ""))
}

// collapse squeezes whitespace runs into single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
