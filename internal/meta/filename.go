package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Identity holds identity metadata parsed from a file name.
// Zero values mean the field was absent from the name.
type Identity struct {
	Title   string
	Year    int
	Season  int
	Episode int
}

var (
	// Patterns that terminate a title: a 4-digit run, an SxxEyy token,
	// a bracketed tag, or a parenthesized tag
	titleCutPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}`),
		regexp.MustCompile(`[Ss]\d{2}[Ee]\d{2}`),
		regexp.MustCompile(`\[.*?\]`),
		regexp.MustCompile(`\(.*?\)`),
	}

	yearPattern    = regexp.MustCompile(`(19|20)\d{2}`)
	seasonPattern  = regexp.MustCompile(`[Ss](\d{1,2})`)
	episodePattern = regexp.MustCompile(`[Ee](\d{1,3})`)
)

// ParseFilename derives title, year, season and episode from a file name.
// The four extractions are independent scans over the stem, not a single
// structured parse: a name without a season/episode token simply yields
// absent season/episode even when a year is present (movies).
func ParseFilename(name string) Identity {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	id := Identity{Title: extractTitle(stem)}

	if m := yearPattern.FindString(stem); m != "" {
		id.Year, _ = strconv.Atoi(m)
	}
	if m := seasonPattern.FindStringSubmatch(stem); m != nil {
		id.Season, _ = strconv.Atoi(m[1])
	}
	if m := episodePattern.FindStringSubmatch(stem); m != nil {
		id.Episode, _ = strconv.Atoi(m[1])
	}

	return id
}

// extractTitle truncates the stem at the earliest terminator match and
// normalizes separators to spaces
func extractTitle(stem string) string {
	cut := len(stem)
	for _, p := range titleCutPatterns {
		if loc := p.FindStringIndex(stem); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}

	title := stem[:cut]
	title = strings.ReplaceAll(title, ".", " ")
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title)
}
