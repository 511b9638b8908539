// Package drift scans file text for illegal layer-violation patterns
// (presentation and I/O calls in business-logic files) and reduces the
// matches to a density score. Density, not a raw count: a fixed number of
// violations must score lower in a larger file.
package drift

import (
	"regexp"

	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// Match is one illegal-pattern hit. Line is 1-based; Start and End are byte
// offsets of the match within the line.
type Match struct {
	Line    int    `json:"line"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pattern string `json:"pattern"`
}

// Result holds the drift measurements for one file.
type Result struct {
	Matches       []Match
	MatchingLines int
	NonBlankLines int
	Density       float64
}

// Scan tests every non-blank line against the pattern set. Density is
// matching lines over non-blank lines; a file with no non-blank lines has
// density 0. A line matching several patterns counts once, attributed to
// the first pattern in policy order. Blank lines contribute to neither the
// numerator nor the denominator, so blank padding never shifts the score.
func Scan(source []byte, patterns []*regexp.Regexp) Result {
	var res Result

	for i, line := range textutil.SplitLines(source) {
		if textutil.IsBlank(line) {
			continue
		}

		res.NonBlankLines++

		for _, re := range patterns {
			loc := re.FindIndex(line)
			if loc == nil {
				continue
			}

			res.Matches = append(res.Matches, Match{
				Line:    i + 1,
				Start:   loc[0],
				End:     loc[1],
				Pattern: re.String(),
			})
			res.MatchingLines++

			break
		}
	}

	if res.NonBlankLines > 0 {
		res.Density = float64(res.MatchingLines) / float64(res.NonBlankLines)
	}

	return res
}
