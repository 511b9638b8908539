// Package maintidx computes the maintainability index on the 0-100 scale.
// Advisory only: the score appears in reports with its customary 20+ floor
// but never participates in verdict predicates.
package maintidx

import (
	"math"

	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// Formula constants for the SEI maintainability index variant.
const (
	baseScore      = 171.0
	volumeWeight   = 5.2
	ccWeight       = 0.23
	slocWeight     = 16.2
	commentWeight  = 50.0
	commentScale   = 2.46
	normalizeScale = 100.0
	maxScore       = 100.0
)

// commentMarker starts a Python comment line.
const commentMarker = '#'

// Score computes the maintainability index from the file's Halstead volume,
// total cyclomatic complexity, source lines of code (non-blank), and comment
// percentage:
//
//	MI = clamp((171 - 5.2 ln V - 0.23 CC - 16.2 ln SLOC + 50 sin sqrt(2.46 rad(C))) * 100/171, 0, 100)
//
// Files with no volume or no code score 100 by convention.
func Score(halsteadVolume float64, totalComplexity, sloc int, commentPercent float64) float64 {
	if halsteadVolume <= 0 || sloc <= 0 {
		return maxScore
	}

	commentRadians := commentPercent * math.Pi / 180
	raw := baseScore -
		volumeWeight*math.Log(halsteadVolume) -
		ccWeight*float64(totalComplexity) -
		slocWeight*math.Log(float64(sloc)) +
		commentWeight*math.Sin(math.Sqrt(commentScale*commentRadians))

	normalized := raw * normalizeScale / baseScore

	return math.Min(math.Max(normalized, 0), maxScore)
}

// CommentPercent returns the share of non-blank lines that are comment
// lines, as a percentage. Only full-line comments count; trailing comments
// on code lines do not.
func CommentPercent(source []byte) float64 {
	lines := textutil.SplitLines(source)

	nonBlank := 0
	comments := 0

	for _, line := range lines {
		if textutil.IsBlank(line) {
			continue
		}

		nonBlank++

		trimmed := trimLeadingSpace(line)
		if len(trimmed) > 0 && trimmed[0] == commentMarker {
			comments++
		}
	}

	if nonBlank == 0 {
		return 0
	}

	return float64(comments) / float64(nonBlank) * normalizeScale
}

func trimLeadingSpace(line []byte) []byte {
	for i, b := range line {
		if b != ' ' && b != '\t' {
			return line[i:]
		}
	}

	return nil
}
