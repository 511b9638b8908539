// Package lag flags deprecated-API usage in file text. Technical lag is a
// binary modernization signal: presence or absence, not density. It never
// fails a file on its own; only the project-level predicate consumes it.
package lag

import (
	"fmt"
	"regexp"

	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// Level is the binary technical-lag flag.
type Level string

// Lag levels.
const (
	Low  Level = "LOW"
	High Level = "HIGH"
)

// Instance is one legacy-API hit. Line is 1-based; Start and End are byte
// offsets of the match within the line.
type Instance struct {
	Line    int    `json:"line"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pattern string `json:"pattern"`
}

// Result holds the lag measurements for one file.
type Result struct {
	Level     Level
	Instances []Instance
}

// Scan tests every line against the legacy-API pattern set. Every matching
// line yields an evidence instance; any instance makes the level HIGH.
func Scan(source []byte, patterns []*regexp.Regexp) Result {
	res := Result{Level: Low}

	for i, line := range textutil.SplitLines(source) {
		for _, re := range patterns {
			loc := re.FindIndex(line)
			if loc == nil {
				continue
			}

			res.Instances = append(res.Instances, Instance{
				Line:    i + 1,
				Start:   loc[0],
				End:     loc[1],
				Pattern: re.String(),
			})

			break
		}
	}

	if len(res.Instances) > 0 {
		res.Level = High
	}

	return res
}

// Evidence renders the instances as "path:line" strings, the form reports
// and aggregation use.
func (r Result) Evidence(path string) []string {
	if len(r.Instances) == 0 {
		return nil
	}

	evidence := make([]string, 0, len(r.Instances))
	for _, inst := range r.Instances {
		evidence = append(evidence, fmt.Sprintf("%s:%d", path, inst.Line))
	}

	return evidence
}
