// Package complexity computes cyclomatic complexity for Python function
// units: one plus the number of branching constructs per unit, reduced to a
// per-file maximum and mean.
package complexity

import (
	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
)

// UnitComplexity is the complexity score of one function or method.
type UnitComplexity struct {
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Complexity int    `json:"complexity"`
}

// FileComplexity aggregates unit scores for one file. A file without
// function units has MaxCC 0 and MeanCC 0.
type FileComplexity struct {
	Units   []UnitComplexity
	MaxCC   int
	MeanCC  float64
	TotalCC int
}

// Analyze scores every function unit in the tree.
func Analyze(tree *pyparse.Tree) FileComplexity {
	functions := tree.Functions()

	units := make([]UnitComplexity, 0, len(functions))
	total := 0
	maxCC := 0

	for _, fn := range functions {
		cc := unitComplexity(fn.Node)

		units = append(units, UnitComplexity{
			Name:       fn.Name,
			StartLine:  fn.StartLine,
			EndLine:    fn.EndLine,
			Complexity: cc,
		})

		total += cc

		if cc > maxCC {
			maxCC = cc
		}
	}

	var meanCC float64
	if len(units) > 0 {
		meanCC = float64(total) / float64(len(units))
	}

	return FileComplexity{Units: units, MaxCC: maxCC, MeanCC: meanCC, TotalCC: total}
}
