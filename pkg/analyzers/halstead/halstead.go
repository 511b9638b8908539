// Package halstead derives Halstead metrics from operator and operand
// counts in a Python syntax tree. The scores are advisory: they inform the
// report but never participate in verdict predicates.
package halstead

import (
	"math"

	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
)

// Halstead formula constants.
const (
	// TimeConstant is the standard constant used in time-to-program estimation (18 seconds).
	TimeConstant = 18.0
	// BugConstant is the standard constant used in delivered bugs estimation.
	BugConstant = 3000.0
	// BugExponent is the exponent used in delivered bugs calculation.
	BugExponent = 2.0 / 3.0
	// DifficultyDivisor is used in the difficulty formula: n1/2 * (N2/n2).
	DifficultyDivisor = 2.0
)

// Metrics holds the Halstead measures for one file.
type Metrics struct {
	DistinctOperators int
	DistinctOperands  int
	TotalOperators    int
	TotalOperands     int

	Vocabulary      int
	Length          int
	EstimatedLength float64
	Volume          float64
	Difficulty      float64
	Effort          float64
	TimeToProgram   float64
	DeliveredBugs   float64
}

// Analyze counts operators and operands across the whole tree and derives
// the full Halstead measure set.
func Analyze(tree *pyparse.Tree) Metrics {
	operators := make(map[string]int)
	operands := make(map[string]int)

	collect(tree, tree.Root, operators, operands)

	m := Metrics{
		DistinctOperators: len(operators),
		DistinctOperands:  len(operands),
		TotalOperators:    sumCounts(operators),
		TotalOperands:     sumCounts(operands),
	}

	m.derive()

	return m
}

// derive fills the calculated measures from the four base counts.
func (m *Metrics) derive() {
	m.Vocabulary = m.DistinctOperators + m.DistinctOperands
	m.Length = m.TotalOperators + m.TotalOperands

	if m.DistinctOperators > 0 && m.DistinctOperands > 0 {
		m.EstimatedLength = float64(m.DistinctOperators)*math.Log2(float64(m.DistinctOperators)) +
			float64(m.DistinctOperands)*math.Log2(float64(m.DistinctOperands))
	}

	if m.Vocabulary > 0 {
		m.Volume = float64(m.Length) * math.Log2(float64(m.Vocabulary))
	}

	if m.DistinctOperands > 0 {
		m.Difficulty = (float64(m.DistinctOperators) / DifficultyDivisor) *
			(float64(m.TotalOperands) / float64(m.DistinctOperands))
	}

	m.Effort = m.Volume * m.Difficulty
	m.TimeToProgram = m.Effort / TimeConstant

	if m.Effort > 0 {
		m.DeliveredBugs = math.Pow(m.Effort, BugExponent) / BugConstant
	}
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}

	return total
}
