package complexity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
)

func analyzeSource(t *testing.T, source string) FileComplexity {
	t.Helper()

	tree, err := pyparse.Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	return Analyze(tree)
}

func TestAnalyze_LinearFunctionScoresBase(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, "def add(a, b):\n    return a + b\n")

	require.Len(t, fc.Units, 1)
	require.Equal(t, "add", fc.Units[0].Name)
	require.Equal(t, 1, fc.Units[0].Complexity)
	require.Equal(t, 1, fc.MaxCC)
	require.InDelta(t, 1.0, fc.MeanCC, 1e-9)
	require.Equal(t, 1, fc.TotalCC)
}

func TestAnalyze_BranchesAndLoopsCount(t *testing.T) {
	t.Parallel()

	// if + elif + for + while = 4 decisions; else adds no path.
	fc := analyzeSource(t, `def busy(items, flag):
    if flag:
        total = 0
    elif items:
        total = 1
    else:
        total = 2
    for item in items:
        while total:
            total -= 1
    return total
`)

	require.Equal(t, 5, fc.MaxCC)
}

func TestAnalyze_BooleanOperatorsCount(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, "def gate(a, b, c):\n    return a and b or c\n")
	require.Equal(t, 3, fc.MaxCC)
}

func TestAnalyze_TernaryCounts(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, "def pick(flag):\n    return 1 if flag else 2\n")
	require.Equal(t, 2, fc.MaxCC)
}

func TestAnalyze_ComprehensionGuardCounts(t *testing.T) {
	t.Parallel()

	// The comprehension iteration itself is not a decision; its guard is.
	fc := analyzeSource(t, "def keep(items):\n    return [v for v in items if v]\n")
	require.Equal(t, 2, fc.MaxCC)
}

func TestAnalyze_ExceptClausesCount(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, `def load(path):
    try:
        return open(path)
    except OSError:
        return None
    except ValueError:
        return None
`)

	require.Equal(t, 3, fc.MaxCC)
}

func TestAnalyze_MatchArmsCount(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, `def route(code):
    match code:
        case 200:
            return "ok"
        case _:
            return "error"
`)

	require.Equal(t, 3, fc.MaxCC)
}

func TestAnalyze_NestedFunctionIsSeparateUnit(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, `def outer():
    def inner(flag):
        if flag:
            return 1
        return 0
    return inner
`)

	require.Len(t, fc.Units, 2)
	require.Equal(t, "outer", fc.Units[0].Name)
	require.Equal(t, 1, fc.Units[0].Complexity)
	require.Equal(t, "outer.inner", fc.Units[1].Name)
	require.Equal(t, 2, fc.Units[1].Complexity)
	require.Equal(t, 2, fc.MaxCC)
	require.Equal(t, 3, fc.TotalCC)
	require.InDelta(t, 1.5, fc.MeanCC, 1e-9)
}

func TestAnalyze_ModuleLevelBranchesIgnored(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, `if True:
    x = 1


def plain():
    return 1
`)

	require.Equal(t, 1, fc.MaxCC)
	require.Equal(t, 1, fc.TotalCC)
}

func TestAnalyze_NoUnits(t *testing.T) {
	t.Parallel()

	fc := analyzeSource(t, "x = 1\n")

	require.Empty(t, fc.Units)
	require.Equal(t, 0, fc.MaxCC)
	require.Zero(t, fc.MeanCC)
	require.Equal(t, 0, fc.TotalCC)
}
