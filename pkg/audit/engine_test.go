package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/churn"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/lag"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

// fixedHistory serves every file the same touch count, standing in for git.
type fixedHistory struct {
	touches int
	err     error
}

func (h *fixedHistory) RecentTouches(_ context.Context, _ string, _ time.Duration) (int, error) {
	return h.touches, h.err
}

func newTestEngine(history churn.HistoryLog) *Engine {
	return NewEngine(policy.Default(), history, slog.New(slog.DiscardHandler))
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRun_SingleCleanFilePasses(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "app.py", "def add(a, b):\n    return a + b\n")

	engine := newTestEngine(&fixedHistory{touches: 1})

	report, err := engine.Run(context.Background(), target)
	require.NoError(t, err)

	require.Equal(t, target, report.Target)
	require.Equal(t, 0, report.ExitCode)
	require.Nil(t, report.Project)
	require.False(t, report.GeneratedAt.IsZero())

	require.Len(t, report.Files, 1)

	verdict := report.Files[0]
	assert.False(t, verdict.Failed)
	assert.Equal(t, 1, verdict.Metrics.MaxCC)
	require.NotNil(t, verdict.Metrics.CCR)
	assert.InDelta(t, 0.1, *verdict.Metrics.CCR, 1e-9)
	assert.Equal(t, lag.Low, verdict.Metrics.TechnicalLag)
	assert.Positive(t, verdict.Metrics.MaintainabilityIndex)
}

func TestRun_RejectsNonPythonFile(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "notes.txt", "just words\n")

	engine := newTestEngine(&fixedHistory{})

	_, err := engine.Run(context.Background(), target)
	require.ErrorIs(t, err, ErrNotPython)
}

func TestRun_MissingTargetErrors(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&fixedHistory{})

	_, err := engine.Run(context.Background(), filepath.Join(t.TempDir(), "absent.py"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat target")
}

func TestRun_ProjectKeepsCollectionOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "b.py", "x = 1\n")
	writeSource(t, root, "a.py", "y = 2\n")

	engine := newTestEngine(&fixedHistory{touches: 1})

	report, err := engine.Run(context.Background(), root)
	require.NoError(t, err)

	require.NotNil(t, report.Project)
	require.Equal(t, 2, report.Project.TotalFiles)
	require.Equal(t, 0, report.ExitCode)

	require.Len(t, report.Files, 2)
	assert.Equal(t, filepath.Join(root, "a.py"), report.Files[0].Metrics.Path)
	assert.Equal(t, filepath.Join(root, "b.py"), report.Files[1].Metrics.Path)
}

func TestRun_EmptyProjectErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "README.md", "# notes\n")

	engine := newTestEngine(&fixedHistory{})

	_, err := engine.Run(context.Background(), root)
	require.ErrorIs(t, err, ErrNoFiles)
}

func TestRun_UnparseableFileFailsButProjectRecovers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "broken.py", "def broken(:\n")
	writeSource(t, root, "ok.py", "def fine():\n    return 1\n")

	engine := newTestEngine(&fixedHistory{touches: 1})

	report, err := engine.Run(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.Files, 2)

	broken := report.Files[0]
	require.True(t, broken.Failed)
	require.Equal(t, []string{ReasonUnparseable}, broken.Reasons)
	require.True(t, broken.Metrics.Unparseable)

	ok := report.Files[1]
	require.False(t, ok.Failed)

	// One rotten file does not sink the project gate on its own.
	require.False(t, report.Project.Failed)
	require.Equal(t, 0, report.ExitCode)
	require.Equal(t, 1, report.Project.MaxCC)
	require.InDelta(t, 1.0, report.Project.MeanCC, 1e-9)
}

func TestRun_BinaryContentIsUnparseable(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "blob.py", "x = 1\x00\x01\x02")

	engine := newTestEngine(&fixedHistory{touches: 1})

	report, err := engine.Run(context.Background(), target)
	require.NoError(t, err)

	require.True(t, report.Files[0].Metrics.Unparseable)
	require.Equal(t, []string{ReasonUnparseable}, report.Files[0].Reasons)
	require.Equal(t, 1, report.ExitCode)
}

func TestRun_ChurnUnavailableLeavesRatioUnknown(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "app.py", "x = 1\n")

	engine := newTestEngine(&fixedHistory{err: churn.ErrUnavailable})

	report, err := engine.Run(context.Background(), target)
	require.NoError(t, err)

	verdict := report.Files[0]
	require.Nil(t, verdict.Metrics.CCR)
	require.False(t, verdict.Failed)
	require.Equal(t, []string{ReasonCCRUnknown}, verdict.Reasons)
	require.Equal(t, 0, report.ExitCode)
}

func TestRun_HotFileFailsChurnGate(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "app.py", "x = 1\n")

	engine := newTestEngine(&fixedHistory{touches: 100})

	report, err := engine.Run(context.Background(), target)
	require.NoError(t, err)

	verdict := report.Files[0]
	require.True(t, verdict.Failed)
	require.Equal(t, []string{ReasonCCR}, verdict.Reasons)
	require.NotNil(t, verdict.Metrics.CCR)
	require.InDelta(t, 1.0, *verdict.Metrics.CCR, 1e-9)
	require.Equal(t, 1, report.ExitCode)
}

func TestRun_DriftingFileFailsGate(t *testing.T) {
	t.Parallel()

	target := writeSource(t, t.TempDir(), "gui.py", "import tkinter\nprint('x')\n")

	engine := newTestEngine(&fixedHistory{})

	report, err := engine.Run(context.Background(), target)
	require.NoError(t, err)

	verdict := report.Files[0]
	require.True(t, verdict.Failed)
	require.Equal(t, []string{ReasonADF}, verdict.Reasons)
	require.InDelta(t, 1.0, verdict.Metrics.ADF, 1e-9)
}

func TestRun_LegacyAPIGatesProjectNotFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "app.py", "import os\nvalue = os.path.join('a', 'b')\n")

	engine := newTestEngine(&fixedHistory{})

	// Alone, the file reports its lag but still passes.
	fileReport, err := engine.Run(context.Background(), path)
	require.NoError(t, err)

	verdict := fileReport.Files[0]
	require.False(t, verdict.Failed)
	require.Equal(t, lag.High, verdict.Metrics.TechnicalLag)
	require.Equal(t, []string{path + ":2"}, verdict.Metrics.LagInstances)

	// In a project audit the same file trips the global gate.
	projectReport, err := engine.Run(context.Background(), root)
	require.NoError(t, err)

	require.Equal(t, lag.High, projectReport.Project.GlobalLag)
	require.True(t, projectReport.Project.Failed)
	require.Contains(t, projectReport.Project.Reasons, ReasonProjectLag)
	require.Equal(t, 1, projectReport.ExitCode)
}

func TestRun_CancelledContextInterruptsProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "a.py", "x = 1\n")
	writeSource(t, root, "b.py", "y = 2\n")

	engine := newTestEngine(&fixedHistory{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, root)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "audit interrupted")
}
