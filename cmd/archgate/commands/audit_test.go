package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/report"
)

const cleanPySource = `def add(a, b):
    return a + b
`

const branchyPySource = `def pick(flag):
    if flag:
        return 1
    return 0
`

const driftPySource = `import tkinter


def show():
    print("hello")
`

func writePython(t *testing.T, dir, name, source string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))

	return path
}

func executeAudit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	command := NewAuditCommand()

	var out, errOut bytes.Buffer

	command.SetOut(&out)
	command.SetErr(&errOut)
	command.SetArgs(args)

	err := command.Execute()

	return out.String(), err
}

func decodeDocument(t *testing.T, payload string) report.Document {
	t.Helper()

	var doc report.Document

	require.NoError(t, json.Unmarshal([]byte(payload), &doc))

	return doc
}

func TestAuditCommand_CleanFilePasses(t *testing.T) {
	t.Parallel()

	target := writePython(t, t.TempDir(), "ok.py", cleanPySource)

	out, err := executeAudit(t, target, "--format", "json", "-q")
	require.NoError(t, err)

	doc := decodeDocument(t, out)
	require.Equal(t, target, doc.Target)
	require.Equal(t, 0, doc.ExitCode)
	require.Nil(t, doc.Project)
	require.Len(t, doc.Files, 1)
	require.False(t, doc.Files[0].Failed)

	// The temp dir is not a git repository, so churn is unknown but never
	// fails the file.
	require.Nil(t, doc.Files[0].CCR)
	require.Contains(t, doc.Files[0].Reasons, audit.ReasonCCRUnknown)
}

func TestAuditCommand_DriftingProjectFailsVerdict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePython(t, dir, "ok.py", cleanPySource)
	writePython(t, dir, "gui.py", driftPySource)

	out, err := executeAudit(t, dir, "--format", "json", "-q", "--workers", "2")
	require.ErrorIs(t, err, ErrAuditFailed)

	doc := decodeDocument(t, out)
	require.Equal(t, 1, doc.ExitCode)
	require.NotNil(t, doc.Project)
	require.Equal(t, 2, doc.Project.TotalFiles)
	require.True(t, doc.Project.Failed)
	require.NotEmpty(t, doc.Project.PollutedFiles)

	var drifting *report.FileEntry

	for i := range doc.Files {
		if filepath.Base(doc.Files[i].Path) == "gui.py" {
			drifting = &doc.Files[i]
		}
	}

	require.NotNil(t, drifting)
	require.True(t, drifting.Failed)
	require.Contains(t, drifting.Reasons, audit.ReasonADF)
}

func TestAuditCommand_SingleFileBanner(t *testing.T) {
	t.Parallel()

	target := writePython(t, t.TempDir(), "ok.py", cleanPySource)

	out, err := executeAudit(t, target, "-q", "--no-color")
	require.NoError(t, err)
	require.Contains(t, out, "ARCHGATE ARCHITECTURAL AUDIT")
	require.Contains(t, out, "Verdict: [PASS]")
	require.Contains(t, out, "FINDING : Architecture is healthy and scalable.")
}

func TestAuditCommand_ProjectTableShowsVerdict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePython(t, dir, "gui.py", driftPySource)

	out, err := executeAudit(t, dir, "-q", "--no-color")
	require.ErrorIs(t, err, ErrAuditFailed)
	require.Contains(t, out, "ARCHGATE PROJECT AUDIT")
	require.Contains(t, out, "Project Verdict: [FAIL]")
	require.Contains(t, out, "Passing requires")
}

func TestAuditCommand_WritesSchemaValidReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePython(t, dir, "ok.py", cleanPySource)

	// The writer refuses paths inside the audited tree.
	outPath := filepath.Join(t.TempDir(), "report.json")

	_, err := executeAudit(t, dir, "--format", "json", "-q", "-o", outPath)
	require.NoError(t, err)

	data, err := report.ReadFile(outPath)
	require.NoError(t, err)

	verrs, err := report.ValidateDocument(data)
	require.NoError(t, err)
	require.Empty(t, verrs)
}

func TestAuditCommand_CompressedReportRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePython(t, dir, "ok.py", cleanPySource)

	outPath := filepath.Join(t.TempDir(), "report.json.lz4")

	_, err := executeAudit(t, dir, "--format", "json", "-q", "-o", outPath)
	require.NoError(t, err)

	data, err := report.ReadFile(outPath)
	require.NoError(t, err)

	doc := decodeDocument(t, string(data))
	require.Equal(t, dir, doc.Target)
	require.Equal(t, 0, doc.ExitCode)
}

func TestAuditCommand_PlotDirWritesDashboard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePython(t, dir, "ok.py", cleanPySource)

	plotDir := filepath.Join(dir, "plots")

	_, err := executeAudit(t, dir, "--format", "json", "-q", "--plot", plotDir)
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(plotDir, "audit.html"))
	require.NoError(t, err)
	require.NotEmpty(t, page)
}

func TestAuditCommand_MissingTargetIsOperationalError(t *testing.T) {
	t.Parallel()

	_, err := executeAudit(t, filepath.Join(t.TempDir(), "absent"), "-q")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAuditFailed)
}

func TestAuditCommand_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	target := writePython(t, t.TempDir(), "ok.py", cleanPySource)

	_, err := executeAudit(t, target, "--format", "html", "-q")
	require.ErrorIs(t, err, report.ErrUnsupportedFormat)
}

func TestAuditCommand_DiscoversStricterProjectGate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".archgate.toml"), "max_cc = 2\nproject_max_cc = 1\n")
	writePython(t, dir, "branchy.py", branchyPySource)

	out, err := executeAudit(t, dir, "--format", "json", "-q")
	require.ErrorIs(t, err, ErrAuditFailed)

	doc := decodeDocument(t, out)
	require.Equal(t, filepath.Join(dir, ".archgate.toml"), doc.ConfigSource)

	// CC 2 passes the per-file gate (strictly above 2 fails) but reaches
	// the project gate, which fails at the limit.
	require.Len(t, doc.Files, 1)
	require.False(t, doc.Files[0].Failed)
	require.NotNil(t, doc.Project)
	require.True(t, doc.Project.Failed)
	require.Contains(t, doc.Project.Reasons, audit.ReasonProjectMaxCC)
}

func TestAuditCommand_ExplicitConfigBypassesDiscovery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writePython(t, dir, "branchy.py", branchyPySource)

	configPath := filepath.Join(t.TempDir(), "strict.toml")
	writeFile(t, configPath, "max_cc = 1\nproject_max_cc = 1\n")

	out, err := executeAudit(t, target, "--format", "json", "-q", "-c", configPath)
	require.ErrorIs(t, err, ErrAuditFailed)

	doc := decodeDocument(t, out)
	require.Equal(t, configPath, doc.ConfigSource)
	require.Len(t, doc.Files, 1)
	require.True(t, doc.Files[0].Failed)
	require.Contains(t, doc.Files[0].Reasons, audit.ReasonMaxCC)
}

func TestExitCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ExitPassed)
	require.Equal(t, 1, ExitFailed)
	require.Equal(t, 2, ExitError)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
