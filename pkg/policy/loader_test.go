package policy

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func markRepositoryRoot(t *testing.T, dir string) {
	t.Helper()

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDiscover_NearestFileWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	rootPolicy := writePolicyFile(t, root, "max_cc = 12\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	nestedPolicy := writePolicyFile(t, nested, "max_cc = 15\n")

	found, err := Discover(nested)
	require.NoError(t, err)
	require.Equal(t, nestedPolicy, found)

	found, err = Discover(filepath.Join(root, "a"))
	require.NoError(t, err)
	require.Equal(t, rootPolicy, found)
}

func TestDiscover_FileTargetSearchesItsDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	policyPath := writePolicyFile(t, root, "max_cc = 12\n")

	target := filepath.Join(root, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	found, err := Discover(target)
	require.NoError(t, err)
	require.Equal(t, policyPath, found)
}

func TestDiscover_StopsAtRepositoryRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writePolicyFile(t, outer, "max_cc = 12\n")

	repo := filepath.Join(outer, "repo")
	src := filepath.Join(repo, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	markRepositoryRoot(t, repo)

	// The policy above the repository root must stay invisible.
	found, err := Discover(src)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestDiscover_PolicyAtRepositoryRootApplies(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()

	repo := filepath.Join(outer, "repo")
	src := filepath.Join(repo, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	markRepositoryRoot(t, repo)

	policyPath := writePolicyFile(t, repo, "max_cc = 12\n")

	found, err := Discover(src)
	require.NoError(t, err)
	require.Equal(t, policyPath, found)
}

func TestDiscover_MissingTargetErrors(t *testing.T) {
	t.Parallel()

	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat target")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	pol, err := Load("", root, discardLogger())
	require.NoError(t, err)

	require.Equal(t, DefaultMaxCC, pol.MaxCC)
	require.InDelta(t, DefaultADFThreshold, pol.ADFThreshold, 1e-9)
	require.Equal(t, DefaultProjectMaxCC, pol.ProjectMaxCC)
	require.Empty(t, pol.Source)
}

func TestLoad_DiscoveredFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	policyPath := writePolicyFile(t, root, "max_cc = 12\nproject_max_cc = 4\nworkers = 3\n")

	pol, err := Load("", root, discardLogger())
	require.NoError(t, err)

	require.Equal(t, 12, pol.MaxCC)
	require.Equal(t, 4, pol.ProjectMaxCC)
	require.Equal(t, 3, pol.Workers)
	require.Equal(t, policyPath, pol.Source)

	// Keys absent from the file keep their defaults.
	require.InDelta(t, DefaultCCRThreshold, pol.CCRThreshold, 1e-9)
	require.Equal(t, DefaultChurnBaseline, pol.ChurnBaseline)
}

func TestLoad_ExplicitPathBypassesDiscovery(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, "max_cc = 12\n")

	elsewhere := t.TempDir()
	explicit := filepath.Join(elsewhere, "strict.toml")
	require.NoError(t, os.WriteFile(explicit, []byte("max_cc = 3\nproject_max_cc = 2\n"), 0o644))

	pol, err := Load(explicit, root, discardLogger())
	require.NoError(t, err)

	require.Equal(t, 3, pol.MaxCC)
	require.Equal(t, 2, pol.ProjectMaxCC)
	require.Equal(t, explicit, pol.Source)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	_, err := Load(filepath.Join(root, "absent.toml"), root, discardLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "read policy")
}

func TestLoad_MalformedFileIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, "max_cc = [\n")

	_, err := Load("", root, discardLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "read policy")
}

func TestLoad_InvalidThresholdIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, "max_cc = -3\n")

	_, err := Load("", root, discardLogger())
	require.ErrorIs(t, err, ErrInvalidMaxCC)
	require.Contains(t, err.Error(), "validate policy")
}

func TestLoad_FileGateBelowProjectGateIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)

	// Lowering max_cc under the default project gate leaves the merged policy
	// inconsistent. The loader must refuse it rather than audit with it.
	writePolicyFile(t, root, "max_cc = 7\n")

	_, err := Load("", root, discardLogger())
	require.ErrorIs(t, err, ErrInvalidProjectMaxCC)
}

func TestLoad_PatternOverridesReplaceDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, `illegal_patterns = ['eval\(']
legacy_api_patterns = ['urllib2']
excluded_dirs = ['build']
`)

	pol, err := Load("", root, discardLogger())
	require.NoError(t, err)

	require.Equal(t, []string{`eval\(`}, pol.IllegalPatterns)
	require.Equal(t, []string{"urllib2"}, pol.LegacyAPIPatterns)
	require.Len(t, pol.IllegalMatchers(), 1)
	require.True(t, pol.IllegalMatchers()[0].MatchString("eval(x)"))
	require.True(t, pol.IsExcludedDir("build"))
	require.False(t, pol.IsExcludedDir("__pycache__"))
}

func TestLoad_UncompilablePatternIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, `illegal_patterns = ['[']
`)

	_, err := Load("", root, discardLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "compile illegal pattern")
}

func TestLoad_WarnsOnUnknownKeys(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, "max_cc = 12\nunknown_knob = true\n")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	pol, err := Load("", root, logger)
	require.NoError(t, err)
	require.Equal(t, 12, pol.MaxCC)

	require.Contains(t, buf.String(), "ignoring unknown policy keys")
	require.Contains(t, buf.String(), "unknown_knob")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	root := t.TempDir()
	markRepositoryRoot(t, root)
	writePolicyFile(t, root, "max_cc = 12\n")

	t.Setenv("ARCHGATE_MAX_CC", "15")

	pol, err := Load("", root, discardLogger())
	require.NoError(t, err)
	require.Equal(t, 15, pol.MaxCC)
}
