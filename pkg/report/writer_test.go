package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFile_PlainJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.json")

	size, err := WriteFile(passingFileReport(), path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), size)
	require.True(t, len(data) > 0 && data[len(data)-1] == '\n')

	verrs, err := ValidateDocument(data)
	require.NoError(t, err)
	require.Empty(t, verrs)

	var doc Document

	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "app.py", doc.Target)
}

func TestWriteFile_CompressedRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plainPath := filepath.Join(dir, "plain.json")
	framedPath := filepath.Join(dir, "framed.json.lz4")

	rep := failingProjectReport()

	_, err := WriteFile(rep, plainPath)
	require.NoError(t, err)

	size, err := WriteFile(rep, framedPath)
	require.NoError(t, err)
	require.Positive(t, size)

	plain, err := ReadFile(plainPath)
	require.NoError(t, err)

	unframed, err := ReadFile(framedPath)
	require.NoError(t, err)

	require.Equal(t, plain, unframed)
}

func TestWriteFile_RejectsOutputInsideDirTarget(t *testing.T) {
	t.Parallel()

	target := t.TempDir()

	rep := failingProjectReport()
	rep.Target = target

	_, err := WriteFile(rep, filepath.Join(target, "report.json"))
	require.ErrorIs(t, err, ErrOutputInsideTarget)

	_, err = WriteFile(rep, filepath.Join(target, "sub", "report.json"))
	require.ErrorIs(t, err, ErrOutputInsideTarget)
}

func TestWriteFile_RejectsOverwritingFileTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	rep := passingFileReport()
	rep.Target = target

	_, err := WriteFile(rep, target)
	require.ErrorIs(t, err, ErrOutputInsideTarget)

	// A sibling of a single-file target is fine.
	_, err = WriteFile(rep, filepath.Join(dir, "report.json"))
	require.NoError(t, err)
}

func TestReadFile_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read report")
}
