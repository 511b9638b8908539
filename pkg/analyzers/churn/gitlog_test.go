package churn

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecentTouches_OutsideRepositoryIsUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))

	log := NewExecHistoryLog()

	_, err := log.RecentTouches(context.Background(), path, 14*24*time.Hour)
	require.ErrorIs(t, err, ErrUnavailable)
}
