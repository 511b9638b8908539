package churn

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// gitBinary is the executable looked up on PATH.
const gitBinary = "git"

// hoursPerDay converts the window duration into git's --since argument.
const hoursPerDay = 24

// ExecHistoryLog reads the history by shelling out to git log and counting
// its text output. Any subprocess failure, including a context timeout,
// degrades to ErrUnavailable so a slow or absent git never hangs a run.
type ExecHistoryLog struct {
	gitPath string
}

// NewExecHistoryLog creates an ExecHistoryLog using git from PATH.
func NewExecHistoryLog() *ExecHistoryLog {
	return &ExecHistoryLog{gitPath: gitBinary}
}

// RecentTouches counts non-blank lines of
//
//	git log --since=<N> days ago --format=format: --name-only -- <path>
//
// run from the file's directory. A file with no history at all is reported
// unavailable rather than zero: untracked files are not under version
// control, while a tracked file that merely went quiet inside the window
// measures a true zero.
func (l *ExecHistoryLog) RecentTouches(ctx context.Context, path string, window time.Duration) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve %s: %w", ErrUnavailable, path, err)
	}

	days := int(window.Hours() / hoursPerDay)

	out, err := l.run(ctx, abs,
		"log",
		fmt.Sprintf("--since=%d days ago", days),
		"--format=format:",
		"--name-only",
		"--", abs,
	)
	if err != nil {
		return 0, err
	}

	touches := countNonBlankLines(out)
	if touches > 0 {
		return touches, nil
	}

	// Distinguish "tracked but quiet" from "never committed".
	any, err := l.run(ctx, abs, "log", "-1", "--format=format:", "--name-only", "--", abs)
	if err != nil {
		return 0, err
	}

	if countNonBlankLines(any) == 0 {
		return 0, fmt.Errorf("%w: %s has no history", ErrUnavailable, path)
	}

	return 0, nil
}

func (l *ExecHistoryLog) run(ctx context.Context, abs string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, l.gitPath, args...)
	cmd.Dir = filepath.Dir(abs)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: git log for %s: %w", ErrUnavailable, abs, err)
	}

	return out, nil
}

func countNonBlankLines(out []byte) int {
	return textutil.CountNonBlank(textutil.SplitLines(out))
}
