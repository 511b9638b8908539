// bench-audit measures audit throughput and heap usage across worker counts,
// for tuning --workers on large trees.
//
// Usage:
//
//	go run ./scripts/bench-audit --files 2000 --workers 1,2,4,8 \
//	  --profile-dir docs/profiles/audit
//
// Without --target a synthetic Python tree is generated and removed at the
// end. Churn is stubbed by default so the numbers isolate parse and analysis
// cost; pass --real-churn to shell out to git like a production run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/churn"
	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

const sourceTemplate = `def handler_%d(payload, retries):
    total = 0
    for item in payload:
        if item and retries:
            total += item
        elif retries > 1:
            total -= 1
    return total


def parse_%d(raw):
    return [int(tok) for tok in raw.split(",") if tok]
`

// stubHistory reports every file as untouched, keeping git out of the
// measurement.
type stubHistory struct{}

func (stubHistory) RecentTouches(_ context.Context, _ string, _ time.Duration) (int, error) {
	return 0, nil
}

func main() {
	target := flag.String("target", "", "Python tree to audit (default: generated)")
	fileCount := flag.Int("files", 1000, "Synthetic files to generate when no target is given")
	workersList := flag.String("workers", "1,2,4,8", "Comma-separated worker counts to measure")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	realChurn := flag.Bool("real-churn", false, "Shell out to git per file instead of stubbing churn")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	counts, err := parseWorkerCounts(*workersList)
	if err != nil {
		log.Fatalf("parse --workers: %v", err)
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	root := *target
	if root == "" {
		generated, cleanup := generateTree(*fileCount)
		defer cleanup()

		root = generated
	}

	if *cpuProfile {
		if *profileDir == "" {
			log.Fatal("--cpu-profile requires --profile-dir")
		}

		cpuFile, cpuErr := os.Create(filepath.Join(*profileDir, "cpu.prof"))
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}

		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("start cpu profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	var history churn.HistoryLog = stubHistory{}
	if *realChurn {
		history = churn.NewExecHistoryLog()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fmt.Printf("target=%s gomaxprocs=%d\n", root, runtime.GOMAXPROCS(0))

	for _, workers := range counts {
		pol := policy.Default()
		pol.Workers = workers

		engine := audit.NewEngine(pol, history, logger)

		runtime.GC()

		var before runtime.MemStats

		runtime.ReadMemStats(&before)

		start := time.Now()

		rep, runErr := engine.Run(context.Background(), root)
		if runErr != nil {
			log.Fatalf("audit run (workers=%d): %v", workers, runErr)
		}

		elapsed := time.Since(start)

		var after runtime.MemStats

		runtime.ReadMemStats(&after)

		files := len(rep.Files)
		rate := float64(files) / elapsed.Seconds()

		fmt.Printf("workers=%-3d files=%-6d elapsed=%-12s files/sec=%-8.1f heap_delta=%+d KiB\n",
			workers, files, elapsed.Round(time.Millisecond), rate,
			(int64(after.HeapAlloc)-int64(before.HeapAlloc))/1024)

		if *profileDir != "" {
			writeHeapProfile(*profileDir, workers)
		}
	}
}

func parseWorkerCounts(raw string) ([]int, error) {
	var counts []int

	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("worker count %q: %w", part, err)
		}

		if n < 1 {
			return nil, fmt.Errorf("worker count %d must be positive", n)
		}

		counts = append(counts, n)
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("no worker counts in %q", raw)
	}

	return counts, nil
}

func generateTree(count int) (string, func()) {
	dir, err := os.MkdirTemp("", "archgate-bench-")
	if err != nil {
		log.Fatalf("create bench tree: %v", err)
	}

	for i := range count {
		source := fmt.Sprintf(sourceTemplate, i, i)
		path := filepath.Join(dir, fmt.Sprintf("module_%04d.py", i))

		if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
			log.Fatalf("write bench file: %v", err)
		}
	}

	return dir, func() { _ = os.RemoveAll(dir) }
}

func writeHeapProfile(dir string, workers int) {
	path := filepath.Join(dir, fmt.Sprintf("heap-workers-%d.prof", workers))

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("create heap profile: %v", err)
	}
	defer file.Close()

	runtime.GC()

	if err := pprof.WriteHeapProfile(file); err != nil {
		log.Fatalf("write heap profile: %v", err)
	}
}
