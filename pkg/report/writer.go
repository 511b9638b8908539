package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/archgate/pkg/audit"
)

const (
	lz4Ext         = ".lz4"
	reportFileMode = 0o644
)

// ErrOutputInsideTarget rejects report paths that would land inside the
// audited tree. Writing there would change the tree the next run scans.
var ErrOutputInsideTarget = errors.New("output path is inside the audited tree")

// WriteFile serializes rep as an indented JSON document at path. A .lz4
// suffix wraps the payload in an LZ4 frame. Returns the on-disk size.
func WriteFile(rep *audit.Report, path string) (int64, error) {
	if err := checkOutsideTarget(path, rep.Target); err != nil {
		return 0, err
	}

	payload, err := json.MarshalIndent(BuildDocument(rep), "", "  ")
	if err != nil {
		return 0, fmt.Errorf("json marshal: %w", err)
	}

	payload = append(payload, '\n')

	if filepath.Ext(path) == lz4Ext {
		return writeCompressed(path, payload)
	}

	if err := os.WriteFile(path, payload, reportFileMode); err != nil {
		return 0, fmt.Errorf("write report: %w", err)
	}

	return int64(len(payload)), nil
}

func writeCompressed(path string, payload []byte) (int64, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, reportFileMode)
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	zw := lz4.NewWriter(file)

	if _, err := zw.Write(payload); err != nil {
		return 0, fmt.Errorf("compress report: %w", err)
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("flush report: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat report: %w", err)
	}

	return info.Size(), nil
}

// ReadFile loads a previously written report document, transparently
// unframing .lz4 payloads.
func ReadFile(path string) ([]byte, error) {
	if filepath.Ext(path) != lz4Ext {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}

		return data, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(lz4.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("decompress report: %w", err)
	}

	return data, nil
}

// checkOutsideTarget rejects output inside a directory target, or output
// overwriting a single-file target.
func checkOutsideTarget(outputPath, target string) error {
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}

	info, err := os.Stat(absTarget)
	if err != nil || !info.IsDir() {
		if absOut == absTarget {
			return fmt.Errorf("%w: %s", ErrOutputInsideTarget, outputPath)
		}

		return nil
	}

	rel, err := filepath.Rel(absTarget, absOut)
	if err != nil {
		return nil
	}

	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("%w: %s", ErrOutputInsideTarget, outputPath)
	}

	return nil
}
