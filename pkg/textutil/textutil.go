// Package textutil provides byte-level text utilities: binary detection,
// line splitting, and blank-line classification.
package textutil

import (
	"bytes"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// SplitLines splits data into lines without their newline bytes. A trailing
// newline does not produce an empty final line. Returns nil for empty data.
func SplitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	lines := bytes.Split(data, []byte{'\n'})

	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// IsBlank returns true if the line contains only whitespace.
func IsBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

// CountNonBlank returns the number of lines containing non-whitespace bytes.
func CountNonBlank(lines [][]byte) int {
	count := 0

	for _, line := range lines {
		if !IsBlank(line) {
			count++
		}
	}

	return count
}
