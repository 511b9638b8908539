package audit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

const (
	pythonExt      = ".py"
	pythonLanguage = "Python"
	initModuleName = "__init__.py"
	gitDirName     = ".git"
	gitignoreName  = ".gitignore"

	// languageSniffLength bounds the head read used to classify
	// extensionless scripts.
	languageSniffLength = 512
)

// CollectFiles walks root and returns the Python files eligible for audit,
// sorted by path. Policy-excluded directories, vendored paths, and entries
// matched by the root .gitignore are pruned. Package marker __init__.py
// files are skipped. Extensionless scripts whose content classifies as
// Python are included alongside .py files.
func CollectFiles(root string, pol *policy.Policy) ([]string, error) {
	// A missing or unreadable .gitignore simply means no ignore rules.
	matcher, err := gitignore.CompileIgnoreFile(filepath.Join(root, gitignoreName))
	if err != nil {
		matcher = nil
	}

	var files []string

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == root {
				return nil
			}

			name := entry.Name()
			if name == gitDirName || pol.IsExcludedDir(name) {
				return filepath.SkipDir
			}

			if matcher != nil && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || entry.Name() == initModuleName {
			return nil
		}

		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		if enry.IsVendor(rel) {
			return nil
		}

		switch filepath.Ext(path) {
		case pythonExt:
			files = append(files, path)
		case "":
			if sniffsAsPython(path) {
				files = append(files, path)
			}
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.Strings(files)

	return files, nil
}

// sniffsAsPython reports whether the head of the file at path classifies
// as Python source, covering shebang scripts without an extension.
func sniffsAsPython(path string) bool {
	head, err := readHead(path, languageSniffLength)
	if err != nil || len(head) == 0 {
		return false
	}

	return enry.GetLanguage(filepath.Base(path), head) == pythonLanguage
}

func readHead(path string, limit int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, limit)

	read, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	return head[:read], nil
}
