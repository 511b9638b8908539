// Package pyparse parses Python sources into tree-sitter syntax trees and
// extracts the function-level units that metric computation runs over.
package pyparse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	python "github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ErrUnparseable marks source that the Python grammar cannot produce a
// usable tree for. Callers treat it as a per-file recoverable condition.
var ErrUnparseable = errors.New("source is not parseable as Python")

var errPoolType = errors.New("parser pool returned unexpected type")

// errorNodeType is the node type tree-sitter emits for unparseable regions.
const errorNodeType = "ERROR"

var (
	languageOnce sync.Once
	language     *sitter.Language
)

// Language returns the shared Python tree-sitter language.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(python.GetLanguage())
	})

	return language
}

var parserPool = sync.Pool{
	New: func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(Language())

		return tsParser
	},
}

// Tree is a parsed Python source file. Close releases the underlying
// tree-sitter tree; the Root node is invalid afterwards.
type Tree struct {
	Root   sitter.Node
	Source []byte

	inner *sitter.Tree
}

// Parse parses source as Python. Returns ErrUnparseable when the grammar
// yields no root or the tree contains syntax-error nodes; tree-sitter is
// error-tolerant, so a silent partial tree would undercount every metric.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	tsParser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse python source: %w", err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, ErrUnparseable
	}

	if hasSyntaxError(root) {
		tree.Close()

		return nil, ErrUnparseable
	}

	return &Tree{Root: root, Source: source, inner: tree}, nil
}

// Close releases the underlying tree. Safe to call more than once.
func (t *Tree) Close() {
	if t.inner != nil {
		t.inner.Close()
		t.inner = nil
	}
}

// Text returns the source text spanned by the node.
func (t *Tree) Text(n sitter.Node) string {
	start := int(n.StartByte())
	end := int(n.EndByte())

	if start < 0 || end > len(t.Source) || start > end {
		return ""
	}

	return string(t.Source[start:end])
}

func hasSyntaxError(n sitter.Node) bool {
	if n.Type() == errorNodeType {
		return true
	}

	for idx := range n.NamedChildCount() {
		if hasSyntaxError(n.NamedChild(idx)) {
			return true
		}
	}

	return false
}
