package pyparse

import sitter "github.com/alexaandru/go-tree-sitter-bare"

// Python CST node types and fields used for unit extraction.
const (
	nodeFunctionDef = "function_definition"
	nodeClassDef    = "class_definition"
	fieldName       = "name"
)

// anonymousName labels a definition whose name field is absent.
const anonymousName = "<anonymous>"

// Function is one function or method definition found in a parsed file.
// Lines are 1-based and inclusive.
type Function struct {
	Name      string
	StartLine int
	EndLine   int
	Node      sitter.Node
}

// Functions enumerates every function and method definition in the tree,
// nested definitions included. Method names are qualified by their class,
// nested functions by their enclosing function.
func (t *Tree) Functions() []Function {
	var funcs []Function

	t.collectFunctions(t.Root, "", &funcs)

	return funcs
}

func (t *Tree) collectFunctions(n sitter.Node, scope string, out *[]Function) {
	switch n.Type() {
	case nodeFunctionDef:
		name := t.scopedName(n, scope)

		*out = append(*out, Function{
			Name:      name,
			StartLine: int(n.StartPoint().Row) + 1,
			EndLine:   int(n.EndPoint().Row) + 1,
			Node:      n,
		})

		scope = name
	case nodeClassDef:
		scope = t.scopedName(n, scope)
	}

	for idx := range n.NamedChildCount() {
		t.collectFunctions(n.NamedChild(idx), scope, out)
	}
}

func (t *Tree) scopedName(n sitter.Node, scope string) string {
	name := anonymousName

	nameNode := n.ChildByFieldName(fieldName)
	if !nameNode.IsNull() {
		name = t.Text(nameNode)
	}

	if scope != "" {
		return scope + "." + name
	}

	return name
}
