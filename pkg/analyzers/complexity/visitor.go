package complexity

import sitter "github.com/alexaandru/go-tree-sitter-bare"

// baseComplexity is the single linear path every unit starts with.
const baseComplexity = 1

// nodeFunctionDef delimits nested units during the walk.
const nodeFunctionDef = "function_definition"

// decisionTypes are the Python CST node types that open an independent
// execution path: conditionals (if/elif, ternary, comprehension guard),
// loops, boolean short-circuit operators, exception handlers, and match
// arms. One boolean_operator node is one and/or occurrence.
var decisionTypes = map[string]struct{}{
	"if_statement":           {},
	"elif_clause":            {},
	"conditional_expression": {},
	"if_clause":              {},
	"for_statement":          {},
	"while_statement":        {},
	"boolean_operator":       {},
	"except_clause":          {},
	"case_clause":            {},
}

// unitComplexity scores one function definition. Nested function
// definitions are separate units; their subtrees are skipped here.
func unitComplexity(fn sitter.Node) int {
	cc := baseComplexity

	for idx := range fn.NamedChildCount() {
		cc += countDecisions(fn.NamedChild(idx))
	}

	return cc
}

func countDecisions(n sitter.Node) int {
	if n.Type() == nodeFunctionDef {
		return 0
	}

	count := 0
	if _, ok := decisionTypes[n.Type()]; ok {
		count = 1
	}

	for idx := range n.NamedChildCount() {
		count += countDecisions(n.NamedChild(idx))
	}

	return count
}
