package halstead

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
)

// operatorTypes are the Python CST node types counted as operators:
// arithmetic, comparison, boolean, and assignment expressions. Calls and
// subscripts are excluded, matching the classical expression-level counting.
var operatorTypes = map[string]struct{}{
	"binary_operator":      {},
	"unary_operator":       {},
	"not_operator":         {},
	"boolean_operator":     {},
	"comparison_operator":  {},
	"assignment":           {},
	"augmented_assignment": {},
}

// operandTypes are the Python CST node types counted as operands, keyed by
// their source text so that each distinct name or literal counts once.
var operandTypes = map[string]struct{}{
	"identifier": {},
	"integer":    {},
	"float":      {},
	"string":     {},
	"true":       {},
	"false":      {},
	"none":       {},
}

// fieldOperator is the CST field holding an operator token, when present.
const fieldOperator = "operator"

func collect(tree *pyparse.Tree, n sitter.Node, operators, operands map[string]int) {
	nodeType := n.Type()

	if _, ok := operatorTypes[nodeType]; ok {
		operators[operatorKey(tree, n)]++
	} else if _, ok := operandTypes[nodeType]; ok {
		operands[tree.Text(n)]++
	}

	for idx := range n.NamedChildCount() {
		collect(tree, n.NamedChild(idx), operators, operands)
	}
}

// operatorKey identifies an operator by its token text where the grammar
// exposes one (e.g. "+", "and", "+="), falling back to the node type for
// forms without a single token, such as chained comparisons.
func operatorKey(tree *pyparse.Tree, n sitter.Node) string {
	opNode := n.ChildByFieldName(fieldOperator)
	if !opNode.IsNull() {
		if text := tree.Text(opNode); text != "" {
			return text
		}
	}

	return n.Type()
}
