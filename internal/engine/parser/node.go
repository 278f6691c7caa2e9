package parser

import "stratum/internal/engine/source"

// Node is one vertex of an owned parse tree. A node exclusively owns its
// children slice; whole trees are created per parse call and handed to the
// caller as one unit. No sharing, no parent pointers.
type Node struct {
	// Rule is the identity of the rule that produced this node: the rule
	// name for named (table) rules, the combinator kind label for anonymous
	// sub-rules. Fact generation keys off this.
	Rule     string
	Span     source.Span
	Text     string
	Children []*Node
}

// Walk visits the tree in preorder. Returning false from fn prunes the
// subtree below the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the tree, including the receiver.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}
