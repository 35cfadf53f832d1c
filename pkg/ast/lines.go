package ast

// SetLine annotates the node with the source line it was parsed from.
func SetLine(node Node, line int) {
	if node == nil {
		return
	}
	if setter, ok := node.(interface{ setLine(int) }); ok {
		setter.setLine(line)
	}
}

// WithLine is SetLine for use inside constructor expressions.
func WithLine[T Node](node T, line int) T {
	SetLine(node, line)
	return node
}
