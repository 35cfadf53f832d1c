package ast

// Children returns the optional left and right children of node. Leaves return
// (nil, nil) and unary nodes only a left child.
func Children(node Node) (left, right Node) {
	switch n := node.(type) {
	case *StatementList:
		if n.First != nil {
			left = n.First
		}
		if n.Rest != nil {
			right = n.Rest
		}
	case *Let:
		if n.Value != nil {
			left = n.Value
		}
	case *Print:
		if n.Expr != nil {
			left = n.Expr
		}
	case *Loop:
		if n.Condition != nil {
			left = n.Condition
		}
		if n.Body != nil {
			right = n.Body
		}
	case *If:
		if n.Condition != nil {
			left = n.Condition
		}
		if n.Body != nil {
			right = n.Body
		}
	case *BinaryOp:
		if n.Left != nil {
			left = n.Left
		}
		if n.Right != nil {
			right = n.Right
		}
	case *Not:
		if n.Operand != nil {
			left = n.Operand
		}
	}
	return left, right
}

// Traverse folds visit over the tree depth-first: the left subtree, then the
// right subtree, then the node itself.
func Traverse[T any](node Node, acc T, visit func(T, Node) T) T {
	if node == nil {
		return acc
	}
	left, right := Children(node)
	if left != nil {
		acc = Traverse(left, acc, visit)
	}
	if right != nil {
		acc = Traverse(right, acc, visit)
	}
	return visit(acc, node)
}

// CollectLetBeforeUse marks seen[name] for every Let in the tree, visiting
// children before the node itself. Nothing is evaluated. The returned count
// is always zero; callers rely on the map.
func CollectLetBeforeUse(node Node, seen map[string]bool) int {
	if node == nil {
		return 0
	}
	cnt := 0
	left, right := Children(node)
	if left != nil {
		cnt += CollectLetBeforeUse(left, seen)
	}
	if right != nil {
		cnt += CollectLetBeforeUse(right, seen)
	}
	if node.IsLetBinding() {
		seen[node.BoundName()] = true
	}
	return cnt
}
