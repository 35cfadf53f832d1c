package ast

import (
	"strconv"
	"strings"
)

// Format renders node as a compact s-expression, e.g.
// (block (let x 1) (print (+ x 2))). Statement chains are flattened into a
// single block.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("nil")
	case *StatementList:
		b.WriteString("(block")
		var cur Statement = n
		for cur != nil {
			list, ok := cur.(*StatementList)
			if !ok {
				b.WriteByte(' ')
				writeNode(b, cur)
				break
			}
			b.WriteByte(' ')
			writeNode(b, list.First)
			cur = list.Rest
		}
		b.WriteByte(')')
	case *Let:
		b.WriteString("(let ")
		b.WriteString(n.Name)
		b.WriteByte(' ')
		writeNode(b, n.Value)
		b.WriteByte(')')
	case *Print:
		b.WriteString("(print ")
		writeNode(b, n.Expr)
		b.WriteByte(')')
	case *Loop:
		b.WriteString("(loop ")
		writeNode(b, n.Condition)
		b.WriteByte(' ')
		writeNode(b, n.Body)
		b.WriteByte(')')
	case *If:
		b.WriteString("(if ")
		writeNode(b, n.Condition)
		b.WriteByte(' ')
		writeNode(b, n.Body)
		b.WriteByte(')')
	case *BinaryOp:
		b.WriteByte('(')
		b.WriteString(n.Kind.String())
		b.WriteByte(' ')
		writeNode(b, n.Left)
		b.WriteByte(' ')
		writeNode(b, n.Right)
		b.WriteByte(')')
	case *Not:
		b.WriteString("(! ")
		writeNode(b, n.Operand)
		b.WriteByte(')')
	case *IntLiteral:
		if n.Value == nil {
			b.WriteString("0")
			return
		}
		b.WriteString(n.Value.String())
	case *StringLiteral:
		b.WriteString(strconv.Quote(n.Value))
	case *Identifier:
		b.WriteString(n.Name)
	default:
		b.WriteString("<" + string(node.NodeType()) + ">")
	}
}
