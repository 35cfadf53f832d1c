package ast

import "math/big"

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Int(value int64) *IntLiteral {
	return NewIntLiteral(big.NewInt(value))
}

func IntBig(value *big.Int) *IntLiteral {
	return NewIntLiteral(new(big.Int).Set(value))
}

// Expression helpers.

func Bin(kind BinaryKind, left, right Expression) *BinaryOp {
	return NewBinaryOp(kind, left, right)
}

func Add(left, right Expression) *BinaryOp { return Bin(Plus, left, right) }
func Sub(left, right Expression) *BinaryOp { return Bin(Minus, left, right) }
func Mul(left, right Expression) *BinaryOp { return Bin(Times, left, right) }
func Div(left, right Expression) *BinaryOp { return Bin(Divide, left, right) }

func Bang(operand Expression) *Not {
	return NewNot(operand)
}

// Statement helpers.

func Assign(name string, value Expression) *Let {
	return NewLet(name, value)
}

func Out(expr Expression) *Print {
	return NewPrint(expr)
}

func Repeat(condition Expression, body ...Statement) *Loop {
	return NewLoop(condition, Block(body...))
}

func When(condition Expression, body ...Statement) *If {
	return NewIf(condition, Block(body...))
}

// Block chains statements into a right-nested StatementList, the shape the
// parser produces. It returns nil for no statements.
func Block(stmts ...Statement) Statement {
	var rest Statement
	for i := len(stmts) - 1; i >= 0; i-- {
		if rest == nil {
			rest = NewStatementList(stmts[i], nil)
			continue
		}
		rest = NewStatementList(stmts[i], rest)
	}
	return rest
}
