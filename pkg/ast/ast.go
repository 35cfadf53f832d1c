package ast

import "math/big"

type NodeType string

const (
	NodeStatementList NodeType = "StatementList"
	NodeLet           NodeType = "Let"
	NodePrint         NodeType = "Print"
	NodeLoop          NodeType = "Loop"
	NodeIf            NodeType = "If"
	NodeBinaryOp      NodeType = "BinaryOp"
	NodeNot           NodeType = "Not"
	NodeIntLiteral    NodeType = "IntLiteral"
	NodeStringLiteral NodeType = "StringLiteral"
	NodeIdentifier    NodeType = "Identifier"
)

// Node is implemented by every syntax tree element. The set of implementations
// is closed: only the types in this package satisfy it.
type Node interface {
	NodeType() NodeType
	// Line is the 1-based source line the node came from (0 when synthesized).
	Line() int

	IsIdentifier() bool
	IsLetBinding() bool
	// BoundName is the variable an Identifier reads or a Let writes.
	BoundName() string
	IsNegation() int

	isNode()
}

type nodeImpl struct {
	Type       NodeType `json:"type"`
	LineNumber int      `json:"line,omitempty"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Line() int          { return n.LineNumber }
func (nodeImpl) IsIdentifier() bool   { return false }
func (nodeImpl) IsLetBinding() bool   { return false }
func (nodeImpl) BoundName() string    { return "" }
func (nodeImpl) IsNegation() int      { return 0 }
func (nodeImpl) isNode()              {}

func (n *nodeImpl) setLine(line int) { n.LineNumber = line }

// Marker interfaces.

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Statements

// StatementList sequences First and the optional Rest of a statement chain.
type StatementList struct {
	nodeImpl
	statementMarker

	First Statement `json:"first"`
	Rest  Statement `json:"rest,omitempty"`
}

func NewStatementList(first Statement, rest Statement) *StatementList {
	return &StatementList{nodeImpl: newNodeImpl(NodeStatementList), First: first, Rest: rest}
}

type Let struct {
	nodeImpl
	statementMarker

	Name  string     `json:"name"`
	Value Expression `json:"value"`
}

func NewLet(name string, value Expression) *Let {
	return &Let{nodeImpl: newNodeImpl(NodeLet), Name: name, Value: value}
}

func (l *Let) IsLetBinding() bool { return true }
func (l *Let) BoundName() string  { return l.Name }

type Print struct {
	nodeImpl
	statementMarker

	Expr Expression `json:"expr"`
}

func NewPrint(expr Expression) *Print {
	return &Print{nodeImpl: newNodeImpl(NodePrint), Expr: expr}
}

// Loop runs Body a configured number of times; see the interpreter's loop policy.
type Loop struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      Statement  `json:"body"`
}

func NewLoop(condition Expression, body Statement) *Loop {
	return &Loop{nodeImpl: newNodeImpl(NodeLoop), Condition: condition, Body: body}
}

type If struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      Statement  `json:"body"`
}

func NewIf(condition Expression, body Statement) *If {
	return &If{nodeImpl: newNodeImpl(NodeIf), Condition: condition, Body: body}
}

// Expressions

type BinaryKind string

const (
	Plus   BinaryKind = "+"
	Minus  BinaryKind = "-"
	Times  BinaryKind = "*"
	Divide BinaryKind = "/"
)

func (k BinaryKind) String() string { return string(k) }

// IsValid reports whether k is one of the four arithmetic operators.
func (k BinaryKind) IsValid() bool {
	switch k {
	case Plus, Minus, Times, Divide:
		return true
	default:
		return false
	}
}

type BinaryOp struct {
	nodeImpl
	expressionMarker

	Kind  BinaryKind `json:"kind"`
	Left  Expression `json:"left"`
	Right Expression `json:"right"`
}

func NewBinaryOp(kind BinaryKind, left, right Expression) *BinaryOp {
	return &BinaryOp{nodeImpl: newNodeImpl(NodeBinaryOp), Kind: kind, Left: left, Right: right}
}

type Not struct {
	nodeImpl
	expressionMarker

	Operand Expression `json:"operand"`
}

func NewNot(operand Expression) *Not {
	return &Not{nodeImpl: newNodeImpl(NodeNot), Operand: operand}
}

func (n *Not) IsNegation() int { return 1 }

// Literals

type IntLiteral struct {
	nodeImpl
	expressionMarker

	Value *big.Int `json:"value"`
}

func NewIntLiteral(value *big.Int) *IntLiteral {
	return &IntLiteral{nodeImpl: newNodeImpl(NodeIntLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

func (i *Identifier) IsIdentifier() bool { return true }
func (i *Identifier) BoundName() string  { return i.Name }
