package interpreter

import (
	"fmt"

	"github.com/jnayee7/minilang/pkg/ast"
	"github.com/jnayee7/minilang/pkg/runtime"
)

func (i *Interpreter) evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.StatementList:
		return i.evaluateStatementList(n, env)
	case *ast.Let:
		return i.evaluateLet(n, env)
	case *ast.Print:
		return i.evaluatePrint(n, env)
	case *ast.Loop:
		return i.evaluateLoop(n, env)
	case *ast.If:
		return i.evaluateIf(n, env)
	case *ast.BinaryOp:
		return i.evaluateBinaryOp(n, env)
	case *ast.Not:
		operand, err := i.evaluate(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return runtime.Not(operand)
	case *ast.IntLiteral:
		if n.Value == nil {
			return runtime.Int(0), nil
		}
		return runtime.BigInt(n.Value), nil
	case *ast.StringLiteral:
		return runtime.Str(n.Value), nil
	case *ast.Identifier:
		if val, ok := env.Get(n.Name); ok {
			return val, nil
		}
		return nil, undefinedSymbol(n.Name, n.Line())
	case nil:
		return nil, fmt.Errorf("missing node")
	default:
		return nil, fmt.Errorf("unsupported node type: %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateStatementList(list *ast.StatementList, env *runtime.Environment) (runtime.Value, error) {
	if _, err := i.evaluate(list.First, env); err != nil {
		return nil, err
	}
	if list.Rest != nil {
		if _, err := i.evaluate(list.Rest, env); err != nil {
			return nil, err
		}
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evaluateLet(let *ast.Let, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluate(let.Value, env)
	if err != nil {
		return nil, err
	}
	env.Define(let.Name, val)
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evaluatePrint(stmt *ast.Print, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluate(stmt.Expr, env)
	if err != nil {
		return nil, err
	}
	if err := runtime.Write(i.stdout, val); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evaluateIf(stmt *ast.If, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.evaluate(stmt.Condition, env)
	if err != nil {
		return nil, err
	}
	if !runtime.IsInt(cond, 1) {
		return runtime.VoidValue{}, nil
	}
	return i.evaluate(stmt.Body, env)
}

func (i *Interpreter) evaluateLoop(loop *ast.Loop, env *runtime.Environment) (runtime.Value, error) {
	if i.loop.Mode == LoopWhile {
		return i.evaluateWhileLoop(loop, env)
	}
	if _, err := i.evaluate(loop.Condition, env); err != nil {
		return nil, err
	}
	for n := 0; n < i.loop.Iterations; n++ {
		if _, err := i.evaluate(loop.Body, env); err != nil {
			return nil, err
		}
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evaluateWhileLoop(loop *ast.Loop, env *runtime.Environment) (runtime.Value, error) {
	for n := 0; ; n++ {
		cond, err := i.evaluate(loop.Condition, env)
		if err != nil {
			return nil, err
		}
		if !runtime.IsInt(cond, 1) {
			i.logger.Debug("loop finished", "line", loop.Line(), "iterations", n)
			return runtime.VoidValue{}, nil
		}
		if i.loop.MaxIterations > 0 && n >= i.loop.MaxIterations {
			return nil, &RuntimeError{
				Line:    loop.Line(),
				Message: fmt.Sprintf("loop exceeded %d iterations", i.loop.MaxIterations),
				Err:     ErrLoopLimit,
			}
		}
		if _, err := i.evaluate(loop.Body, env); err != nil {
			return nil, err
		}
	}
}

func (i *Interpreter) evaluateBinaryOp(expr *ast.BinaryOp, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluate(expr.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(expr.Right, env)
	if err != nil {
		return nil, err
	}
	switch expr.Kind {
	case ast.Plus:
		return runtime.Add(left, right)
	case ast.Minus:
		return runtime.Subtract(left, right)
	case ast.Times:
		return runtime.Multiply(left, right)
	case ast.Divide:
		return runtime.Divide(left, right)
	default:
		return nil, fmt.Errorf("unsupported binary operator %q", string(expr.Kind))
	}
}
