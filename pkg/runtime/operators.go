package runtime

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrDivisionByZero = errors.New("division by zero")
)

// OperationError reports an operator applied to values it does not support.
type OperationError struct {
	Op    string
	Left  Kind
	Right Kind
	Err   error
}

func (e *OperationError) Error() string {
	if errors.Is(e.Err, ErrDivisionByZero) {
		return "division by zero"
	}
	if e.Op == "!" {
		return fmt.Sprintf("type mismatch: operator ! not supported for %s", e.Left)
	}
	return fmt.Sprintf("type mismatch: operator %s not supported for %s and %s", e.Op, e.Left, e.Right)
}

func (e *OperationError) Unwrap() error { return e.Err }

func mismatch(op string, left, right Value) error {
	return &OperationError{Op: op, Left: kindOf(left), Right: kindOf(right), Err: ErrTypeMismatch}
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindVoid
	}
	return v.Kind()
}

// Add sums integers and concatenates strings.
func Add(left, right Value) (Value, error) {
	switch lv := left.(type) {
	case IntegerValue:
		rv, ok := right.(IntegerValue)
		if !ok {
			return nil, mismatch("+", left, right)
		}
		return IntegerValue{Val: new(big.Int).Add(lv.Val, rv.Val)}, nil
	case StringValue:
		rv, ok := right.(StringValue)
		if !ok {
			return nil, mismatch("+", left, right)
		}
		return StringValue{Val: lv.Val + rv.Val}, nil
	default:
		return nil, mismatch("+", left, right)
	}
}

func Subtract(left, right Value) (Value, error) {
	return integerArithmetic("-", left, right)
}

func Multiply(left, right Value) (Value, error) {
	return integerArithmetic("*", left, right)
}

// Divide truncates toward zero.
func Divide(left, right Value) (Value, error) {
	return integerArithmetic("/", left, right)
}

func integerArithmetic(op string, left, right Value) (Value, error) {
	lv, ok := left.(IntegerValue)
	if !ok {
		return nil, mismatch(op, left, right)
	}
	rv, ok := right.(IntegerValue)
	if !ok {
		return nil, mismatch(op, left, right)
	}
	result := new(big.Int)
	switch op {
	case "-":
		result.Sub(lv.Val, rv.Val)
	case "*":
		result.Mul(lv.Val, rv.Val)
	case "/":
		if rv.Val.Sign() == 0 {
			return nil, &OperationError{Op: op, Left: KindInteger, Right: KindInteger, Err: ErrDivisionByZero}
		}
		result.Quo(lv.Val, rv.Val)
	default:
		return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
	}
	return IntegerValue{Val: result}, nil
}

// Not is boolean negation over integers: zero becomes 1, anything else 0.
func Not(operand Value) (Value, error) {
	iv, ok := operand.(IntegerValue)
	if !ok {
		return nil, &OperationError{Op: "!", Left: kindOf(operand), Err: ErrTypeMismatch}
	}
	if iv.Val.Sign() == 0 {
		return Int(1), nil
	}
	return Int(0), nil
}
