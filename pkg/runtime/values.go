package runtime

import (
	"fmt"
	"io"
	"math/big"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindVoid Kind = iota
	KindInteger
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// VoidValue is the result of statements; it carries no data.
type VoidValue struct{}

func (VoidValue) Kind() Kind { return KindVoid }

type IntegerValue struct {
	Val *big.Int
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// Int builds an integer value.
func Int(v int64) IntegerValue {
	return IntegerValue{Val: big.NewInt(v)}
}

// BigInt builds an integer value from a copy of v.
func BigInt(v *big.Int) IntegerValue {
	return IntegerValue{Val: CloneBigInt(v)}
}

// Str builds a string value.
func Str(v string) StringValue {
	return StringValue{Val: v}
}

// CloneBigInt returns a copy of v; nil is treated as zero.
func CloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// AsInt64 extracts the integer held by v. It reports false for non-integers
// and for integers outside the int64 range.
func AsInt64(v Value) (int64, bool) {
	iv, ok := v.(IntegerValue)
	if !ok || iv.Val == nil {
		return 0, false
	}
	if !iv.Val.IsInt64() {
		return 0, false
	}
	return iv.Val.Int64(), true
}

// IsInt reports whether v is an integer equal to want.
func IsInt(v Value, want int64) bool {
	n, ok := AsInt64(v)
	return ok && n == want
}

// Format renders v the way print writes it: integers in base 10, strings
// verbatim, void as the empty string.
func Format(v Value) string {
	switch val := v.(type) {
	case IntegerValue:
		if val.Val == nil {
			return "0"
		}
		return val.Val.String()
	case StringValue:
		return val.Val
	case VoidValue, nil:
		return ""
	default:
		return fmt.Sprintf("[%s]", v.Kind())
	}
}

// Write streams the textual form of v to w without a trailing newline.
func Write(w io.Writer, v Value) error {
	_, err := io.WriteString(w, Format(v))
	return err
}

// Describe renders v for diagnostics, quoting strings.
func Describe(v Value) string {
	switch val := v.(type) {
	case StringValue:
		return fmt.Sprintf("%q", val.Val)
	case VoidValue, nil:
		return "void"
	default:
		return Format(v)
	}
}
