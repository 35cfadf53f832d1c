package interpreter

import (
	"fmt"
	"sort"

	"github.com/jnayee7/minilang/pkg/ast"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a static finding about a program. Diagnostics never change
// how the program evaluates.
type Diagnostic struct {
	Line     int
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// Check inspects root without evaluating it. Reads of a name that no let in
// the program binds are errors, since evaluation would fail on them. Reads
// that come before the first let of their name in evaluation order are
// warnings. Each name is reported once.
func Check(root ast.Node) []Diagnostic {
	if root == nil {
		return nil
	}
	bound := make(map[string]bool)
	ast.CollectLetBeforeUse(root, bound)

	type state struct {
		defined  map[string]bool
		reported map[string]bool
		diags    []Diagnostic
	}
	st := ast.Traverse(root, state{defined: map[string]bool{}, reported: map[string]bool{}}, func(st state, node ast.Node) state {
		switch {
		case node.IsLetBinding():
			st.defined[node.BoundName()] = true
		case node.IsIdentifier():
			name := node.BoundName()
			if st.defined[name] || st.reported[name] {
				return st
			}
			st.reported[name] = true
			if !bound[name] {
				st.diags = append(st.diags, Diagnostic{
					Line:     node.Line(),
					Severity: SeverityError,
					Message:  fmt.Sprintf("Symbol %s not defined", name),
				})
			} else {
				st.diags = append(st.diags, Diagnostic{
					Line:     node.Line(),
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("Symbol %s used before its first let", name),
				})
			}
		case node.IsNegation() == 1:
			if not, ok := node.(*ast.Not); ok {
				if _, isString := not.Operand.(*ast.StringLiteral); isString {
					st.diags = append(st.diags, Diagnostic{
						Line:     node.Line(),
						Severity: SeverityError,
						Message:  "operator ! applied to a string literal",
					})
				}
			}
		}
		st.diags = append(st.diags, conditionDiagnostics(node)...)
		return st
	})
	sort.SliceStable(st.diags, func(a, b int) bool { return st.diags[a].Line < st.diags[b].Line })
	return st.diags
}

func conditionDiagnostics(node ast.Node) []Diagnostic {
	var cond ast.Expression
	var what string
	switch n := node.(type) {
	case *ast.If:
		cond, what = n.Condition, "if"
	case *ast.Loop:
		cond, what = n.Condition, "loop"
	default:
		return nil
	}
	if _, ok := cond.(*ast.StringLiteral); ok {
		return []Diagnostic{{
			Line:     node.Line(),
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s condition is a string and never equals 1", what),
		}}
	}
	return nil
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
