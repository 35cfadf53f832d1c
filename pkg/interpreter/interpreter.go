package interpreter

import (
	"io"
	"log/slog"
	"os"

	"github.com/jnayee7/minilang/pkg/ast"
	"github.com/jnayee7/minilang/pkg/parser"
	"github.com/jnayee7/minilang/pkg/runtime"
)

// Interpreter evaluates syntax trees against a flat environment.
type Interpreter struct {
	global *runtime.Environment
	stdout io.Writer
	logger *slog.Logger
	loop   LoopPolicy
}

type Option func(*Interpreter)

// WithStdout redirects print output. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		if w != nil {
			i.stdout = w
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithLoopPolicy selects how loop statements repeat their body.
func WithLoopPolicy(policy LoopPolicy) Option {
	return func(i *Interpreter) {
		i.loop = policy.normalized()
	}
}

// New returns an interpreter with an empty global environment.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		global: runtime.NewEnvironment(),
		stdout: os.Stdout,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		loop:   DefaultLoopPolicy(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// GlobalEnvironment returns the environment used when callers pass nil.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

func (i *Interpreter) LoopPolicy() LoopPolicy {
	return i.loop
}

// Evaluate runs node against env and returns its value. A nil env means the
// global environment; a nil node evaluates to void.
func (i *Interpreter) Evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	if env == nil {
		env = i.global
	}
	if node == nil {
		return runtime.VoidValue{}, nil
	}
	return i.evaluate(node, env)
}

// Run parses src and evaluates the resulting program.
func (i *Interpreter) Run(src string, env *runtime.Environment) error {
	root, err := parser.Parse(src)
	if err != nil {
		return err
	}
	i.logger.Debug("parsed program", "nodes", ast.Traverse(root, 0, func(n int, _ ast.Node) int { return n + 1 }))
	_, err = i.Evaluate(root, env)
	if err != nil {
		i.logger.Debug("evaluation failed", "error", err)
	}
	return err
}
