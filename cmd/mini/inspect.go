package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/kr/pretty"

	"github.com/jnayee7/minilang/pkg/ast"
	"github.com/jnayee7/minilang/pkg/interpreter"
	"github.com/jnayee7/minilang/pkg/parser"
)

func runAst(args []string) int {
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "print the tree as JSON")
	asSexpr := fs.Bool("sexpr", false, "print the tree as an s-expression")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "mini ast requires exactly one source file")
		return 2
	}
	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read program: %v\n", err)
		return 1
	}
	root, err := parser.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "syntax error in %s:\n%v\n", path, err)
		return 1
	}

	switch {
	case *asJSON:
		data, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode tree: %v\n", err)
			return 1
		}
		fmt.Fprintln(os.Stdout, string(data))
	case *asSexpr:
		fmt.Fprintln(os.Stdout, ast.Format(root))
	default:
		fmt.Fprintf(os.Stdout, "%# v\n", pretty.Formatter(root))
	}
	return 0
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "mini check requires at least one source file")
		return 2
	}

	failed := false
	for _, path := range fs.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read program: %v\n", err)
			failed = true
			continue
		}
		root, err := parser.Parse(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: syntax error:\n%v\n", path, err)
			failed = true
			continue
		}
		diags := interpreter.Check(root)
		for _, d := range diags {
			fmt.Fprintf(os.Stdout, "%s:%s\n", path, d)
		}
		if interpreter.HasErrors(diags) {
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}
