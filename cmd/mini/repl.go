package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jnayee7/minilang/pkg/driver"
	"github.com/jnayee7/minilang/pkg/interpreter"
	"github.com/jnayee7/minilang/pkg/parser"
	"github.com/jnayee7/minilang/pkg/runtime"
)

const (
	historyFile = "repl_history"
	promptMain  = "mini> "
	promptCont  = "....> "
)

func runRepl(args []string) int {
	flags := newCommonFlags("repl")
	if err := flags.fs.Parse(args); err != nil {
		return 2
	}
	if flags.fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "mini repl takes no arguments")
		return 2
	}
	policy, err := flags.policy(interpreter.DefaultLoopPolicy())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid loop flags: %v\n", err)
		return 2
	}
	logger := newLogger(flags.verbose)

	var histPath string
	if home, err := driver.ResolveHome(); err == nil {
		if err := os.MkdirAll(home, 0o755); err == nil {
			histPath = filepath.Join(home, historyFile)
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	session := newReplSession(os.Stdout, interpreter.WithLogger(logger), interpreter.WithLoopPolicy(policy))
	fmt.Fprintf(os.Stdout, "mini %s (loop %s). Type :help for commands.\n", cliToolVersion, policy)
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(os.Stdout)
			return 0
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if quit := session.handle(code, os.Stderr); quit {
			return 0
		}
	}
}

func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.Parse(src); perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// replSession evaluates entries against one environment that persists
// across inputs.
type replSession struct {
	out    *lineTracker
	interp *interpreter.Interpreter
}

func newReplSession(out io.Writer, opts ...interpreter.Option) *replSession {
	tracker := &lineTracker{w: out}
	opts = append(opts, interpreter.WithStdout(tracker))
	return &replSession{out: tracker, interp: interpreter.New(opts...)}
}

// handle runs one entry and reports whether the session should end.
func (s *replSession) handle(code string, errOut io.Writer) bool {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed, errOut)
	}
	s.out.dirty = false
	err := s.interp.Run(code, nil)
	if s.out.dirty {
		fmt.Fprintln(s.out.w)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return false
}

func (s *replSession) command(cmd string, errOut io.Writer) bool {
	env := s.interp.GlobalEnvironment()
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":env":
		for _, name := range env.Names() {
			val, _ := env.Get(name)
			fmt.Fprintf(s.out.w, "%s = %s\n", name, runtime.Describe(val))
		}
	case ":reset":
		env.Reset()
	case ":help":
		fmt.Fprintln(s.out.w, ":env    list bindings")
		fmt.Fprintln(s.out.w, ":reset  clear all bindings")
		fmt.Fprintln(s.out.w, ":quit   leave the repl")
	default:
		fmt.Fprintf(errOut, "unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

// lineTracker notes whether anything was written since it was last reset so
// the prompt can start on a fresh line.
type lineTracker struct {
	w     io.Writer
	dirty bool
}

func (t *lineTracker) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.dirty = p[len(p)-1] != '\n'
	}
	return t.w.Write(p)
}
