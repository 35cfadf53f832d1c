package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jnayee7/minilang/pkg/driver"
	"github.com/jnayee7/minilang/pkg/interpreter"
	"github.com/jnayee7/minilang/pkg/parser"
)

const cliToolVersion = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, "mini "+cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "ast":
		return runAst(args[1:])
	case "check":
		return runCheck(args[1:])
	case "test":
		return runTests(args[1:])
	case "fetch":
		return runFetch(args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			return runEntry(args)
		}
		if !looksLikePathCandidate(args[0]) {
			fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
			printUsage()
			return 2
		}
		return runEntry(args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  mini run [flags] [file.mini]")
	fmt.Fprintln(os.Stderr, "  mini <file.mini>")
	fmt.Fprintln(os.Stderr, "  mini repl [flags]")
	fmt.Fprintln(os.Stderr, "  mini ast [--json|--sexpr] <file.mini>")
	fmt.Fprintln(os.Stderr, "  mini check <file.mini> ...")
	fmt.Fprintln(os.Stderr, "  mini test [flags] [dir ...]")
	fmt.Fprintln(os.Stderr, "  mini fetch")
	fmt.Fprintln(os.Stderr, "  mini version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Loop flags (run, repl, test):")
	fmt.Fprintln(os.Stderr, "  --loop fixed|while  --iterations N  --max-iterations N  -v")
}

// commonFlags are shared by the commands that evaluate programs.
type commonFlags struct {
	fs            *flag.FlagSet
	loop          string
	iterations    int
	maxIterations int
	verbose       bool
}

func newCommonFlags(name string) *commonFlags {
	c := &commonFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.SetOutput(os.Stderr)
	c.fs.StringVar(&c.loop, "loop", "", "loop mode: fixed or while")
	c.fs.IntVar(&c.iterations, "iterations", 0, "body count for fixed loops")
	c.fs.IntVar(&c.maxIterations, "max-iterations", 0, "iteration bound for while loops (0 = unbounded)")
	c.fs.BoolVar(&c.verbose, "v", false, "debug logging")
	return c
}

// policy starts from base and applies the flags that were given explicitly.
func (c *commonFlags) policy(base interpreter.LoopPolicy) (interpreter.LoopPolicy, error) {
	var err error
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "loop":
			mode, perr := interpreter.ParseLoopMode(c.loop)
			if perr != nil {
				err = perr
				return
			}
			base.Mode = mode
		case "iterations":
			base.Iterations = c.iterations
		case "max-iterations":
			base.MaxIterations = c.maxIterations
		}
	})
	if err != nil {
		return base, err
	}
	return base, base.Validate()
}

// newLogger honours MINI_LOG (debug, info, warn, error); -v forces debug.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else if raw := strings.TrimSpace(os.Getenv("MINI_LOG")); raw != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(raw)); err == nil {
			level = parsed
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runEntry(args []string) int {
	flags := newCommonFlags("run")
	if err := flags.fs.Parse(args); err != nil {
		return 2
	}
	logger := newLogger(flags.verbose)
	rest := flags.fs.Args()
	if len(rest) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(rest[1:], " "))
		return 2
	}

	var entry string
	var manifest *driver.Manifest
	if len(rest) == 1 {
		entry = rest[0]
		m, err := manifestNear(filepath.Dir(entry))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read manifest for %s: %v\n", entry, err)
			return 1
		}
		manifest = m
	} else {
		m, err := manifestNear(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		if m == nil {
			fmt.Fprintf(os.Stderr, "mini run requires a source file (%s not found)\n", driver.ManifestName)
			return 2
		}
		manifest = m
		entry, err = resolveManifestEntry(m, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	base := interpreter.DefaultLoopPolicy()
	if manifest != nil {
		if err := manifest.CheckTool(cliToolVersion); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		base = manifest.LoopPolicy()
		logger.Debug("using manifest", "path", manifest.Path, "loop", base.String())
	}
	policy, err := flags.policy(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid loop flags: %v\n", err)
		return 2
	}
	return executeEntry(entry, policy, logger)
}

func executeEntry(entry string, policy interpreter.LoopPolicy, logger *slog.Logger) int {
	src, err := os.ReadFile(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read program: %v\n", err)
		return 1
	}
	interp := interpreter.New(
		interpreter.WithStdout(os.Stdout),
		interpreter.WithLogger(logger),
		interpreter.WithLoopPolicy(policy),
	)
	if err := interp.Run(string(src), nil); err != nil {
		var syn *parser.SyntaxError
		if errors.As(err, &syn) {
			fmt.Fprintf(os.Stderr, "syntax error in %s:\n%v\n", entry, err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		return 1
	}
	return 0
}

// manifestNear loads the manifest governing dir. A missing manifest is not
// an error and yields nil.
func manifestNear(dir string) (*driver.Manifest, error) {
	path, err := driver.FindManifest(dir)
	if err != nil {
		return nil, nil
	}
	return driver.LoadManifest(path)
}

func resolveManifestEntry(m *driver.Manifest, logger *slog.Logger) (string, error) {
	if m.Main != "" {
		return m.MainPath(), nil
	}
	checkout, err := fetchSource(context.Background(), m, logger)
	if err != nil {
		return "", err
	}
	return checkout.Entry, nil
}

func fetchSource(ctx context.Context, m *driver.Manifest, logger *slog.Logger) (*driver.Checkout, error) {
	if m.Source == nil {
		return nil, fmt.Errorf("manifest %s has no source to fetch", m.Path)
	}
	home, err := driver.ResolveHome()
	if err != nil {
		return nil, err
	}
	checkout, err := driver.NewFetcher(home, logger).Fetch(ctx, m.Name, m.Source)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", m.Source.Git, err)
	}
	return checkout, nil
}

func looksLikePathCandidate(arg string) bool {
	if arg == "" {
		return false
	}
	if strings.HasSuffix(arg, driver.SourceExt) {
		return true
	}
	if strings.ContainsAny(arg, `/\`) {
		return true
	}
	_, err := os.Stat(arg)
	return err == nil
}
