package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/jnayee7/minilang/pkg/driver"
	"github.com/jnayee7/minilang/pkg/interpreter"
)

func runTests(args []string) int {
	flags := newCommonFlags("test")
	parallel := flags.fs.Int("j", runtime.NumCPU(), "programs to run in parallel")
	if err := flags.fs.Parse(args); err != nil {
		return 2
	}
	logger := newLogger(flags.verbose)

	dirs := flags.fs.Args()
	base := interpreter.DefaultLoopPolicy()
	manifest, err := manifestNear(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if manifest != nil {
		base = manifest.LoopPolicy()
		if len(dirs) == 0 {
			dirs = manifest.TestDirs()
		}
	}
	if len(dirs) == 0 {
		dirs = []string{"tests"}
	}
	policy, err := flags.policy(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid loop flags: %v\n", err)
		return 2
	}

	var cases []driver.Case
	for _, dir := range dirs {
		found, err := driver.DiscoverCases(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		cases = append(cases, found...)
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "no test programs found")
		return 1
	}

	results, err := driver.RunSuite(context.Background(), cases, driver.SuiteOptions{
		Parallel: *parallel,
		Loop:     policy,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "test run aborted: %v\n", err)
		return 1
	}
	for _, r := range results {
		if !r.Failed {
			fmt.Fprintf(os.Stdout, "ok   %s\n", r.Case.Name)
			continue
		}
		fmt.Fprintf(os.Stdout, "FAIL %s: %s\n", r.Case.Name, r.Reason)
		if r.Diff != "" {
			fmt.Fprintf(os.Stdout, "output mismatch (-want +got):\n%s", r.Diff)
		}
	}
	passed, failed := driver.Summary(results)
	fmt.Fprintf(os.Stdout, "%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
