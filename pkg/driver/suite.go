package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/jnayee7/minilang/pkg/interpreter"
)

const (
	SourceExt   = ".mini"
	expectedExt = ".out"
	errorExt    = ".err"
)

// Case is one golden program: name.mini runs and its output must match
// name.out. When name.err exists the run must fail with an error whose
// message contains that file's trimmed contents.
type Case struct {
	Name     string
	Source   string
	Expected string
	ErrFile  string
}

type Result struct {
	Case   Case
	Output string
	Err    error
	// Diff is the cmp.Diff of expected against actual output.
	Diff   string
	Failed bool
	Reason string
}

type SuiteOptions struct {
	Parallel int
	Loop     interpreter.LoopPolicy
	Logger   *slog.Logger
}

// DiscoverCases lists the golden programs directly inside dir in name order.
func DiscoverCases(dir string) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("suite: read %s: %w", dir, err)
	}
	var cases []Case
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != SourceExt {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), SourceExt)
		c := Case{
			Name:     base,
			Source:   filepath.Join(dir, entry.Name()),
			Expected: filepath.Join(dir, base+expectedExt),
		}
		if _, err := os.Stat(filepath.Join(dir, base+errorExt)); err == nil {
			c.ErrFile = filepath.Join(dir, base+errorExt)
		}
		cases = append(cases, c)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// RunSuite runs every case with its own interpreter and environment. Results
// come back in the order of cases. The returned error is only for problems
// running the suite itself, such as cancellation.
func RunSuite(ctx context.Context, cases []Case, opts SuiteOptions) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	results := make([]Result, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for idx, c := range cases {
		idx, c := idx, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[idx] = runCase(c, opts.Loop)
			logger.Debug("ran case", "case", c.Name, "failed", results[idx].Failed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runCase(c Case, loop interpreter.LoopPolicy) Result {
	res := Result{Case: c}
	src, err := os.ReadFile(c.Source)
	if err != nil {
		res.Failed, res.Reason = true, fmt.Sprintf("read source: %v", err)
		return res
	}
	var expected []byte
	if c.ErrFile == "" || fileExists(c.Expected) {
		expected, err = os.ReadFile(c.Expected)
		if err != nil {
			res.Failed, res.Reason = true, fmt.Sprintf("read expected output: %v", err)
			return res
		}
	}

	var out bytes.Buffer
	interp := interpreter.New(interpreter.WithStdout(&out), interpreter.WithLoopPolicy(loop))
	res.Err = interp.Run(string(src), nil)
	res.Output = out.String()

	if c.ErrFile != "" {
		want, err := os.ReadFile(c.ErrFile)
		if err != nil {
			res.Failed, res.Reason = true, fmt.Sprintf("read expected error: %v", err)
			return res
		}
		needle := strings.TrimSpace(string(want))
		switch {
		case res.Err == nil:
			res.Failed, res.Reason = true, fmt.Sprintf("expected error containing %q", needle)
			return res
		case !strings.Contains(res.Err.Error(), needle):
			res.Failed, res.Reason = true, fmt.Sprintf("error %q does not contain %q", res.Err.Error(), needle)
			return res
		}
	} else if res.Err != nil {
		res.Failed, res.Reason = true, res.Err.Error()
		return res
	}

	if expected != nil || c.ErrFile == "" {
		if diff := cmp.Diff(string(expected), res.Output); diff != "" {
			res.Diff = diff
			res.Failed, res.Reason = true, "output mismatch"
		}
	}
	return res
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Summary counts passed and failed results.
func Summary(results []Result) (passed, failed int) {
	for _, r := range results {
		if r.Failed {
			failed++
		} else {
			passed++
		}
	}
	return passed, failed
}

// FailureError returns nil when every result passed.
func FailureError(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Failed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Case.Name, r.Reason))
		}
	}
	return errors.Join(errs...)
}
