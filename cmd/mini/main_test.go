package main

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jnayee7/minilang/pkg/driver"
)

func TestRunFileDirect(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "main.mini", "let x 3;\nprint (x + 4) * 2;\nprint \" done\";\n")

	code, stdout, stderr := captureCLI(t, []string{path})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if stdout != "14 done" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunCommandLoopFlags(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "loop.mini", "loop 0 begin print \"x\"; end;\n")

	code, stdout, stderr := captureCLI(t, []string{"run", "--iterations", "2", path})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if stdout != "xx" {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	code, stdout, _ = captureCLI(t, []string{"run", "--loop", "while", path})
	if code != 0 || stdout != "" {
		t.Fatalf("while loop with false condition should not run: exit %d, stdout %q", code, stdout)
	}

	code, _, stderr = captureCLI(t, []string{"run", "--loop", "sometimes", path})
	if code != 2 || !strings.Contains(stderr, "unknown loop mode") {
		t.Fatalf("expected usage error, got exit %d stderr %q", code, stderr)
	}
}

func TestRunReportsRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "bad.mini", "print 1;\nprint y;\n")

	code, stdout, stderr := captureCLI(t, []string{"run", path})
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout != "1" {
		t.Fatalf("output before the error should be kept, got %q", stdout)
	}
	if !strings.Contains(stderr, "runtime error: line 2: Symbol y not defined") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestRunReportsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "bad.mini", "print 1\n")

	code, _, stderr := captureCLI(t, []string{path})
	if code != 1 || !strings.Contains(stderr, "syntax error") {
		t.Fatalf("expected syntax error, got exit %d stderr %q", code, stderr)
	}
}

func TestRunUsesManifest(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "src/main.mini", "let n 0;\nloop 1 begin let n n + 1; end;\nprint n;\n")
	writeProgram(t, dir, driver.ManifestName, "name: demo\nmain: src/main.mini\nloop:\n  iterations: 6\n")
	chdir(t, dir)

	code, stdout, stderr := captureCLI(t, []string{"run"})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if stdout != "6" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunRejectsNewerRequirement(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "main.mini", "print 1;\n")
	writeProgram(t, dir, driver.ManifestName, "name: demo\nmain: main.mini\nrequires: v99.0.0\n")
	chdir(t, dir)

	code, _, stderr := captureCLI(t, []string{"run"})
	if code != 1 || !strings.Contains(stderr, "requires mini v99.0.0 or newer") {
		t.Fatalf("expected version error, got exit %d stderr %q", code, stderr)
	}
}

func TestAstCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "main.mini", "let x 1;\nprint !x;\n")

	code, stdout, stderr := captureCLI(t, []string{"ast", "--sexpr", path})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "(block (let x 1) (print (! x)))" {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	code, stdout, stderr = captureCLI(t, []string{"ast", "--json", path})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if decoded["type"] != "StatementList" {
		t.Fatalf("unexpected root %v", decoded["type"])
	}

	code, stdout, _ = captureCLI(t, []string{"ast", path})
	if code != 0 || !strings.Contains(stdout, "ast.Let") {
		t.Fatalf("expected pretty dump, got exit %d stdout %q", code, stdout)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeProgram(t, dir, "good.mini", "let x 1;\nprint x;\n")
	bad := writeProgram(t, dir, "bad.mini", "print y;\n")

	if code, stdout, stderr := captureCLI(t, []string{"check", good}); code != 0 || stdout != "" {
		t.Fatalf("expected clean check, got exit %d stdout %q stderr %q", code, stdout, stderr)
	}
	code, stdout, _ := captureCLI(t, []string{"check", good, bad})
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout, "bad.mini:line 1: error: Symbol y not defined") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	tests := filepath.Join(dir, "tests")
	writeProgram(t, tests, "sum.mini", "print 1 + 2;\n")
	writeProgram(t, tests, "sum.out", "3")
	writeProgram(t, tests, "concat.mini", "print \"a\" + \"b\";\n")
	writeProgram(t, tests, "concat.out", "ab")

	code, stdout, stderr := captureCLI(t, []string{"test", "-j", "2", tests})
	if code != 0 {
		t.Fatalf("exit %d, stdout %q stderr %q", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "2 passed, 0 failed") {
		t.Fatalf("unexpected summary %q", stdout)
	}

	writeProgram(t, tests, "sum.out", "4")
	code, stdout, _ = captureCLI(t, []string{"test", tests})
	if code != 1 || !strings.Contains(stdout, "FAIL sum: output mismatch") {
		t.Fatalf("expected failing case, got exit %d stdout %q", code, stdout)
	}
}

func TestFetchCommand(t *testing.T) {
	repoDir := t.TempDir()
	writeProgram(t, repoDir, "prog/main.mini", "print \"from git\";\n")
	commit := initGitRepo(t, repoDir)

	t.Setenv("MINI_HOME", t.TempDir())
	project := t.TempDir()
	writeProgram(t, project, driver.ManifestName, "name: remote\nsource:\n  git: "+repoDir+"\n  rev: "+commit+"\n  path: prog/main.mini\n")
	chdir(t, project)

	code, stdout, stderr := captureCLI(t, []string{"fetch"})
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "fetched "+repoDir+"@"+commit) {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	lock, err := driver.LoadLockfile(filepath.Join(project, driver.LockfileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if lock.Source == nil || lock.Source.Commit != commit {
		t.Fatalf("unexpected lock %+v", lock.Source)
	}

	code, stdout, stderr = captureCLI(t, []string{"run"})
	if code != 0 || stdout != "from git" {
		t.Fatalf("run from fetched source: exit %d stdout %q stderr %q", code, stdout, stderr)
	}
}

func TestReplSession(t *testing.T) {
	var out, errOut bytes.Buffer
	session := newReplSession(&out)

	session.handle("let x 2;", &errOut)
	session.handle("print x * 21;", &errOut)
	session.handle("print y;", &errOut)
	session.handle(":env", &errOut)
	session.handle(":reset", &errOut)
	session.handle(":env", &errOut)
	if quit := session.handle(":quit", &errOut); !quit {
		t.Fatalf(":quit should end the session")
	}

	if out.String() != "42\nx = 2\n" {
		t.Fatalf("unexpected repl output %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Symbol y not defined") {
		t.Fatalf("unexpected repl errors %q", errOut.String())
	}
}

func TestUsageAndVersion(t *testing.T) {
	if code, _, _ := captureCLI(t, nil); code != 2 {
		t.Fatalf("expected exit 2 without arguments, got %d", code)
	}
	code, stdout, _ := captureCLI(t, []string{"version"})
	if code != 0 || strings.TrimSpace(stdout) != "mini "+cliToolVersion {
		t.Fatalf("unexpected version output %q", stdout)
	}
	if code, _, stderr := captureCLI(t, []string{"frobnicate"}); code != 2 || !strings.Contains(stderr, "unknown command") {
		t.Fatalf("expected unknown command, got exit %d stderr %q", code, stderr)
	}
}

func writeProgram(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "mini",
			Email: "mini@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outCh := make(chan []byte)
	errCh := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(rOut)
		outCh <- data
	}()
	go func() {
		data, _ := io.ReadAll(rErr)
		errCh <- data
	}()

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes := <-outCh
	errBytes := <-errCh
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
