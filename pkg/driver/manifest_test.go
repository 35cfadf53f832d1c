package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jnayee7/minilang/pkg/interpreter"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: demo
version: 0.1.0
requires: v0.1.0
main: src/main.mini
tests: [tests, more/tests]
loop:
  mode: while
  max_iterations: 100
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "demo" || m.Version != "0.1.0" || m.Main != "src/main.mini" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if got, want := m.MainPath(), filepath.Join(dir, "src", "main.mini"); got != want {
		t.Fatalf("MainPath = %s, want %s", got, want)
	}
	wantDirs := []string{filepath.Join(dir, "tests"), filepath.Join(dir, "more", "tests")}
	if diff := cmp.Diff(wantDirs, m.TestDirs()); diff != "" {
		t.Fatalf("test dirs mismatch (-want +got):\n%s", diff)
	}
	want := interpreter.LoopPolicy{Mode: interpreter.LoopWhile, Iterations: interpreter.DefaultLoopIterations, MaxIterations: 100}
	if diff := cmp.Diff(want, m.LoopPolicy()); diff != "" {
		t.Fatalf("loop policy mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(writeManifest(t, dir, "name: demo\nmain: main.mini\ntests: tests\n"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.LoopPolicy() != interpreter.DefaultLoopPolicy() {
		t.Fatalf("expected default loop policy, got %+v", m.LoopPolicy())
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "tests")}, m.TestDirs()); diff != "" {
		t.Fatalf("test dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
version: one
requires: latest
loop:
  mode: sometimes
  iterations: -2
source:
  git: ""
  tag: v1
  branch: main
`)
	_, err := LoadManifest(path)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, want := range []string{
		"name must be provided",
		`version "one" is not a semantic version`,
		`requires "latest" is not a semantic version`,
		"loop: unknown loop mode",
		"source: git URL must be provided",
		"source: exactly one of rev, tag, or branch must be provided",
		"source: path must be provided",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected issue %q in:\n%v", want, err)
		}
	}
}

func TestManifestRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadManifest(writeManifest(t, dir, "name: demo\nmain: a.mini\nentry: b.mini\n"))
	if err == nil || !strings.Contains(err.Error(), "entry") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestManifestEmpty(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadManifest(writeManifest(t, dir, ""))
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty manifest error, got %v", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "name: demo\nmain: main.mini\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("FindManifest: %v", err)
	}
	wantAbs, _ := filepath.Abs(want)
	if got != wantAbs {
		t.Fatalf("FindManifest = %s, want %s", got, wantAbs)
	}
}

func TestCheckTool(t *testing.T) {
	m := &Manifest{Name: "demo", Requires: "0.2.0"}
	if err := m.CheckTool("v0.2.1"); err != nil {
		t.Fatalf("newer tool rejected: %v", err)
	}
	if err := m.CheckTool("0.2.0"); err != nil {
		t.Fatalf("equal tool rejected: %v", err)
	}
	if err := m.CheckTool("v0.1.9"); err == nil || !strings.Contains(err.Error(), "requires mini v0.2.0 or newer") {
		t.Fatalf("expected version error, got %v", err)
	}
	if err := (&Manifest{Name: "demo"}).CheckTool("dev"); err != nil {
		t.Fatalf("no requirement should accept any tool: %v", err)
	}
}

func TestCanonicalVersion(t *testing.T) {
	cases := map[string]string{
		"1.2.3":   "v1.2.3",
		"v1.2":    "v1.2.0",
		" v0.1.0": "v0.1.0",
		"1.x":     "",
		"":        "",
	}
	for in, want := range cases {
		if got := CanonicalVersion(in); got != want {
			t.Errorf("CanonicalVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
