package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

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

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFetchGitSource(t *testing.T) {
	repoDir := t.TempDir()
	writeFile(t, filepath.Join(repoDir, "src", "main.mini"), "print \"remote\";\n")
	commit := initGitRepo(t, repoDir)

	home := t.TempDir()
	fetcher := NewFetcher(home, nil)
	spec := &SourceSpec{Git: repoDir, Rev: commit, Path: "src/main.mini"}
	checkout, err := fetcher.Fetch(context.Background(), "demo", spec)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if checkout.Commit != commit || checkout.Version != commit {
		t.Fatalf("unexpected checkout %+v", checkout)
	}
	if !strings.HasPrefix(checkout.Dir, filepath.Join(home, "src", "demo")) {
		t.Fatalf("checkout outside cache: %s", checkout.Dir)
	}
	data, err := os.ReadFile(checkout.Entry)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(data) != "print \"remote\";\n" {
		t.Fatalf("unexpected entry contents %q", data)
	}
	if checkout.Checksum == "" {
		t.Fatalf("expected checksum")
	}

	// A pinned revision is served from the cache even if the remote is gone.
	if err := os.RemoveAll(repoDir); err != nil {
		t.Fatalf("remove repo: %v", err)
	}
	again, err := fetcher.Fetch(context.Background(), "demo", spec)
	if err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if again.Checksum != checkout.Checksum {
		t.Fatalf("checksum changed: %s vs %s", again.Checksum, checkout.Checksum)
	}

	locked := checkout.Locked(spec)
	if locked.Ref != commit || locked.Commit != commit || locked.Path != "src/main.mini" {
		t.Fatalf("unexpected locked source %+v", locked)
	}
}

func TestFetchBranch(t *testing.T) {
	repoDir := t.TempDir()
	writeFile(t, filepath.Join(repoDir, "main.mini"), "print 1;\n")
	commit := initGitRepo(t, repoDir)

	checkout, err := NewFetcher(t.TempDir(), nil).Fetch(context.Background(), "demo", &SourceSpec{Git: repoDir, Branch: "master", Path: "main.mini"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if checkout.Version != "master@"+commit {
		t.Fatalf("unexpected version %s", checkout.Version)
	}
}

func TestFetchMissingEntry(t *testing.T) {
	repoDir := t.TempDir()
	writeFile(t, filepath.Join(repoDir, "main.mini"), "print 1;\n")
	commit := initGitRepo(t, repoDir)

	_, err := NewFetcher(t.TempDir(), nil).Fetch(context.Background(), "demo", &SourceSpec{Git: repoDir, Rev: commit, Path: "other.mini"})
	if err == nil || !strings.Contains(err.Error(), "other.mini not found") {
		t.Fatalf("expected missing entry error, got %v", err)
	}
}

func TestGitRevisionFromSpec(t *testing.T) {
	cases := []struct {
		spec SourceSpec
		rev  string
		desc string
	}{
		{SourceSpec{Rev: "abc"}, "abc", "abc"},
		{SourceSpec{Tag: "v1"}, "refs/tags/v1", "v1"},
		{SourceSpec{Branch: "main"}, "refs/heads/main", "main"},
	}
	for _, tc := range cases {
		rev, desc, err := gitRevisionFromSpec(&tc.spec)
		if err != nil {
			t.Fatalf("gitRevisionFromSpec(%+v): %v", tc.spec, err)
		}
		if string(rev) != tc.rev || desc != tc.desc {
			t.Fatalf("got (%s, %s), want (%s, %s)", rev, desc, tc.rev, tc.desc)
		}
	}
	if _, _, err := gitRevisionFromSpec(&SourceSpec{}); err == nil {
		t.Fatalf("expected error without a revision")
	}
}

func TestSanitizePathSegment(t *testing.T) {
	if got := sanitizePathSegment("main@1a2b/c d"); got != "main_1a2b_c_d" {
		t.Fatalf("unexpected segment %q", got)
	}
	if got := sanitizePathSegment("  "); got != "head" {
		t.Fatalf("unexpected empty segment %q", got)
	}
}

func TestResolveHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MINI_HOME", dir)
	got, err := ResolveHome()
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if got != dir {
		t.Fatalf("ResolveHome = %s, want %s", got, dir)
	}
}
