package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Checkout is a program source materialized in the local cache.
type Checkout struct {
	Dir      string
	Entry    string
	Version  string
	Commit   string
	Checksum string
}

// Locked describes the checkout for mini.lock.
func (c *Checkout) Locked(spec *SourceSpec) *LockedSource {
	_, ref, _ := gitRevisionFromSpec(spec)
	return &LockedSource{
		Git:      spec.Git,
		Ref:      ref,
		Commit:   c.Commit,
		Path:     spec.Path,
		Checksum: c.Checksum,
	}
}

// Fetcher clones git sources into <home>/src.
type Fetcher struct {
	cacheDir string
	logger   *slog.Logger
}

func NewFetcher(home string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{cacheDir: filepath.Join(home, "src"), logger: logger}
}

// Fetch clones spec.Git for project name, checks out the requested revision
// and returns where the entry program lives. Revisions pinned by rev that are
// already cached are reused without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, name string, spec *SourceSpec) (*Checkout, error) {
	if f == nil || f.cacheDir == "" {
		return nil, errors.New("git fetcher unavailable")
	}
	if spec == nil {
		return nil, fmt.Errorf("project %q has no source", name)
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("project %q: git URL required", name)
	}

	baseDir := filepath.Join(f.cacheDir, sanitizePathSegment(name))
	version, commit, err := f.ensureGitCheckout(ctx, baseDir, url, spec)
	if err != nil {
		return nil, err
	}

	checkoutDir := filepath.Join(baseDir, sanitizePathSegment(version))
	entry := filepath.Join(checkoutDir, filepath.FromSlash(spec.Path))
	if info, err := os.Stat(entry); err != nil || info.IsDir() {
		return nil, fmt.Errorf("project %q: %s not found in %s@%s", name, spec.Path, url, version)
	}
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, err
	}
	f.logger.Info("fetched source", "project", name, "version", version, "commit", commit)
	return &Checkout{
		Dir:      checkoutDir,
		Entry:    entry,
		Version:  version,
		Commit:   commit,
		Checksum: checksum,
	}, nil
}

func (f *Fetcher) ensureGitCheckout(ctx context.Context, baseDir, url string, spec *SourceSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return "", "", err
	}

	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(rev))
		if _, err := os.Stat(existing); err == nil {
			f.logger.Debug("using cached checkout", "dir", existing)
			return rev, rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	f.logger.Debug("cloning", "url", url, "revision", string(revision))
	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func gitRevisionFromSpec(spec *SourceSpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git sources require rev, tag, or branch")
}

// dirChecksum hashes file names and contents below path, skipping .git.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ResolveHome returns the cache root: $MINI_HOME, or ~/.mini.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("MINI_HOME")); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, ".mini"), nil
}
