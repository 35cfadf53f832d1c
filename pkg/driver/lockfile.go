package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lockfile records the exact revision a fetched source resolved to.
type Lockfile struct {
	Path      string
	Generated string
	Tool      string
	Source    *LockedSource
}

type LockedSource struct {
	Git      string
	Ref      string
	Commit   string
	Path     string
	Checksum string
}

func NewLockfile(tool string) *Lockfile {
	return &Lockfile{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
	}
}

// LoadLockfile parses mini.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}
	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile writes lock to path, or to lock.Path when path is empty.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

type lockfileDisk struct {
	Generated string          `yaml:"generated"`
	Tool      string          `yaml:"tool"`
	Source    *lockfileSource `yaml:"source,omitempty"`
}

type lockfileSource struct {
	Git      string `yaml:"git"`
	Ref      string `yaml:"ref"`
	Commit   string `yaml:"commit"`
	Path     string `yaml:"path"`
	Checksum string `yaml:"checksum"`
}

func (l *Lockfile) toDisk() lockfileDisk {
	disk := lockfileDisk{Generated: l.Generated, Tool: l.Tool}
	if l.Source != nil {
		disk.Source = &lockfileSource{
			Git:      l.Source.Git,
			Ref:      l.Source.Ref,
			Commit:   l.Source.Commit,
			Path:     l.Source.Path,
			Checksum: l.Source.Checksum,
		}
	}
	return disk
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Generated: strings.TrimSpace(d.Generated),
		Tool:      strings.TrimSpace(d.Tool),
	}
	if d.Source != nil {
		lock.Source = &LockedSource{
			Git:      strings.TrimSpace(d.Source.Git),
			Ref:      strings.TrimSpace(d.Source.Ref),
			Commit:   strings.TrimSpace(d.Source.Commit),
			Path:     strings.TrimSpace(d.Source.Path),
			Checksum: strings.TrimSpace(d.Source.Checksum),
		}
	}
	return lock
}
