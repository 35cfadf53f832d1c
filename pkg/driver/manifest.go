package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/jnayee7/minilang/pkg/interpreter"
)

const (
	ManifestName = "mini.yml"
	LockfileName = "mini.lock"

	defaultTestsDir = "tests"
)

// Manifest represents the parsed contents of mini.yml.
type Manifest struct {
	Path     string
	Name     string
	Version  string
	Requires string
	Main     string
	Tests    []string
	Loop     LoopSpec
	Source   *SourceSpec
}

// LoopSpec is the loop section of the manifest.
type LoopSpec struct {
	Mode          string
	Iterations    int
	MaxIterations int
}

// SourceSpec points at a program kept in a git repository.
type SourceSpec struct {
	Git    string
	Rev    string
	Tag    string
	Branch string
	Path   string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses mini.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks upward from start until it finds a mini.yml.
func FindManifest(start string) (string, error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("manifest: %s not found from %s", ManifestName, start)
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Version != "" && CanonicalVersion(m.Version) == "" {
		errs.Issues = append(errs.Issues, fmt.Sprintf("version %q is not a semantic version", m.Version))
	}
	if m.Requires != "" && CanonicalVersion(m.Requires) == "" {
		errs.Issues = append(errs.Issues, fmt.Sprintf("requires %q is not a semantic version", m.Requires))
	}
	if m.Main == "" && m.Source == nil {
		errs.Issues = append(errs.Issues, "main or source must be provided")
	}
	if filepath.IsAbs(m.Main) {
		errs.Issues = append(errs.Issues, "main must be relative to the manifest")
	}
	if err := m.LoopPolicy().Validate(); err != nil {
		errs.Issues = append(errs.Issues, "loop: "+err.Error())
	}
	if m.Source != nil {
		for _, issue := range m.Source.validate() {
			errs.Issues = append(errs.Issues, "source: "+issue)
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Dir is the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// MainPath resolves the entry program relative to the manifest.
func (m *Manifest) MainPath() string {
	if m.Main == "" {
		return ""
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(m.Main))
}

// TestDirs resolves the golden test directories relative to the manifest.
func (m *Manifest) TestDirs() []string {
	dirs := m.Tests
	if len(dirs) == 0 {
		dirs = []string{defaultTestsDir}
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, filepath.Join(m.Dir(), filepath.FromSlash(dir)))
	}
	return out
}

// LoopPolicy converts the loop section into interpreter settings. Unset
// fields fall back to the interpreter defaults.
func (m *Manifest) LoopPolicy() interpreter.LoopPolicy {
	policy := interpreter.DefaultLoopPolicy()
	if m.Loop.Mode != "" {
		policy.Mode = interpreter.LoopMode(strings.ToLower(m.Loop.Mode))
	}
	if m.Loop.Iterations != 0 {
		policy.Iterations = m.Loop.Iterations
	}
	policy.MaxIterations = m.Loop.MaxIterations
	return policy
}

// CheckTool fails when the manifest requires a newer tool than version.
func (m *Manifest) CheckTool(version string) error {
	if m.Requires == "" {
		return nil
	}
	have := CanonicalVersion(version)
	if have == "" {
		return fmt.Errorf("manifest: tool version %q is not a semantic version", version)
	}
	want := CanonicalVersion(m.Requires)
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("manifest: %s requires mini %s or newer, have %s", m.Name, want, have)
	}
	return nil
}

// CanonicalVersion normalizes a semantic version, accepting it with or
// without the leading "v". It returns "" for invalid input.
func CanonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

func (s *SourceSpec) validate() []string {
	var errs []string
	if s.Git == "" {
		errs = append(errs, "git URL must be provided")
	}
	refs := 0
	for _, ref := range []string{s.Rev, s.Tag, s.Branch} {
		if ref != "" {
			refs++
		}
	}
	if refs != 1 {
		errs = append(errs, "exactly one of rev, tag, or branch must be provided")
	}
	if s.Path == "" {
		errs = append(errs, "path must be provided")
	} else if filepath.IsAbs(s.Path) {
		errs = append(errs, "path must be relative to the repository root")
	}
	return errs
}

type manifestFile struct {
	Name     string      `yaml:"name"`
	Version  string      `yaml:"version"`
	Requires string      `yaml:"requires"`
	Main     string      `yaml:"main"`
	Tests    stringList  `yaml:"tests"`
	Loop     loopFile    `yaml:"loop"`
	Source   *sourceFile `yaml:"source"`
}

type loopFile struct {
	Mode          string `yaml:"mode"`
	Iterations    int    `yaml:"iterations"`
	MaxIterations int    `yaml:"max_iterations"`
}

type sourceFile struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

func (mf manifestFile) toManifest(path string) *Manifest {
	m := &Manifest{
		Path:     path,
		Name:     strings.TrimSpace(mf.Name),
		Version:  strings.TrimSpace(mf.Version),
		Requires: strings.TrimSpace(mf.Requires),
		Main:     strings.TrimSpace(mf.Main),
		Tests:    mf.Tests.Clone(),
		Loop: LoopSpec{
			Mode:          strings.TrimSpace(mf.Loop.Mode),
			Iterations:    mf.Loop.Iterations,
			MaxIterations: mf.Loop.MaxIterations,
		},
	}
	if mf.Source != nil {
		m.Source = &SourceSpec{
			Git:    strings.TrimSpace(mf.Source.Git),
			Rev:    strings.TrimSpace(mf.Source.Rev),
			Tag:    strings.TrimSpace(mf.Source.Tag),
			Branch: strings.TrimSpace(mf.Source.Branch),
			Path:   strings.TrimSpace(mf.Source.Path),
		}
	}
	return m
}

// stringList accepts either a single string or a sequence of strings.
type stringList []string

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}
