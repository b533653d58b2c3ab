// Package manifest reads npm package manifests and flattens their dependencies.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// FileName is the manifest file looked up at the project root.
const FileName = "package.json"

// LockFileName is the lockfile npm audit needs next to the manifest.
const LockFileName = "package-lock.json"

// Dependency scopes.
const (
	ScopeDependencies    = "dependencies"
	ScopeDevDependencies = "devDependencies"
)

// ErrNoManifest is returned when the manifest file does not exist.
var ErrNoManifest = errors.New("manifest not found")

// Manifest is the subset of package.json the report needs.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`

	lines []string
}

// DependencyRef is one declared dependency.
type DependencyRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Scope   string `json:"scope"`
	Line    int    `json:"line"`
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes manifest content.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	m.lines = strings.Split(string(data), "\n")
	return m, nil
}

// Extract flattens direct and dev dependencies into one list: direct
// dependencies first, then dev dependencies, each sorted by name.
// A nil manifest yields an empty list.
func Extract(m *Manifest) []DependencyRef {
	refs := make([]DependencyRef, 0)
	if m == nil {
		return refs
	}
	refs = append(refs, m.scope(ScopeDependencies, m.Dependencies)...)
	refs = append(refs, m.scope(ScopeDevDependencies, m.DevDependencies)...)
	return refs
}

func (m *Manifest) scope(scope string, deps map[string]string) []DependencyRef {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	block, offset := m.blockStart(scope)
	refs := make([]DependencyRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, DependencyRef{
			Name:    name,
			Version: deps[name],
			Scope:   scope,
			Line:    m.declarationLine(block, offset, name),
		})
	}
	return refs
}

// blockStart returns the index of the line declaring the scope key and the
// byte offset right after the key, or -1 when the scope is not declared.
func (m *Manifest) blockStart(scope string) (int, int) {
	re := keyPattern(scope)
	for i, line := range m.lines {
		if loc := re.FindStringIndex(line); loc != nil {
			return i, loc[1]
		}
	}
	return -1, 0
}

// declarationLine returns the 1-based line declaring name as a direct member
// of the object that follows the scope key at line index block and byte
// offset, or 0 when it cannot be located. Braces inside strings and nested
// objects do not end the block.
func (m *Manifest) declarationLine(block, offset int, name string) int {
	if block < 0 {
		return 0
	}
	key := regexp.MustCompile(`^"` + regexp.QuoteMeta(name) + `"\s*:`)

	depth := 0
	inString, escaped := false, false
	for i := block; i < len(m.lines); i++ {
		line := m.lines[i]
		start := 0
		if i == block {
			start = offset
		}
		for j := start; j < len(line); j++ {
			c := line[j]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				if depth == 1 && key.MatchString(line[j:]) {
					return i + 1
				}
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth <= 0 {
					return 0
				}
			}
		}
	}
	return 0
}

func keyPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:`)
}

// LoadDependencies loads the manifest at path and extracts its dependencies.
// A missing or malformed manifest is logged and yields an empty list together
// with a nil manifest.
func LoadDependencies(path string, logger hclog.Logger) (*Manifest, []DependencyRef) {
	m, err := Load(path)
	if err != nil {
		if errors.Is(err, ErrNoManifest) {
			logger.Info("unable to locate base package information, dependency correlation is degraded", "path", path)
		} else {
			logger.Warn("unable to read package information", "path", path, "error", err)
		}
		return nil, Extract(nil)
	}
	return m, Extract(m)
}
