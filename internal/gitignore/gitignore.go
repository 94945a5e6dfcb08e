package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds compiled ignore rules. It is safe for concurrent use.
type Matcher struct {
	rules []rule
	mu    sync.RWMutex
}

type rule struct {
	pattern  string // as written
	glob     string // doublestar pattern relative to base
	negation bool
	dirOnly  bool
	base     string // slash-separated directory the rule is scoped to
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddPattern adds a rule that applies to the whole tree.
func (m *Matcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a rule that only applies under base.
// Blank lines, comments and invalid globs are ignored.
func (m *Matcher) AddPatternWithBase(pattern, base string) {
	r, ok := compile(pattern, base)
	if !ok {
		return
	}
	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFromFile reads rules from an ignore file. Errors from opening the
// file are returned unwrapped so callers can test os.IsNotExist.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPatternWithBase(scanner.Text(), base)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Len returns the number of compiled rules.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match reports whether path (relative, either separator) is ignored.
// A path inside an ignored directory is ignored regardless of negations,
// matching git's behavior.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = normalize(path)
	if path == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if m.matchOne(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return m.matchOne(path, isDir)
}

// matchOne evaluates rules in order; the last matching rule decides.
// m.mu must be held.
func (m *Matcher) matchOne(path string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		rel := path
		if r.base != "" {
			if !strings.HasPrefix(path, r.base+"/") {
				continue
			}
			rel = path[len(r.base)+1:]
		}
		if ok, _ := doublestar.Match(r.glob, rel); ok {
			ignored = !r.negation
		}
	}
	return ignored
}

func compile(pattern, base string) (rule, bool) {
	escapedSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)
	if escapedSpace {
		pattern += " "
	}
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return rule{}, false
	}

	r := rule{pattern: pattern, base: normalize(base)}
	p := pattern
	switch {
	case strings.HasPrefix(p, `\#`), strings.HasPrefix(p, `\!`):
		p = p[1:]
	case strings.HasPrefix(p, "!"):
		r.negation = true
		p = p[1:]
	}

	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return rule{}, false
	}

	// A slash anywhere but the end anchors the pattern to its base.
	anchored := strings.Contains(p, "/")
	p = strings.TrimPrefix(p, "/")
	if anchored {
		r.glob = p
	} else {
		r.glob = "**/" + p
	}
	if !doublestar.ValidatePattern(r.glob) {
		return rule{}, false
	}
	return r, true
}

func normalize(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.Trim(path, "/")
}

// ParsePatterns returns the effective rule lines of ignore-file content.
func ParsePatterns(content string) []string {
	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// MatchesAnyPattern reports whether path matches any of the given rules.
func MatchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	m := New()
	for _, p := range patterns {
		m.AddPattern(p)
	}
	return m.Match(path, false)
}
