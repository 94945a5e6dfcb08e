package gitignore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		expected bool
	}{
		{name: "exact filename", patterns: []string{"foo.txt"}, path: "foo.txt", expected: true},
		{name: "filename in subdir", patterns: []string{"foo.txt"}, path: "a/b/foo.txt", expected: true},
		{name: "different filename", patterns: []string{"foo.txt"}, path: "bar.txt", expected: false},
		{name: "extension wildcard", patterns: []string{"*.log"}, path: "logs/error.log", expected: true},
		{name: "extension mismatch", patterns: []string{"*.log"}, path: "error.txt", expected: false},
		{name: "prefix wildcard", patterns: []string{"test*"}, path: "testfile.go", expected: true},
		{name: "question mark", patterns: []string{"file?.txt"}, path: "file1.txt", expected: true},
		{name: "double star middle", patterns: []string{"a/**/z.go"}, path: "a/b/c/z.go", expected: true},
		{name: "double star zero dirs", patterns: []string{"a/**/z.go"}, path: "a/z.go", expected: true},
		{name: "rooted at top", patterns: []string{"/build"}, path: "build", isDir: true, expected: true},
		{name: "rooted not nested", patterns: []string{"/build"}, path: "src/build", isDir: true, expected: false},
		{name: "slash anchors", patterns: []string{"doc/frotz"}, path: "a/doc/frotz", expected: false},
		{name: "dir only matches dir", patterns: []string{"node_modules/"}, path: "node_modules", isDir: true, expected: true},
		{name: "dir only skips file", patterns: []string{"node_modules/"}, path: "node_modules", isDir: false, expected: false},
		{name: "inside ignored dir", patterns: []string{"node_modules/"}, path: "web/node_modules/react/index.js", expected: true},
		{name: "negation", patterns: []string{"*.log", "!important.log"}, path: "important.log", expected: false},
		{name: "negation keeps others", patterns: []string{"*.log", "!important.log"}, path: "debug.log", expected: true},
		{name: "last rule wins", patterns: []string{"!keep.log", "*.log"}, path: "keep.log", expected: true},
		{name: "negation cannot escape ignored dir", patterns: []string{"out/", "!out/keep.txt"}, path: "out/keep.txt", expected: true},
		{name: "escaped hash", patterns: []string{`\#notes`}, path: "#notes", expected: true},
		{name: "escaped bang", patterns: []string{`\!bang`}, path: "!bang", expected: true},
		{name: "leading dot slash", patterns: []string{"/vendor/"}, path: "./vendor/x.go", expected: true},
		{name: "empty path", patterns: []string{"*"}, path: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, p := range tt.patterns {
				m.AddPattern(p)
			}
			assert.Equal(t, tt.expected, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_SkipsCommentsAndBlanks(t *testing.T) {
	m := New()
	m.AddPattern("")
	m.AddPattern("   ")
	m.AddPattern("# comment")
	m.AddPattern("!")
	m.AddPattern("/")

	assert.Zero(t, m.Len())
}

func TestMatcher_AddPatternWithBase(t *testing.T) {
	// Given: a rule scoped to src
	m := New()
	m.AddPatternWithBase("*.gen.go", "src")

	// Then: it applies below src only
	assert.True(t, m.Match("src/api.gen.go", false))
	assert.True(t, m.Match("src/deep/api.gen.go", false))
	assert.False(t, m.Match("api.gen.go", false))
	assert.False(t, m.Match("lib/api.gen.go", false))
}

func TestMatcher_AddFromFile(t *testing.T) {
	// Given: an ignore file on disk
	dir := t.TempDir()
	path := filepath.Join(dir, ".rooignore")
	content := "# generated\n*.pb.go\n\n/dist/\n!keep.pb.go\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When: loading it
	m := New()
	require.NoError(t, m.AddFromFile(path, ""))

	// Then: its rules apply
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Match("api/v1.pb.go", false))
	assert.False(t, m.Match("keep.pb.go", false))
	assert.True(t, m.Match("dist/app.js", false))
}

func TestMatcher_AddFromFile_Missing(t *testing.T) {
	m := New()
	err := m.AddFromFile(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.AddPattern("*.tmp")
		}()
		go func() {
			defer wg.Done()
			_ = m.Match("a/b.tmp", false)
		}()
	}
	wg.Wait()

	assert.True(t, m.Match("x.tmp", false))
}

func TestParsePatterns(t *testing.T) {
	got := ParsePatterns("# header\n*.log\n\n  build/  \n#tail\n")
	assert.Equal(t, []string{"*.log", "build/"}, got)
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.True(t, MatchesAnyPattern("vendor/pkg/a.go", []string{"vendor/"}))
	assert.False(t, MatchesAnyPattern("main.go", []string{"vendor/", "*.md"}))
	assert.False(t, MatchesAnyPattern("main.go", nil))
}

func TestLoadTree(t *testing.T) {
	// Given: root and nested ignore files of two kinds
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "web", "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "web", ".rooignore"), []byte("*.snap\n"), 0o644))

	// When: loading the tree with an extra pattern
	m := LoadTree(root, []string{".gitignore", ".rooignore"}, "secrets/")

	// Then: each rule applies in its own scope
	assert.True(t, m.Match("a.log", false))
	assert.True(t, m.Match("web/src/ui.snap", false))
	assert.False(t, m.Match("ui.snap", false))
	assert.True(t, m.Match("secrets/key.pem", false))
	assert.False(t, m.Match("web/src/ui.ts", false))
}

func TestLoadTree_NoNames(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))

	m := LoadTree(root, nil)
	assert.False(t, m.Match("a.log", false))
}
