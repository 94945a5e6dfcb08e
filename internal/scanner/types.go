// Package scanner discovers indexable files in a workspace and accounts for
// every file it rejects, producing the discovery funnel shown in status.
package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes a file accepted for indexing.
type FileInfo struct {
	Path     string // slash-separated, relative to the workspace root
	AbsPath  string
	Size     int64
	ModTime  time.Time
	Language string
}

// Verdict is the outcome of classifying one file.
type Verdict int

const (
	Accepted Verdict = iota
	FilteredByIgnore
	FilteredByExtension
	SkippedBySize
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case FilteredByIgnore:
		return "ignored"
	case FilteredByExtension:
		return "extension"
	case SkippedBySize:
		return "size"
	default:
		return "unknown"
	}
}

// Funnel counts files at each discovery stage. Discovered is the sum of the
// other four.
type Funnel struct {
	Discovered          int
	FilteredByIgnore    int
	FilteredByExtension int
	SkippedBySize       int
	Accepted            int
}

func (f *Funnel) count(v Verdict) {
	f.Discovered++
	switch v {
	case Accepted:
		f.Accepted++
	case FilteredByIgnore:
		f.FilteredByIgnore++
	case FilteredByExtension:
		f.FilteredByExtension++
	case SkippedBySize:
		f.SkippedBySize++
	}
}

// Options configures discovery.
type Options struct {
	// Extensions lists accepted extensions including the dot, or exact file
	// names such as Dockerfile. Empty means DefaultExtensions.
	Extensions []string

	// ExcludeDirs are directory names that are never entered.
	ExcludeDirs []string

	// ExcludePatterns are extra rules in gitignore syntax.
	ExcludePatterns []string

	// IgnoreFiles are the ignore-file names honored in every directory.
	IgnoreFiles []string

	// MaxFileSize in bytes; 0 means DefaultMaxFileSize.
	MaxFileSize int64
}

// DefaultMaxFileSize is the largest file indexed by default (1 MiB).
const DefaultMaxFileSize = 1 << 20

// DefaultExcludeDirs are skipped in every workspace.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", ".codeindex", "node_modules", "vendor",
	"dist", "build", "out", "target", "__pycache__", ".venv", ".idea", ".vscode",
}

// DefaultIgnoreFiles are the ignore files honored by default.
var DefaultIgnoreFiles = []string{".gitignore", ".rooignore"}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		ExcludeDirs: DefaultExcludeDirs,
		IgnoreFiles: DefaultIgnoreFiles,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// languageMap maps file extensions and well-known file names to languages.
// Its keys are the default accepted extensions.
var languageMap = map[string]string{
	".go":      "go",
	".js":      "javascript",
	".jsx":     "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".ts":      "typescript",
	".tsx":     "typescript",
	".py":      "python",
	".pyi":     "python",
	".rb":      "ruby",
	".rs":      "rust",
	".java":    "java",
	".kt":      "kotlin",
	".kts":     "kotlin",
	".c":       "c",
	".h":       "c",
	".cpp":     "cpp",
	".hpp":     "cpp",
	".cc":      "cpp",
	".cs":      "csharp",
	".swift":   "swift",
	".php":     "php",
	".scala":   "scala",
	".ex":      "elixir",
	".exs":     "elixir",
	".lua":     "lua",
	".sh":      "shell",
	".bash":    "shell",
	".sql":     "sql",
	".vue":     "vue",
	".svelte":  "svelte",
	".html":    "html",
	".css":     "css",
	".scss":    "scss",
	".json":    "json",
	".yaml":    "yaml",
	".yml":     "yaml",
	".toml":    "toml",
	".xml":     "xml",
	".md":      "markdown",
	".mdx":     "markdown",
	".proto":   "protobuf",
	".graphql": "graphql",
	".sol":     "solidity",
	".zig":     "zig",
	".el":      "elisp",
	".ml":      "ocaml",
	".elm":     "elm",

	"Dockerfile": "dockerfile",
	"Makefile":   "makefile",
}

// DetectLanguage returns the language for path, or "" when unknown.
// Exact file names win over extensions.
func DetectLanguage(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	if lang, ok := languageMap[base]; ok {
		return lang
	}
	return languageMap[strings.ToLower(filepath.Ext(base))]
}
