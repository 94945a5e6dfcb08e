// Package gitignore matches paths against ignore-file rules (.gitignore,
// .rooignore) using gitignore semantics on top of doublestar globs.
//
// Supported: wildcards (*, ?, **), rooted patterns (/build), negation
// (!keep.log), directory-only patterns (build/) and nested ignore files
// whose rules only apply below their own directory.
//
//	m := gitignore.New()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//	_ = m.AddFromFile("/repo/src/.gitignore", "src")
//
//	if m.Match("src/debug.log", false) {
//	    // ignored
//	}
package gitignore
