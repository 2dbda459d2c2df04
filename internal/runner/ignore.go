package runner

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// builtinIgnores are always skipped regardless of .gitignore contents:
// bytecode caches, pytest state, hidden paths, dunder directories and
// test trees (tests never make good fill-in-the-middle sources).
var builtinIgnores = []string{
	"*__pycache__*",
	"*.pytest_cache*",
	".*",
	"__*__",
	"tests",
}

// ParseGitignore reads the repository's .gitignore and returns its
// patterns (anchored to the repo path when relative) plus the built-in
// ignore set. A missing .gitignore yields just the built-ins.
func ParseGitignore(repoPath string) []string {
	var patterns []string

	f, err := os.Open(filepath.Join(repoPath, ".gitignore"))
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !filepath.IsAbs(line) {
				line = filepath.Join(repoPath, line)
			}
			patterns = append(patterns, line)
		}
	}

	return append(patterns, builtinIgnores...)
}

// ShouldIgnore reports whether the path matches any ignore pattern,
// testing both the absolute path and the base name. Patterns use
// fnmatch semantics: * and ? match across path separators, which
// filepath.Match deliberately does not do.
func ShouldIgnore(path string, patterns []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if fnmatch(pattern, abs) || fnmatch(pattern, base) {
			return true
		}
	}
	return false
}

func fnmatch(pattern, name string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
