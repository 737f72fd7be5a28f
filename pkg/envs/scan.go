package envs

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/charmbracelet/log"
)

// defaultSkipDirs are directory names never descended into: build artifacts,
// dependency caches, revision-control metadata, and cache-archive patterns
// with glob-style version wildcards.
var defaultSkipDirs = []string{
	"node_modules",
	".git",
	".hg",
	".svn",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".ruff_cache",
	".tox",
	".nox",
	".cache",
	"dist",
	"build",
	"site-packages",
	"*.egg-info",
	"python3.*",
	"cpython-3.*",
}

// Candidate is a directory the scanner classified as a qualifying
// environment, with its detected provenance.
type Candidate struct {
	Path       string
	Provenance Provenance
}

// Scanner walks a directory tree looking for interpreter environments.
// Discovery is pure: the scanner never mutates the registry; registration is
// a separate step performed by the caller with the returned candidate set.
type Scanner struct {
	// SkipDirs are directory names or glob patterns skipped entirely,
	// merged with the built-in defaults.
	SkipDirs []string

	// ExcludePatterns are compiled path filters; a directory whose absolute
	// path matches any pattern is skipped entirely.
	ExcludePatterns []*regexp.Regexp

	Logger *log.Logger
}

// NewScanner builds a scanner with the default skip list plus extraSkips and
// the given exclude regexes.
func NewScanner(extraSkips []string, excludePatterns []*regexp.Regexp, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		SkipDirs:        append(append([]string{}, defaultSkipDirs...), extraSkips...),
		ExcludePatterns: excludePatterns,
		Logger:          logger,
	}
}

// Scan walks the tree rooted at root up to maxDepth (depth 0 is root itself)
// and returns qualifying environments sorted by path. A directory classified
// as an environment is not recursed into: its interior is not a further
// environment. Unreadable directories are skipped, not fatal.
func (s *Scanner) Scan(root string, maxDepth int) ([]Candidate, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var found []Candidate
	s.walk(abs, 0, maxDepth, &found)

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

func (s *Scanner) walk(dir string, depth, maxDepth int, found *[]Candidate) {
	if depth > maxDepth {
		return
	}
	if s.excluded(dir) {
		s.Logger.Debug("scan: excluded by pattern", "dir", dir)
		return
	}

	if IsEnvironment(dir) {
		*found = append(*found, Candidate{Path: dir, Provenance: DetectProvenance(dir)})
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.Logger.Debug("scan: unreadable directory skipped", "dir", dir, "err", err)
		return
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if s.skipName(e.Name()) {
			continue
		}
		s.walk(filepath.Join(dir, e.Name()), depth+1, maxDepth, found)
	}
}

// skipName reports whether a directory name matches the skip list. Entries
// may be literal names or glob patterns.
func (s *Scanner) skipName(name string) bool {
	for _, skip := range s.SkipDirs {
		if skip == name {
			return true
		}
		if ok, err := filepath.Match(skip, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(path string) bool {
	for _, pat := range s.ExcludePatterns {
		if pat.MatchString(path) {
			return true
		}
	}
	return false
}
