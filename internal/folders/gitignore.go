package folders

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreRule is one parsed .gitignore line.
type ignoreRule struct {
	pattern  string // relative to the tree root, slash separated
	negation bool   // starts with !
	dirOnly  bool   // ends with /
	anchored bool   // contains a / other than a trailing one
}

// Gitignore matches root-relative paths against the .gitignore files found
// while walking a tree. Later rules win, so nested files override their parents.
type Gitignore struct {
	rules []ignoreRule
}

// with returns g extended by the rules in dir/.gitignore. g is not modified,
// which keeps rules from one subtree out of its siblings.
func (g *Gitignore) with(root, dir string) *Gitignore {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return g
	}
	defer f.Close()

	base, _ := filepath.Rel(root, dir)
	base = filepath.ToSlash(base)

	var added []ignoreRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if r, ok := parseIgnoreLine(scanner.Text(), base); ok {
			added = append(added, r)
		}
	}
	if len(added) == 0 {
		return g
	}

	next := &Gitignore{}
	if g != nil {
		next.rules = append(next.rules, g.rules...)
	}
	next.rules = append(next.rules, added...)
	return next
}

func parseIgnoreLine(line, base string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return ignoreRule{}, false
	}
	if base != "." && base != "" {
		if r.anchored {
			line = base + "/" + line
		} else {
			// a nested file's unanchored rule still only applies below it
			line = base + "/**/" + line
			r.anchored = true
		}
	}
	r.pattern = line
	return r, true
}

// Ignored reports whether rel, a slash-separated path relative to the tree
// root, is ignored. A nil Gitignore ignores nothing.
func (g *Gitignore) Ignored(rel string, isDir bool) bool {
	if g == nil {
		return false
	}
	ignored := false
	for _, r := range g.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negation
		}
	}
	return ignored
}

func (r ignoreRule) matches(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if r.anchored {
		return globMatch(r.pattern, rel)
	}
	return globMatch(r.pattern, filepath.Base(rel)) || globMatch("**/"+r.pattern, rel)
}

func globMatch(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}
