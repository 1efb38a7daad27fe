package folders

import (
	"os"
	pathpkg "path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
)

// DefaultExcludes are the globs skipped when building a tree.
var DefaultExcludes = []string{".git", "node_modules", "__pycache__"}

// Node is one entry of the folder tree. Children is nil for files.
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Children []*Node
}

// Walk calls fn for n and all of its descendants, depth first.
// Returning false from fn skips the children of that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the node for path, if present.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.Path == path {
			found = node
			return false
		}
		return node.IsDir && fileutil.IsWithin(node.Path, path)
	})
	return found
}

// TreeBuilder builds Node trees, skipping entries that match its exclude globs
// and, when enabled, entries ignored by .gitignore files.
type TreeBuilder struct {
	excludes  []string
	gitignore bool

	mu         sync.RWMutex
	rootIgnore *Gitignore // rules from the last built root's .gitignore
	lastRoot   string
}

// NewTreeBuilder creates a builder. Patterns are doublestar globs matched against
// both the entry name and its slash-separated path relative to the root.
func NewTreeBuilder(excludes []string) *TreeBuilder {
	if excludes == nil {
		excludes = DefaultExcludes
	}
	return &TreeBuilder{excludes: excludes}
}

// UseGitignore makes Build honor .gitignore files.
func (b *TreeBuilder) UseGitignore(on bool) *TreeBuilder {
	b.gitignore = on
	return b
}

// Build reads root recursively. Root must be an existing directory.
func (b *TreeBuilder) Build(root string) (*Node, error) {
	root = fileutil.Canonical(root)
	if err := requireDir(root); err != nil {
		return nil, err
	}

	var ign *Gitignore
	if b.gitignore {
		ign = ign.with(root, root)
	}
	b.mu.Lock()
	b.rootIgnore, b.lastRoot = ign, root
	b.mu.Unlock()

	node := &Node{Name: filepath.Base(root), Path: root, IsDir: true}
	if err := b.fill(root, node, ign); err != nil {
		return nil, err
	}
	return node, nil
}

func (b *TreeBuilder) fill(root string, dir *Node, ign *Gitignore) error {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		if dir.Path == root {
			return apperr.FileOp("failed to read directory", dir.Path, err)
		}
		// Unreadable subdirectories show up empty.
		dir.Children = []*Node{}
		return nil
	}

	if b.gitignore && dir.Path != root {
		ign = ign.with(root, dir.Path)
	}

	children := make([]*Node, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir.Path, e.Name())
		rel, _ := filepath.Rel(root, path)
		if b.excluded(e.Name(), filepath.ToSlash(rel)) {
			continue
		}

		child := &Node{Name: e.Name(), Path: path, IsDir: isDirEntry(e, path)}
		if ign.Ignored(filepath.ToSlash(rel), child.IsDir) {
			continue
		}
		if child.IsDir && e.Type()&os.ModeSymlink == 0 {
			if err := b.fill(root, child, ign); err != nil {
				return err
			}
		} else if child.IsDir {
			child.Children = []*Node{}
		}
		children = append(children, child)
	}
	SortNodes(children)
	dir.Children = children
	return nil
}

func (b *TreeBuilder) excluded(name, rel string) bool {
	for _, pattern := range b.excludes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// SortNodes orders directories before files, case-insensitively by name in each group.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		a, b := strings.ToLower(nodes[i].Name), strings.ToLower(nodes[j].Name)
		if a != b {
			return a < b
		}
		return nodes[i].Name < nodes[j].Name
	})
}

func isDirEntry(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return false
}

// Excluded reports whether path, located under root, matches one of the
// builder's exclude globs by base name or by root-relative slash path, or
// sits under an entry the root .gitignore ignores. Nested .gitignore files
// only apply during Build.
func (b *TreeBuilder) Excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if b.excluded(filepath.Base(path), rel) {
		return true
	}

	b.mu.RLock()
	ign := b.rootIgnore
	if b.lastRoot != fileutil.Canonical(root) {
		ign = nil
	}
	b.mu.RUnlock()
	if ign == nil {
		return false
	}

	info, err := os.Stat(path)
	if ign.Ignored(rel, err == nil && info.IsDir()) {
		return true
	}
	for dir := pathpkg.Dir(rel); dir != "."; dir = pathpkg.Dir(dir) {
		if ign.Ignored(dir, true) {
			return true
		}
	}
	return false
}
