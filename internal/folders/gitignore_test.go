package folders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitignoreFixture(t *testing.T) string {
	t.Helper()
	dir := tempDir(t)
	for _, d := range []string{"build", "sub", "other"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("# output\nbuild/\n*.log\n!keep.log\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", ".gitignore"), []byte("/local.txt\n"), 0644))
	for _, f := range []string{"build/out.o", "a.log", "keep.log", "main.go", "sub/local.txt", "sub/x.txt", "other/local.txt"} {
		touch(t, filepath.Join(dir, filepath.FromSlash(f)))
	}
	return dir
}

func TestBuildHonorsGitignore(t *testing.T) {
	dir := gitignoreFixture(t)

	root, err := NewTreeBuilder(nil).UseGitignore(true).Build(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "sub", ".gitignore", "keep.log", "main.go"}, names(root.Children))
	assert.Equal(t, []string{"local.txt"}, names(root.Children[0].Children))
	assert.Equal(t, []string{".gitignore", "x.txt"}, names(root.Children[1].Children))

	root, err = NewTreeBuilder(nil).Build(dir)
	require.NoError(t, err)
	assert.Len(t, root.Children, 7, "gitignore is opt-in")
}

func TestExcludedUsesRootGitignore(t *testing.T) {
	dir := gitignoreFixture(t)
	b := NewTreeBuilder(nil).UseGitignore(true)
	_, err := b.Build(dir)
	require.NoError(t, err)

	assert.True(t, b.Excluded(dir, filepath.Join(dir, "build", "out.o")))
	assert.True(t, b.Excluded(dir, filepath.Join(dir, "a.log")))
	assert.False(t, b.Excluded(dir, filepath.Join(dir, "keep.log")))
	assert.False(t, b.Excluded(dir, filepath.Join(dir, "main.go")))
	assert.False(t, b.Excluded(filepath.Join(dir, "other"), filepath.Join(dir, "other", "x.log")), "rules belong to the built root")
}

func TestGitignoreRules(t *testing.T) {
	var g *Gitignore
	assert.False(t, g.Ignored("anything", false))

	g = &Gitignore{}
	for _, line := range []string{"*.tmp", "docs/*.md", "cache/"} {
		r, ok := parseIgnoreLine(line, ".")
		require.True(t, ok)
		g.rules = append(g.rules, r)
	}
	nested, ok := parseIgnoreLine("*.bak", "lib")
	require.True(t, ok)
	g.rules = append(g.rules, nested)

	assert.True(t, g.Ignored("deep/down/x.tmp", false))
	assert.True(t, g.Ignored("docs/a.md", false))
	assert.False(t, g.Ignored("src/docs/a.md", false))
	assert.True(t, g.Ignored("src/cache", true))
	assert.False(t, g.Ignored("src/cache", false))
	assert.True(t, g.Ignored("lib/x/y.bak", false))
	assert.False(t, g.Ignored("y.bak", false))

	_, ok = parseIgnoreLine("   # comment", ".")
	assert.False(t, ok)
}
