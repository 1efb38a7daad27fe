package highlight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareCountsLines(t *testing.T) {
	d := Compare("main.go", "a\nb\nc\n", "a\nB\nc\nd\n", 3)

	assert.True(t, d.Changed())
	assert.Equal(t, 2, d.Added)
	assert.Equal(t, 1, d.Removed)
	assert.Equal(t, "+2 -1", d.Stat())
	assert.True(t, strings.HasPrefix(d.Text, "--- main.go\n+++ main.go\n"))
	assert.Contains(t, d.Text, "\n-b\n")
	assert.Contains(t, d.Text, "\n+B\n")
	assert.Contains(t, d.Text, "\n+d\n")
	assert.Contains(t, d.Text, "\n a\n")
}

func TestCompareIdentical(t *testing.T) {
	d := Compare("x", "same\n", "same\n", 3)
	assert.False(t, d.Changed())
	assert.Equal(t, "+0 -0", d.Stat())
}

func TestCompareCollapsesLongContext(t *testing.T) {
	var old, updated []string
	for i := 0; i < 10; i++ {
		old = append(old, fmt.Sprintf("l%d", i))
		updated = append(updated, fmt.Sprintf("l%d", i))
	}
	updated[9] = "changed"

	d := Compare("f", strings.Join(old, "\n")+"\n", strings.Join(updated, "\n")+"\n", 2)

	assert.Contains(t, d.Text, "@@ 7 unchanged lines @@\n l7\n l8\n")
	assert.NotContains(t, d.Text, " l3\n")
	assert.Equal(t, 1, d.Added)
	assert.Equal(t, 1, d.Removed)

	full := Compare("f", strings.Join(old, "\n")+"\n", strings.Join(updated, "\n")+"\n", -1)
	assert.Contains(t, full.Text, " l3\n")
}

func TestHighlightKeepsText(t *testing.T) {
	h := New("no-such-style")

	out := h.Code("package main", "go")
	assert.Contains(t, out, "package")
	assert.Contains(t, h.Code("plain words", ""), "plain words")
	assert.Contains(t, h.File("x.py", "print(1)"), "print")
}

func TestDiffAndLineNumbersPreserveLineCount(t *testing.T) {
	h := New("monokai")
	diff := "--- a\n+++ a\n@@ 2 unchanged lines @@\n-old\n+new\n ctx"

	styled := h.Diff(diff)
	assert.Equal(t, strings.Count(diff, "\n"), strings.Count(styled, "\n"))
	assert.Contains(t, styled, "new")

	numbered := h.WithLineNumbers("one\ntwo", 9)
	assert.Contains(t, numbered, "  10")
	assert.Contains(t, numbered, "two")
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "go", Language("/src/main.go"))
	assert.Equal(t, "text", Language("/src/NOTES.unknownext"))
}
