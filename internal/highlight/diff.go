package highlight

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff is a line-oriented comparison of two versions of a file.
type LineDiff struct {
	Path    string
	Text    string
	Added   int
	Removed int
}

// Changed reports whether the versions differ.
func (d LineDiff) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

// Stat returns a short "+a -r" summary.
func (d LineDiff) Stat() string {
	return fmt.Sprintf("+%d -%d", d.Added, d.Removed)
}

// Compare builds a diff of oldText and newText, keeping at most context
// unchanged lines around each change. Negative context keeps everything.
func Compare(path, oldText, newText string, context int) LineDiff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := LineDiff{Path: path}
	var body strings.Builder
	fmt.Fprintf(&body, "--- %s\n+++ %s\n", path, path)

	for i, d := range diffs {
		chunk := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.Added += len(chunk)
			writePrefixed(&body, "+", chunk)
		case diffmatchpatch.DiffDelete:
			out.Removed += len(chunk)
			writePrefixed(&body, "-", chunk)
		case diffmatchpatch.DiffEqual:
			writeContext(&body, chunk, context, i > 0, i < len(diffs)-1)
		}
	}
	out.Text = body.String()
	return out
}

// writeContext writes unchanged lines, keeping context lines next to
// neighbouring changes and collapsing the rest into a hunk marker.
func writeContext(b *strings.Builder, lines []string, context int, before, after bool) {
	keep := 0
	if before {
		keep += context
	}
	if after {
		keep += context
	}
	if context < 0 || len(lines) <= keep {
		writePrefixed(b, " ", lines)
		return
	}

	if before {
		writePrefixed(b, " ", lines[:context])
	}
	fmt.Fprintf(b, "@@ %d unchanged lines @@\n", len(lines)-keep)
	if after {
		writePrefixed(b, " ", lines[len(lines)-context:])
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func writePrefixed(b *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
