package ui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RegexPrefix marks a find pattern as a regular expression.
const RegexPrefix = "re:"

var errEmptyPattern = errors.New("empty search pattern")

// Query is a find/replace pattern. Literal patterns match exactly; regular
// expressions use Go syntax with . matching newlines, and replacements may
// refer to groups as $1 or ${name}.
type Query struct {
	Input string
	re    *regexp.Regexp
}

// ParseQuery reads a pattern typed by the user. A "re:" prefix selects
// regular expression mode.
func ParseQuery(input string) (Query, error) {
	q := Query{Input: input}
	pattern, isRegex := strings.CutPrefix(input, RegexPrefix)
	if pattern == "" {
		return q, errEmptyPattern
	}
	if !isRegex {
		return q, nil
	}
	re, err := regexp.Compile("(?s)" + pattern)
	if err != nil {
		return q, fmt.Errorf("invalid regular expression: %w", err)
	}
	if re.MatchString("") {
		return q, fmt.Errorf("pattern %q matches empty text", pattern)
	}
	q.re = re
	return q, nil
}

// Regex reports whether q is a regular expression.
func (q Query) Regex() bool { return q.re != nil }

// FindFrom returns the byte range of the first match at or after from,
// wrapping to the start of text when nothing follows.
func (q Query) FindFrom(text string, from int) (start, end int, ok bool) {
	from = min(max(from, 0), len(text))
	if start, end, ok = q.find(text, from); ok {
		return start, end, true
	}
	return q.find(text, 0)
}

func (q Query) find(text string, from int) (int, int, bool) {
	if q.re != nil {
		loc := q.re.FindStringIndex(text[from:])
		if loc == nil {
			return 0, 0, false
		}
		return from + loc[0], from + loc[1], true
	}
	lit := q.Input
	if lit == "" {
		return 0, 0, false
	}
	i := strings.Index(text[from:], lit)
	if i < 0 {
		return 0, 0, false
	}
	return from + i, from + i + len(lit), true
}

// ReplaceAt returns the replacement for the match text[start:end]. ok is
// false when that range is not a match of q.
func (q Query) ReplaceAt(text string, start, end int, repl string) (string, bool) {
	if q.re == nil {
		return repl, text[start:end] == q.Input
	}
	loc := q.re.FindStringSubmatchIndex(text[start:])
	if loc == nil || loc[0] != 0 || loc[1] != end-start {
		return "", false
	}
	return string(q.re.ExpandString(nil, repl, text[start:], loc)), true
}

// ReplaceAll replaces every match in text and returns the result and the
// number of matches.
func (q Query) ReplaceAll(text, repl string) (string, int) {
	if q.re != nil {
		n := len(q.re.FindAllStringIndex(text, -1))
		if n == 0 {
			return text, 0
		}
		return q.re.ReplaceAllString(text, repl), n
	}
	lit := q.Input
	n := strings.Count(text, lit)
	if lit == "" || n == 0 {
		return text, 0
	}
	return strings.ReplaceAll(text, lit, repl), n
}
