// Package pattern implements the glob-style pattern matching that den's
// parameter expansion operators (strip, replace) rely on:
// "*", "?", "[set]", "[!set]" and "[a-z]" ranges over a byte string.
//
// Matching is implemented by translating a pattern into an equivalent
// regular expression and delegating to the standard regexp package, rather
// than hand-rolled backtracking: the translation is small, its performance
// characteristics are well understood, and every one of the derived
// operations below (longest/shortest prefix and suffix search, anchored
// match) tests candidate substrings, in order of length, against a regexp
// anchored to the entire string.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// SyntaxError is returned when a pattern is malformed, e.g. an unmatched
// "[".
type SyntaxError struct {
	msg string
}

func (e *SyntaxError) Error() string { return e.msg }

// Mode tunes how a pattern is translated.
type Mode uint

const (
	// Shortest makes the translated regexp prefer the shortest match
	// (ungreedy). The prefix/suffix helpers below do not use it.
	Shortest Mode = 1 << iota
	// EntireString anchors the regexp to the whole string with ^ and $.
	EntireString
)

// Regexp translates a shell glob pattern into an equivalent RE2 regular
// expression string, suitable for regexp.Compile.
func Regexp(pat string, mode Mode) (string, error) {
	var sb strings.Builder
	sb.WriteString("(?s")
	if mode&Shortest != 0 {
		sb.WriteString("U")
	}
	sb.WriteString(")")
	if mode&EntireString != 0 {
		sb.WriteString("^")
	}
	sl := &lexer{s: pat}
	for {
		if err := translateNext(&sb, sl); err != nil {
			if err == errEOF {
				break
			}
			return "", err
		}
	}
	if mode&EntireString != 0 {
		sb.WriteString("$")
	}
	return sb.String(), nil
}

var errEOF = fmt.Errorf("eof")

// lexer walks a pattern string one byte at a time. Patterns are defined to
// operate on ASCII bytes (see spec Non-goals: no multi-byte-aware
// matching), so a byte cursor is sufficient and avoids the cost of
// decoding runes for patterns that are almost always ASCII.
type lexer struct {
	s string
	i int
}

func (l *lexer) next() byte {
	if l.i >= len(l.s) {
		return 0
	}
	c := l.s[l.i]
	l.i++
	return c
}

func (l *lexer) peek() byte {
	if l.i >= len(l.s) {
		return 0
	}
	return l.s[l.i]
}

func (l *lexer) rest() string { return l.s[l.i:] }

func translateNext(sb *strings.Builder, l *lexer) error {
	c := l.next()
	switch c {
	case 0:
		return errEOF
	case '*':
		sb.WriteString(".*")
	case '?':
		sb.WriteString(".")
	case '[':
		return translateClass(sb, l)
	default:
		sb.WriteString(regexp.QuoteMeta(string(c)))
	}
	return nil
}

func translateClass(sb *strings.Builder, l *lexer) error {
	start := l.i
	sb.WriteByte('[')
	c := l.next()
	if c == 0 {
		return &SyntaxError{msg: fmt.Sprintf("pattern: '[' at %d is not matched with a closing ']'", start-1)}
	}
	if c == '!' || c == '^' {
		sb.WriteByte('^')
		c = l.next()
		if c == 0 {
			return &SyntaxError{msg: "pattern: '[' not matched with a closing ']'"}
		}
	}
	if c == ']' {
		sb.WriteString(`\]`)
		c = l.next()
		if c == 0 {
			return &SyntaxError{msg: "pattern: '[' not matched with a closing ']'"}
		}
	}
	for {
		switch c {
		case 0:
			return &SyntaxError{msg: "pattern: '[' not matched with a closing ']'"}
		case ']':
			sb.WriteByte(']')
			return nil
		case '\\', '^':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		c = l.next()
	}
}

// HasMeta reports whether pat contains any pattern metacharacter ('*',
// '?', or '['), escaped or not.
func HasMeta(pat string) bool {
	return strings.ContainsAny(pat, "*?[")
}

// Matches reports whether text matches pattern in its entirety.
func Matches(pattern, text string) bool {
	expr, err := Regexp(pattern, EntireString)
	if err != nil {
		return false
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return rx.MatchString(text)
}

// compileEntire compiles pattern anchored at both ends, so MatchString
// tells us whether pattern consumes a candidate substring exactly.
func compileEntire(pattern string) (*regexp.Regexp, error) {
	expr, err := Regexp(pattern, EntireString)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expr)
}

// LongestPrefixMatch returns the length, in bytes, of the longest prefix
// of text matched by pattern anchored at the start. It returns -1 if there
// is no match.
func LongestPrefixMatch(pattern, text string) int {
	rx, err := compileEntire(pattern)
	if err != nil {
		return -1
	}
	for end := len(text); end >= 0; end-- {
		if rx.MatchString(text[:end]) {
			return end
		}
	}
	return -1
}

// ShortestPrefixMatch returns the length, in bytes, of the shortest
// non-empty prefix of text matched by pattern anchored at the start. It
// returns -1 if there is no match.
func ShortestPrefixMatch(pattern, text string) int {
	rx, err := compileEntire(pattern)
	if err != nil {
		return -1
	}
	for end := 1; end <= len(text); end++ {
		if rx.MatchString(text[:end]) {
			return end
		}
	}
	// Only the empty prefix matches; still report it so callers can
	// distinguish "no match" (-1) from "matches only empty".
	if rx.MatchString("") {
		return 0
	}
	return -1
}

// LongestSuffixMatch returns the byte offset at which the longest suffix
// of text matched by pattern (anchored at the end) begins. It returns -1
// if there is no match.
func LongestSuffixMatch(pattern, text string) int {
	rx, err := compileEntire(pattern)
	if err != nil {
		return -1
	}
	for start := 0; start <= len(text); start++ {
		if rx.MatchString(text[start:]) {
			return start
		}
	}
	return -1
}

// ShortestSuffixMatch returns the byte offset at which the shortest
// non-empty suffix of text matched by pattern (anchored at the end)
// begins. It returns -1 if there is no match.
func ShortestSuffixMatch(pattern, text string) int {
	rx, err := compileEntire(pattern)
	if err != nil {
		return -1
	}
	for start := len(text) - 1; start >= 0; start-- {
		if rx.MatchString(text[start:]) {
			return start
		}
	}
	if rx.MatchString("") {
		return len(text)
	}
	return -1
}

// FindMatchAt finds the shortest match of pattern anchored at position 0
// of text, returning the length of the match, or -1 if pattern does not
// match at the start of text.
func FindMatchAt(pattern, text string) int {
	return ShortestPrefixMatch(pattern, text)
}

// FindAllIndex returns the start/end byte offsets of up to n
// non-overlapping matches of pattern within text (n < 0 means "all").
// Used by "${VAR/pat/rep}" and "${VAR//pat/rep}".
func FindAllIndex(pattern, text string, n int) [][]int {
	expr, err := Regexp(pattern, 0)
	if err != nil {
		return nil
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return rx.FindAllStringIndex(text, n)
}
