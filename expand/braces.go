package expand

import (
	"strconv"
	"strings"
)

// Braces performs brace expansion on a single word, as a separate pass
// that ExpandWord does not run itself; a caller applies it to a word
// before expanding the results: "foo{bar,baz}" becomes ["foobar", "foobaz"]; "a{1..3}"
// becomes ["a1", "a2", "a3"]. Malformed or unbalanced braces are left
// untouched, matching Bash's lenient fallback.
//
// This is a supplemental feature: the distilled word-expansion contract
// does not mention braces, but a complete word expander built in this
// idiom carries it as a pre-pass, grounded on the brace-splitting
// traversal of mvdan.cc/sh/v3/syntax's SplitBraces, adapted here to scan
// a plain string instead of an already-parsed *syntax.Word.
func Braces(word string) []string {
	out, ok := expandBraces(word)
	if !ok {
		return []string{word}
	}
	return out
}

func expandBraces(word string) ([]string, bool) {
	open := -1
	depth := 0
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && open >= 0 {
				prefix := word[:open]
				body := word[open+1 : i]
				suffix := word[i+1:]
				elems, isSeq, ok := splitBraceBody(body)
				if !ok || len(elems) < 2 {
					continue
				}
				var results []string
				if isSeq {
					results = expandSequence(elems)
				} else {
					results = elems
				}
				if results == nil {
					continue
				}
				var out []string
				suffixExpanded, sok := expandBraces(suffix)
				if !sok {
					suffixExpanded = []string{suffix}
				}
				for _, r := range results {
					for _, s := range suffixExpanded {
						combined := prefix + r + s
						nested, nok := expandBraces(combined)
						if !nok {
							nested = []string{combined}
						}
						out = append(out, nested...)
					}
				}
				return out, true
			}
		}
	}
	return nil, false
}

// splitBraceBody splits a brace body on top-level commas, or recognizes a
// "x..y" / "x..y..incr" sequence form. It reports false if the body
// contains no top-level comma and is not a well-formed sequence (meaning
// "{x}" with neither should fall back to literal text).
func splitBraceBody(body string) (elems []string, isSeq bool, ok bool) {
	depth := 0
	last := 0
	var parts []string
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, body[last:])
	if len(parts) > 1 {
		return parts, false, true
	}
	dotParts := splitTop(body, "..")
	if len(dotParts) == 2 || len(dotParts) == 3 {
		return dotParts, true, true
	}
	return nil, false, false
}

func splitTop(s, sep string) []string {
	var out []string
	last := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			out = append(out, s[last:i])
			last = i + len(sep)
			i += len(sep) - 1
		}
	}
	out = append(out, s[last:])
	return out
}

func expandSequence(elems []string) []string {
	start, end := elems[0], elems[1]
	incr := int64(1)
	if len(elems) == 3 {
		n, err := strconv.ParseInt(elems[2], 10, 64)
		if err != nil || n == 0 {
			return nil
		}
		incr = n
		if incr < 0 {
			incr = -incr
		}
	}
	if n1, err1 := strconv.ParseInt(start, 10, 64); err1 == nil {
		n2, err2 := strconv.ParseInt(end, 10, 64)
		if err2 != nil {
			return nil
		}
		width := 0
		if len(start) > 1 && (start[0] == '0' || (start[0] == '-' && start[1] == '0')) {
			width = len(start)
			if start[0] == '-' {
				width--
			}
		}
		var out []string
		if n1 <= n2 {
			for n := n1; n <= n2; n += incr {
				out = append(out, formatSeqNum(n, width))
			}
		} else {
			for n := n1; n >= n2; n -= incr {
				out = append(out, formatSeqNum(n, width))
			}
		}
		return out
	}
	if len(start) == 1 && len(end) == 1 && isAsciiLetter(start[0]) && isAsciiLetter(end[0]) {
		a, b := start[0], end[0]
		var out []string
		if a <= b {
			for c := a; c <= b; c += byte(incr) {
				out = append(out, string(c))
			}
		} else {
			for c := a; c >= b; c -= byte(incr) {
				out = append(out, string(c))
			}
		}
		return out
	}
	return nil
}

func formatSeqNum(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	if width == 0 {
		return s
	}
	neg := strings.HasPrefix(s, "-")
	digits := s
	if neg {
		digits = s[1:]
	}
	for len(digits) < width {
		digits = "0" + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func isAsciiLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
