package expand

import "os/user"

// ExpandTilde implements TildeExpander: word is the text starting at the
// '~', up to the end of the enclosing word. It returns the expanded
// prefix and the number of bytes of word it consumed (the ~ plus any
// login-name run, stopping at the first '/' or end of string), so the
// caller can append the remainder unchanged.
//
// Grounded on mvdan.cc/sh/v3/expand.Context's expandUser: "~" alone (or
// followed by a path) expands $HOME; "~name" looks up name's home
// directory via os/user.Lookup, leaving the text untouched if the lookup
// fails.
func ExpandTilde(env Environ, word string) (expanded string, consumed int) {
	if len(word) == 0 || word[0] != '~' {
		return "", 0
	}
	i := 1
	for i < len(word) && word[i] != '/' {
		i++
	}
	name := word[1:i]
	if name == "" {
		home := env.Get("HOME")
		return home.String(), i
	}
	u, err := user.Lookup(name)
	if err != nil {
		return word[:i], i
	}
	return u.HomeDir, i
}

// TildeContext reports whether a '~' at byte offset pos within word
// begins a tilde expansion: word start, or immediately after ':' or '='
// (but not as part of the "=~" regex match operator).
func TildeContext(word string, pos int) bool {
	if pos == 0 {
		return true
	}
	switch word[pos-1] {
	case ':':
		return true
	case '=':
		// A word starting "=~" is the regex match operator.
		if pos == 1 {
			return false
		}
		return true
	}
	return false
}
