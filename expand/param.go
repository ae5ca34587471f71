package expand

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"den.sh/den/pattern"
)

// paramExp implements ParameterExpander: body is the text of a "${...}"
// form with the surrounding braces already consumed. Dispatch follows
// Table 4.3's disambiguation rules, checked as a guarded sequence rather
// than a single regex, per the design notes.
func (c *Context) paramExp(body string) (string, error) {
	if err := c.enter(); err != nil {
		return "", err
	}
	defer c.leave()

	if body == "" {
		return "", errBadSubst(body)
	}

	// "#name": leading '#' at position 0 is length, never the prefix
	// strip operator (which always has a name before the '#').
	if body == "#" {
		return c.simpleParam("#")
	}
	if body[0] == '#' {
		return c.paramLength(body[1:])
	}

	if body[0] == '!' {
		return c.paramIndirectOrEnum(body[1:])
	}

	name, index, rest := splitNameAndIndex(body)
	if name == "" {
		return "", errBadSubst(body)
	}

	elems, str, set, err := c.lookupNameIndex(name, index)
	if err != nil {
		return "", err
	}

	return c.applyOps(name, rest, elems, str, set)
}

func (c *Context) paramLength(nameAndIndex string) (string, error) {
	name, index, _ := splitNameAndIndex(nameAndIndex)
	if name == "" {
		return "0", nil
	}
	elems, str, _, err := c.lookupNameIndex(name, index)
	if err != nil {
		return "", err
	}
	if isAllSigil(index) {
		return strconv.Itoa(len(elems)), nil
	}
	return strconv.Itoa(utf8.RuneCountInString(str)), nil
}

func isAllSigil(index string) bool { return index == "@" || index == "*" }

// paramIndirectOrEnum handles the three '!'-prefixed forms: name-prefix
// enumeration ("!prefix@"/"!prefix*"), array index/key enumeration
// ("!arr[@]"/"!arr[*]"), and plain indirect expansion ("!name").
func (c *Context) paramIndirectOrEnum(rest string) (string, error) {
	if rest == "" {
		return "", errBadSubst(rest)
	}
	if i := strings.IndexByte(rest, '['); i >= 0 && strings.HasSuffix(rest, "]") {
		sub := rest[i+1 : len(rest)-1]
		if sub == "@" || sub == "*" {
			arrName := rest[:i]
			return c.enumerateArrayKeys(arrName, sub)
		}
	}
	if strings.HasSuffix(rest, "@") || strings.HasSuffix(rest, "*") {
		prefix := rest[:len(rest)-1]
		if isValidIdentPrefix(prefix) {
			names := c.namesByPrefix(prefix)
			return strings.Join(names, " "), nil
		}
	}
	// Plain indirect: dereference rest's value as a variable name.
	vr := c.cfg.Env.Get(rest)
	if vr.Kind == NameRef {
		_, r := Resolve(c.cfg.Env, rest)
		return r.String(), nil
	}
	target := vr.String()
	if target == "" {
		return "", nil
	}
	return c.cfg.Env.Get(target).String(), nil
}

func isValidIdentPrefix(s string) bool {
	if s == "" {
		return true
	}
	if !isNameStartByte(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameContByte(s[i]) {
			return false
		}
	}
	return true
}

func (c *Context) namesByPrefix(prefix string) []string {
	var names []string
	c.cfg.Env.Each(func(name string, vr Variable) bool {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

func (c *Context) enumerateArrayKeys(name, sigil string) (string, error) {
	vr := c.cfg.Env.Get(name)
	var strs []string
	switch vr.Kind {
	case Indexed:
		for i := range vr.List {
			strs = append(strs, strconv.Itoa(i))
		}
	case Associative:
		for k := range vr.Map {
			strs = append(strs, k)
		}
		sort.Strings(strs)
	default:
		if vr.IsSet() {
			strs = append(strs, "0")
		}
	}
	if sigil == "*" {
		return c.ifsJoinStr(strs), nil
	}
	return strings.Join(strs, " "), nil
}

func (c *Context) ifsJoinStr(strs []string) string {
	sep := ""
	if c.ifs != "" {
		sep = c.ifs[:1]
	}
	return strings.Join(strs, sep)
}

// splitNameAndIndex scans a leading variable name (a regular identifier,
// a special single-character parameter, or a digit run) optionally
// followed by an array subscript "[...]", and returns the remainder of
// body as rest.
func splitNameAndIndex(body string) (name, index, rest string) {
	if body == "" {
		return "", "", ""
	}
	switch body[0] {
	case '@', '*', '#', '?', '$', '!':
		name = string(body[0])
		rest = body[1:]
	default:
		if body[0] >= '0' && body[0] <= '9' {
			i := 0
			for i < len(body) && body[i] >= '0' && body[i] <= '9' {
				i++
			}
			name = body[:i]
			rest = body[i:]
		} else if isNameStartByte(body[0]) {
			i := 0
			for i < len(body) && isNameContByte(body[i]) {
				i++
			}
			name = body[:i]
			rest = body[i:]
		} else {
			return "", "", body
		}
	}
	if len(rest) > 0 && rest[0] == '[' {
		depth := 1
		j := 1
		for j < len(rest) && depth > 0 {
			switch rest[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			j++
		}
		if depth == 0 {
			index = rest[1 : j-1]
			rest = rest[j:]
		}
	}
	return name, index, rest
}

// lookupNameIndex resolves name (and array index, if any) to both the
// scalar string form and, for "@"/"*" indices, the element list used by
// whole-array operators (strip, replace, case conversion apply
// element-wise and rejoin with a space, matching Bash).
func (c *Context) lookupNameIndex(name, index string) (elems []string, str string, set bool, err error) {
	if name == "@" || name == "*" {
		elems = c.cfg.Env.Get("@").List
		if index == "" {
			str = strings.Join(elems, " ")
			return elems, str, len(elems) > 0, nil
		}
	}
	_, vr := Resolve(c.cfg.Env, name)
	set = vr.IsSet()
	switch vr.Kind {
	case Indexed:
		switch index {
		case "", "0":
			if len(vr.List) > 0 {
				str = vr.List[0]
			}
			elems = []string{str}
		case "@":
			elems = vr.List
			str = strings.Join(elems, " ")
		case "*":
			elems = vr.List
			str = c.ifsJoinStr(elems)
		default:
			i, ierr := c.evalArith(index)
			if ierr != nil {
				return nil, "", false, ierr
			}
			idx := normArrIndex(i, len(vr.List))
			if idx >= 0 && idx < len(vr.List) {
				str = vr.List[idx]
			}
			elems = []string{str}
		}
	case Associative:
		switch index {
		case "@":
			elems = sortedMapValues(vr.Map)
			str = strings.Join(elems, " ")
		case "*":
			elems = sortedMapValues(vr.Map)
			str = c.ifsJoinStr(elems)
		default:
			str = vr.Map[index]
			elems = []string{str}
		}
	default:
		str = vr.String()
		elems = []string{str}
	}
	return elems, str, set, nil
}

func sortedMapValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// unboundExempt lists the parameter forms that are never subject to
// "set -u"'s unbound-variable check, e.g. "$@" with zero positionals.
func unboundExempt(name string) bool {
	return name == "@" || name == "*" || name == "#"
}

// applyOps dispatches the trailing operator (if any) found after a
// name/index pair, per Table 4.3.
func (c *Context) applyOps(name, rest string, elems []string, str string, set bool) (string, error) {
	if rest == "" {
		if !set && c.cfg.Unbound && !unboundExempt(name) {
			return "", &Error{Kind: ErrUnset, Word: name}
		}
		return str, nil
	}
	if !set && c.cfg.Unbound && !unboundExempt(name) &&
		!isDefaultOp(rest[0]) && !(rest[0] == ':' && len(rest) > 1 && isDefaultOp(rest[1])) {
		return "", &Error{Kind: ErrUnset, Word: name}
	}

	switch {
	case rest[0] == ':' && len(rest) > 1 && isSubstringStart(rest[1]):
		return c.paramSubstring(name, rest[1:], str)

	case rest[0] == ':' && len(rest) > 1 && isDefaultOp(rest[1]):
		return c.paramDefaultOps(name, rest[1], rest[2:], str, set, true)

	case isDefaultOp(rest[0]):
		return c.paramDefaultOps(name, rest[0], rest[1:], str, set, false)

	case strings.HasPrefix(rest, "##"):
		arg, aerr := c.expandOperand(rest[2:])
		if aerr != nil {
			return "", aerr
		}
		return joinElems(mapElems(elems, func(e string) string { return prefixStrip(e, arg, true) })), nil
	case rest[0] == '#':
		arg, aerr := c.expandOperand(rest[1:])
		if aerr != nil {
			return "", aerr
		}
		return joinElems(mapElems(elems, func(e string) string { return prefixStrip(e, arg, false) })), nil

	case strings.HasPrefix(rest, "%%"):
		arg, aerr := c.expandOperand(rest[2:])
		if aerr != nil {
			return "", aerr
		}
		return joinElems(mapElems(elems, func(e string) string { return suffixStrip(e, arg, true) })), nil
	case rest[0] == '%':
		arg, aerr := c.expandOperand(rest[1:])
		if aerr != nil {
			return "", aerr
		}
		return joinElems(mapElems(elems, func(e string) string { return suffixStrip(e, arg, false) })), nil

	case rest[0] == '/':
		return c.paramReplace(rest[1:], elems)

	case rest == "^^" || rest == "^" || rest == ",," || rest == "," || rest == "~~" || rest == "~":
		return joinElems(mapElems(elems, func(e string) string { return caseOp(e, rest) })), nil

	case rest[0] == '@' && len(rest) == 2:
		return c.paramAtOp(rest[1], str)
	}
	return "", errBadSubst(rest)
}

// isSubstringStart recognizes only the forms that can't also be the ':-'
// default-value operator: a parenthesized arithmetic offset, a space
// (as in "${x: -n}") or a bare digit run. A negative offset is written
// "${x: -n}" or "${x:(-n)}" in bash precisely so plain '-' stays reserved
// for ":-".
func isSubstringStart(c byte) bool {
	return c == '(' || c == ' ' || (c >= '0' && c <= '9')
}

func isDefaultOp(c byte) bool {
	switch c {
	case '-', '=', '?', '+':
		return true
	}
	return false
}

func mapElems(elems []string, f func(string) string) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = f(e)
	}
	return out
}

func joinElems(elems []string) string { return strings.Join(elems, " ") }

func (c *Context) paramSubstring(name, rest string, str string) (string, error) {
	offExpr, lenExpr, hasLen := splitSubstringArgs(rest)
	offExpr = strings.TrimPrefix(strings.TrimSuffix(offExpr, ")"), "(")
	off, err := c.evalArith(offExpr)
	if err != nil {
		return "", err
	}
	n := int64(utf8.RuneCountInString(str))
	if off < 0 {
		off += n
		if off < 0 {
			off = 0
		}
	}
	if off > n {
		off = n
	}
	runes := []rune(str)
	result := runes[off:]
	if hasLen {
		lenExpr = strings.TrimPrefix(strings.TrimSuffix(lenExpr, ")"), "(")
		length, lerr := c.evalArith(lenExpr)
		if lerr != nil {
			return "", lerr
		}
		if length < 0 {
			length = int64(len(result)) + length
			if length < 0 {
				length = 0
			}
		}
		if length > int64(len(result)) {
			length = int64(len(result))
		}
		result = result[:length]
	}
	return string(result), nil
}

// splitSubstringArgs splits "off" or "off:len" on the first top-level
// ':' (one not inside a parenthesized arithmetic expression).
func splitSubstringArgs(rest string) (off, length string, hasLen bool) {
	depth := 0
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ':':
			if depth == 0 {
				return rest[:i], rest[i+1:], true
			}
		}
	}
	return rest, "", false
}

func (c *Context) paramDefaultOps(name string, op byte, wordSrc string, str string, set bool, colonForm bool) (string, error) {
	empty := str == ""
	unsetOrEmpty := !set || (colonForm && empty)
	switch op {
	case '-':
		if unsetOrEmpty {
			return c.expandOperand(wordSrc)
		}
		return str, nil
	case '=':
		if unsetOrEmpty {
			v, err := c.expandOperand(wordSrc)
			if err != nil {
				return "", err
			}
			if err := c.assignSimple(name, v); err != nil {
				return "", err
			}
			return v, nil
		}
		return str, nil
	case '?':
		if unsetOrEmpty {
			msg, _ := c.expandOperand(wordSrc)
			if msg == "" {
				msg = name + ": parameter null or not set"
			}
			return "", &Error{Kind: ErrUnset, Word: name, Err: errBadSubst(msg)}
		}
		return str, nil
	case '+':
		if !unsetOrEmpty {
			return c.expandOperand(wordSrc)
		}
		return "", nil
	}
	return "", errBadSubst(wordSrc)
}

func (c *Context) assignSimple(name, value string) error {
	if SensitiveNames[name] {
		return &Error{Kind: ErrReadOnly, Word: name}
	}
	resolved, vr := Resolve(c.cfg.Env, name)
	if vr.ReadOnly {
		return &Error{Kind: ErrReadOnly, Word: name}
	}
	vr.Set = true
	vr.Kind = String
	vr.Str = value
	return c.cfg.Env.Set(resolved, vr)
}

// paramReplace implements "/pat/rep", "//pat/rep", "/#pat/rep" and
// "/%pat/rep".
func (c *Context) paramReplace(rest string, elems []string) (string, error) {
	all := false
	anchor := byte(0)
	switch {
	case strings.HasPrefix(rest, "/"):
		all = true
		rest = rest[1:]
	case strings.HasPrefix(rest, "#"):
		anchor = '#'
		rest = rest[1:]
	case strings.HasPrefix(rest, "%"):
		anchor = '%'
		rest = rest[1:]
	}
	var pat, rep string
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		pat = rest[:idx]
		rep = rest[idx+1:]
	} else {
		pat = rest
	}
	patExp, err := c.expandOperand(pat)
	if err != nil {
		return "", err
	}
	repExp, err := c.expandOperand(rep)
	if err != nil {
		return "", err
	}

	replaceOne := func(s string) string {
		switch anchor {
		case '#':
			if end := pattern.LongestPrefixMatch(patExp, s); end >= 0 {
				return repExp + s[end:]
			}
			return s
		case '%':
			if start := pattern.LongestSuffixMatch(patExp, s); start >= 0 {
				return s[:start] + repExp
			}
			return s
		}
		n := 1
		if all {
			n = -1
		}
		locs := pattern.FindAllIndex(patExp, s, n)
		if len(locs) == 0 {
			return s
		}
		var b strings.Builder
		last := 0
		for _, loc := range locs {
			b.WriteString(s[last:loc[0]])
			b.WriteString(repExp)
			last = loc[1]
		}
		b.WriteString(s[last:])
		return b.String()
	}
	return joinElems(mapElems(elems, replaceOne)), nil
}

func prefixStrip(s, pat string, greedy bool) string {
	var end int
	if greedy {
		end = pattern.LongestPrefixMatch(pat, s)
	} else {
		end = pattern.ShortestPrefixMatch(pat, s)
	}
	if end < 0 {
		return s
	}
	return s[end:]
}

func suffixStrip(s, pat string, greedy bool) string {
	var start int
	if greedy {
		start = pattern.LongestSuffixMatch(pat, s)
	} else {
		start = pattern.ShortestSuffixMatch(pat, s)
	}
	if start < 0 {
		return s
	}
	return s[:start]
}

func caseOp(s, op string) string {
	switch op {
	case "^^":
		return strings.ToUpper(s)
	case "^":
		return mapFirstRune(s, unicode.ToUpper)
	case ",,":
		return strings.ToLower(s)
	case ",":
		return mapFirstRune(s, unicode.ToLower)
	case "~~":
		return toggleAll(s)
	case "~":
		return mapFirstRune(s, toggleRune)
	}
	return s
}

func mapFirstRune(s string, f func(rune) rune) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(f(r)) + s[size:]
}

func toggleAll(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = toggleRune(r)
	}
	return string(rs)
}

func toggleRune(r rune) rune {
	if unicode.IsUpper(r) {
		return unicode.ToLower(r)
	}
	return unicode.ToUpper(r)
}

func (c *Context) paramAtOp(op byte, str string) (string, error) {
	switch op {
	case 'U':
		return strings.ToUpper(str), nil
	case 'L':
		return strings.ToLower(str), nil
	case 'u':
		return mapFirstRune(str, unicode.ToUpper), nil
	case 'l':
		return mapFirstRune(str, unicode.ToLower), nil
	case 'Q':
		return "'" + strings.ReplaceAll(str, "'", `'\''`) + "'", nil
	case 'E':
		return RemoveQuotes(str), nil
	default:
		return "", errBadSubst(string(op))
	}
}

// expandOperand fully expands an operand word (default/alternative/error
// message, replacement text, pattern text): these undergo the same
// recursive expansion as any other word, joined into a single literal
// string without IFS splitting.
func (c *Context) expandOperand(word string) (string, error) {
	parts, err := c.scanWord(word, true)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.val)
	}
	return b.String(), nil
}

// simpleParam resolves the single-character special variables and plain
// $name references outside of a ${...} form.
func (c *Context) simpleParam(name string) (string, error) {
	vr := c.cfg.Env.Get(name)
	if name == "@" || name == "*" {
		sep := " "
		if name == "*" && c.ifs != "" {
			sep = c.ifs[:1]
		}
		return strings.Join(vr.List, sep), nil
	}
	_, resolved := Resolve(c.cfg.Env, name)
	if !resolved.IsSet() && c.cfg.Unbound && !unboundExempt(name) {
		return "", &Error{Kind: ErrUnset, Word: name}
	}
	return resolved.String(), nil
}
