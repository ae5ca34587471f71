package expand

// SplitFields partitions s into fields on IFS, honoring quote state the
// same way RemoveQuotes does (single/double quotes suppress splitting on
// the bytes they cover). Grounded on the classic whitespace-IFS vs
// non-whitespace-IFS distinction from expand/expand.go's ReadFields, but
// generalized per spec: a non-whitespace-IFS terminator always produces a
// field boundary, even when the field collected so far is empty, and
// leading empty fields are emitted when the very first IFS byte
// encountered is non-whitespace.
func SplitFields(s, ifs string) []string {
	if ifs == "" {
		return []string{s}
	}
	wsIFS, nonWsIFS := partitionIFS(ifs)

	var fields []string
	i := 0
	n := len(s)

	skipLeadingWS := func() {
		for i < n && isWSByte(s[i], wsIFS) {
			i++
		}
	}
	skipLeadingWS()

	for i < n {
		start := i
		inSingle, inDouble := false, false
		fieldEnd := -1
		termNonWS := false
		for i < n {
			c := s[i]
			switch {
			case c == '\'' && !inDouble:
				inSingle = !inSingle
			case c == '"' && !inSingle:
				inDouble = !inDouble
			case inDouble && c == '\\' && i+1 < n:
				i++
			case !inSingle && !inDouble && isWSByte(c, wsIFS):
				fieldEnd = i
			case !inSingle && !inDouble && isIFSByte(c, nonWsIFS):
				fieldEnd = i
				termNonWS = true
			}
			if fieldEnd >= 0 {
				break
			}
			i++
		}
		if fieldEnd < 0 {
			fields = append(fields, s[start:])
			break
		}
		fields = append(fields, s[start:fieldEnd])
		i = fieldEnd + 1
		if termNonWS {
			// Always a boundary, even for an empty field; then skip
			// trailing whitespace-IFS before the next field begins.
			for i < n && isWSByte(s[i], wsIFS) {
				i++
			}
			if i >= n {
				// Trailing non-whitespace separator yields one more
				// (empty) field at end of string.
				fields = append(fields, "")
			}
		} else {
			skipLeadingWS()
		}
	}
	return fields
}

func partitionIFS(ifs string) (ws, nonWS string) {
	for i := 0; i < len(ifs); i++ {
		switch ifs[i] {
		case ' ', '\t', '\n':
			ws += string(ifs[i])
		default:
			nonWS += string(ifs[i])
		}
	}
	return ws, nonWS
}

func isWSByte(c byte, ws string) bool { return isIFSByte(c, ws) }

func isIFSByte(c byte, set string) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}
	return false
}
