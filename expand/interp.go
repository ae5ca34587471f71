package expand

import "strings"

// scanInterpolation implements StringInterpolation, the $"..." form: it
// scans body (already past the opening '$"') until the matching
// unescaped '"', expanding nested $var / $(...) / ${...} forms inline and
// treating a bare "{expr}" block as shorthand for "${expr}" (den's
// resolution of the spec's terse "{…} blocks are evaluated" note — there
// being no separate gettext-style catalog in this implementation, $"..."
// behaves like a double-quoted string whose body additionally accepts
// unprefixed brace blocks).
func (c *Context) scanInterpolation(body string) (string, int, error) {
	var out strings.Builder
	i := 0
	n := len(body)
	for i < n {
		switch body[i] {
		case '"':
			return out.String(), i + 1, nil
		case '\\':
			if i+1 < n && isDoubleQuoteEscapable(body[i+1]) {
				if body[i+1] != '\n' {
					out.WriteByte(body[i+1])
				}
				i += 2
				continue
			}
			out.WriteByte('\\')
			i++
		case '$':
			val, _, consumed, err := c.scanDollar(body[i:], true)
			if err != nil {
				return "", 0, err
			}
			if consumed == 0 {
				out.WriteByte('$')
				i++
				continue
			}
			out.WriteString(val)
			i += consumed
		case '{':
			expr, used, ok := scanBalanced(body[i+1:], '{', '}', 1)
			if !ok {
				out.WriteByte('{')
				i++
				continue
			}
			v, perr := c.paramExp(expr)
			if perr != nil {
				return "", 0, perr
			}
			out.WriteString(v)
			i += 1 + used + 1
		case '`':
			bodyTick, consumed, err := scanBacktick(body[i:])
			if err != nil {
				return "", 0, err
			}
			res, code, err := c.runCommandSubst(bodyTick)
			if err != nil {
				return "", 0, err
			}
			c.setExitCode(code)
			out.WriteString(res)
			i += consumed
		default:
			out.WriteByte(body[i])
			i++
		}
	}
	return out.String(), n, nil
}
