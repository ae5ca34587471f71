package expand

import (
	"strconv"
	"strings"

	"den.sh/den/arith"
)

// evalArith implements ArithmeticEvaluator's integration point: it first
// pre-resolves any ${...} or $(...) forms nested in expr (the
// arithmetic grammar itself only understands bare identifiers, $name and
// numeric literals), then hands the resulting pure-syntax string to
// arith.Eval against an Env adapter backed by the shared variable store.
//
// Per the propagation policy, a failure here is returned to the caller
// (who decides, per call site, whether to surface it or fold it to 0 for
// the inside-a-normal-word case).
func (c *Context) evalArith(expr string) (int64, error) {
	resolved, err := c.preresolveArith(expr)
	if err != nil {
		return 0, err
	}
	n, err := arith.Eval(resolved, arithEnv{c: c})
	if err != nil {
		return 0, &Error{Kind: ErrArithmetic, Word: expr, Err: err}
	}
	return n, nil
}

func (c *Context) preresolveArith(expr string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(expr) {
		if expr[i] == '$' && i+1 < len(expr) && (expr[i+1] == '{' || expr[i+1] == '(') {
			val, _, consumed, err := c.scanDollar(expr[i:], false)
			if err != nil {
				return "", err
			}
			if consumed == 0 {
				b.WriteByte(expr[i])
				i++
				continue
			}
			b.WriteString(val)
			i += consumed
			continue
		}
		b.WriteByte(expr[i])
		i++
	}
	return b.String(), nil
}

// ArithEval exposes arith_eval for "((...))" compound commands and the
// let builtin: unlike the $((...)) form inside ordinary word expansion,
// failures here are always surfaced to the caller.
func ArithEval(cfg Config, expr string) (int64, error) {
	c := NewContext(cfg)
	return c.evalArith(expr)
}

// arithEnv adapts expand.WriteEnviron (scalars, indexed arrays) to the
// arith.Env contract.
type arithEnv struct{ c *Context }

func (a arithEnv) Get(name string) string {
	_, vr := Resolve(a.cfg().Env, name)
	return vr.String()
}

func (a arithEnv) Set(name, value string) error {
	env := a.cfg().Env
	if SensitiveNames[name] {
		return &Error{Kind: ErrReadOnly, Word: name}
	}
	resolved, vr := Resolve(env, name)
	vr.Set = true
	vr.Kind = String
	vr.Str = value
	return env.Set(resolved, vr)
}

func (a arithEnv) GetIndex(name string, idx int64) string {
	vr := a.cfg().Env.Get(name)
	switch vr.Kind {
	case Indexed:
		i := normArrIndex(idx, len(vr.List))
		if i < 0 || i >= len(vr.List) {
			return ""
		}
		return vr.List[i]
	case Associative:
		return vr.Map[strconv.FormatInt(idx, 10)]
	}
	return ""
}

func (a arithEnv) SetIndex(name string, idx int64, value string) error {
	env := a.cfg().Env
	vr := env.Get(name)
	if vr.Kind != Indexed && vr.Kind != Associative {
		vr = Variable{Set: true, Kind: Indexed}
	}
	switch vr.Kind {
	case Associative:
		if vr.Map == nil {
			vr.Map = map[string]string{}
		}
		vr.Map[strconv.FormatInt(idx, 10)] = value
	default:
		i := normArrIndex(idx, len(vr.List))
		if i < 0 {
			return nil
		}
		for i >= len(vr.List) {
			vr.List = append(vr.List, "")
		}
		vr.List[i] = value
	}
	vr.Set = true
	return env.Set(name, vr)
}

func (a arithEnv) cfg() Config { return a.c.cfg }

func normArrIndex(idx int64, n int) int {
	if idx < 0 {
		idx += int64(n)
	}
	return int(idx)
}
