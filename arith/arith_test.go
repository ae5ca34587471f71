package arith

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

// memEnv is a tiny in-memory Env used only by this package's tests; the
// expand package provides the real adapter over expand.Environ.
type memEnv struct {
	scalars map[string]string
	arrays  map[string][]string
}

func newMemEnv() *memEnv {
	return &memEnv{scalars: map[string]string{}, arrays: map[string][]string{}}
}

func (e *memEnv) Get(name string) string { return e.scalars[name] }

func (e *memEnv) Set(name, value string) error {
	e.scalars[name] = value
	return nil
}

func (e *memEnv) GetIndex(name string, idx int64) string {
	arr := e.arrays[name]
	i := normIndex(idx, len(arr))
	if i < 0 || i >= len(arr) {
		return ""
	}
	return arr[i]
}

func (e *memEnv) SetIndex(name string, idx int64, value string) error {
	arr := e.arrays[name]
	i := normIndex(idx, len(arr))
	for i >= len(arr) {
		arr = append(arr, "")
	}
	if i < 0 {
		return nil
	}
	arr[i] = value
	e.arrays[name] = arr
	return nil
}

func normIndex(idx int64, n int) int {
	if idx < 0 {
		idx += int64(n)
	}
	return int(idx)
}

func evalWith(t *testing.T, expr string, env *memEnv) (int64, error) {
	t.Helper()
	if env == nil {
		env = newMemEnv()
	}
	return Eval(expr, env)
}

func TestEvalLiterals(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		expr string
		want int64
	}{
		{"1", 1},
		{"0", 0},
		{"  42  ", 42},
		{"-42", -42},
		{"-(-42)", 42},
		{"0x1F", 31},
		{"0X1f", 31},
		{"0b101", 5},
		{"017", 15}, // octal
		{"16#FF", 255},
		{"2#1010", 10},
		{"9223372036854775807", 9223372036854775807},
	}
	for _, tc := range tests {
		got, err := evalWith(t, tc.expr, nil)
		c.Assert(err, qt.IsNil, qt.Commentf("expr %q", tc.expr))
		c.Check(got, qt.Equals, tc.want, qt.Commentf("expr %q", tc.expr))
	}
}

func TestEvalPrecedence(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"2 ** 3 ** 2", 512}, // right-assoc: 2**(3**2)
		{"10 % 3", 1},
		{"1 << 2", 4},
		{"16 >> 2", 4},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"1 < 2 && 2 < 3", 1},
		{"1 > 2 || 2 < 3", 1},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"1, 2, 3", 3},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
		{"~0", -1},
		{"!0", 1},
		{"!5", 0},
	}
	for _, tc := range tests {
		got, err := evalWith(t, tc.expr, nil)
		c.Assert(err, qt.IsNil, qt.Commentf("expr %q", tc.expr))
		c.Check(got, qt.Equals, tc.want, qt.Commentf("expr %q", tc.expr))
	}
}

func TestEvalAssignment(t *testing.T) {
	c := qt.New(t)
	env := newMemEnv()
	env.scalars["x"] = "10"
	got, err := evalWith(t, "x += 5", env)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(15))
	c.Check(env.scalars["x"], qt.Equals, "15")
}

func TestEvalIncDec(t *testing.T) {
	c := qt.New(t)
	env := newMemEnv()
	env.scalars["x"] = "5"
	got, err := evalWith(t, "x++", env)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(5))
	c.Check(env.scalars["x"], qt.Equals, "6")

	got, err = evalWith(t, "++x", env)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(7))
	c.Check(env.scalars["x"], qt.Equals, "7")
}

func TestEvalShortCircuit(t *testing.T) {
	c := qt.New(t)
	env := newMemEnv()
	env.scalars["x"] = "0"
	_, err := evalWith(t, "0 && (x = 99)", env)
	c.Assert(err, qt.IsNil)
	c.Check(env.scalars["x"], qt.Equals, "0", qt.Commentf("discarded branch must not assign"))

	_, err = evalWith(t, "1 ? 1 : (x = 99)", env)
	c.Assert(err, qt.IsNil)
	c.Check(env.scalars["x"], qt.Equals, "0", qt.Commentf("unselected ternary branch must not assign"))
}

func TestEvalOverflow(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		expr string
		kind ErrorKind
	}{
		{"9223372036854775807 + 1", Overflow},
		{"-9223372036854775808 - 1", Overflow},
		{"-9223372036854775808 / -1", Overflow},
		{"-(-9223372036854775808)", Overflow},
		{"2 ** 63", Overflow},
		{"1 / 0", DivByZero},
		{"1 % 0", DivByZero},
		{"2 ** -1", NegativeExponent},
	}
	for _, tc := range tests {
		_, err := evalWith(t, tc.expr, nil)
		var aerr *Error
		c.Assert(errors.As(err, &aerr), qt.IsTrue, qt.Commentf("expr %q", tc.expr))
		c.Check(aerr.Kind, qt.Equals, tc.kind, qt.Commentf("expr %q", tc.expr))
	}
}

func TestEvalMinModNegOne(t *testing.T) {
	c := qt.New(t)
	got, err := evalWith(t, "(-9223372036854775807 - 1) % -1", nil)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(0))
}

func TestEvalPowZero(t *testing.T) {
	c := qt.New(t)
	got, err := evalWith(t, "0 ** 0", nil)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(1))
}

func TestEvalMalformedTrailingGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := evalWith(t, "1 + 2 3", nil)
	var aerr *Error
	c.Assert(errors.As(err, &aerr), qt.IsTrue)
	c.Check(aerr.Kind, qt.Equals, Malformed)
}

func TestEvalArrayIndex(t *testing.T) {
	c := qt.New(t)
	env := newMemEnv()
	env.arrays["a"] = []string{"10", "20", "30"}
	got, err := evalWith(t, "a[1]", env)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(20))

	got, err = evalWith(t, "a[-1]", env)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.Equals, int64(30))

	_, err = evalWith(t, "a[2] = 99", env)
	c.Assert(err, qt.IsNil)
	c.Check(env.arrays["a"][2], qt.Equals, "99")
}
