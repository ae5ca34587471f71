package expand

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

// fakeEnviron is a small in-memory WriteEnviron + ExitStatusEnviron used
// only by this package's tests.
type fakeEnviron struct {
	vars     map[string]Variable
	lastExit int
}

func newFakeEnviron() *fakeEnviron {
	return &fakeEnviron{vars: map[string]Variable{}}
}

func (f *fakeEnviron) Get(name string) Variable { return f.vars[name] }

func (f *fakeEnviron) Set(name string, vr Variable) error {
	f.vars[name] = vr
	return nil
}

func (f *fakeEnviron) Each(fn func(name string, vr Variable) bool) {
	for name, vr := range f.vars {
		if !fn(name, vr) {
			return
		}
	}
}

func (f *fakeEnviron) LastExitCode() int        { return f.lastExit }
func (f *fakeEnviron) SetLastExitCode(code int) { f.lastExit = code }

func (f *fakeEnviron) setStr(name, val string) {
	f.vars[name] = Variable{Set: true, Kind: String, Str: val}
}

func scriptExec(script string) ExecFunc {
	return func(cmd string, out *strings.Builder) (int, error) {
		out.WriteString(script)
		return 0, nil
	}
}

func TestExpandWordLiteral(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	fields, err := ExpandWord(Config{Env: env}, "hello world", false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 2)
	c.Check(fields[0].Value, qt.Equals, "hello")
	c.Check(fields[1].Value, qt.Equals, "world")
}

func TestExpandWordArithmeticAssignment(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("x", "10")
	fields, err := ExpandWord(Config{Env: env}, "result=$((x += 5))", false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 1)
	c.Check(fields[0].Value, qt.Equals, "result=15")
	c.Check(env.Get("x").String(), qt.Equals, "15")
}

func TestExpandWordStripSuffix(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("file", "archive.tar.gz")
	fields, err := ExpandWord(Config{Env: env}, `"${file%.*}"`, false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 1)
	c.Check(fields[0].Value, qt.Equals, "archive.tar")

	fields, err = ExpandWord(Config{Env: env}, `"${file%%.*}"`, false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "archive")
}

func TestExpandWordAssocArrayKeys(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.vars["m"] = Variable{Set: true, Kind: Associative, Map: map[string]string{
		"one": "1", "two": "2", "three": "3",
	}}
	fields, err := ExpandWord(Config{Env: env}, "${!m[@]}", false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 3)
	got := map[string]bool{}
	for _, f := range fields {
		got[f.Value] = true
	}
	c.Check(got["one"] && got["two"] && got["three"], qt.IsTrue)
}

func TestExpandWordReplaceAllOccurrences(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("s", "a.b.c.d")
	fields, err := ExpandWord(Config{Env: env}, "${s//./_}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "a_b_c_d")

	fields, err = ExpandWord(Config{Env: env}, "${s/./_}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "a_b.c.d")
}

func TestExpandWordCommandSubstExitCode(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	cfg := Config{Env: env, Exec: func(cmd string, out *strings.Builder) (int, error) {
		return 1, nil
	}}
	fields, err := ExpandWord(cfg, "x=$(false)", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "x=")
	c.Check(env.LastExitCode(), qt.Equals, 1)
}

func TestExpandWordDefaultAndAlternative(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	fields, err := ExpandWord(Config{Env: env}, "${missing:-5}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "5")

	env.setStr("set", "x")
	fields, err = ExpandWord(Config{Env: env}, "${set:+yes}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "yes")
}

func TestExpandWordAssignDefault(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	fields, err := ExpandWord(Config{Env: env}, "${x:=hi}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "hi")
	c.Check(env.Get("x").String(), qt.Equals, "hi")
}

func TestExpandWordLength(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("s", "hello")
	fields, err := ExpandWord(Config{Env: env}, "${#s}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "5")
}

func TestExpandWordCaseConversion(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("s", "Hello World")
	fields, err := ExpandWord(Config{Env: env}, `"${s^^}"`, false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "HELLO WORLD")

	fields, err = ExpandWord(Config{Env: env}, `"${s,,}"`, false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "hello world")
}

func TestExpandWordTilde(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("HOME", "/home/u")
	fields, err := ExpandWord(Config{Env: env}, "~/bin", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "/home/u/bin")
}

func TestExpandWordQuotingSuppressesSplit(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("s", "a b c")
	fields, err := ExpandWord(Config{Env: env}, `"${s}"`, false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 1)
	c.Check(fields[0].Value, qt.Equals, "a b c")

	fields, err = ExpandWord(Config{Env: env}, "${s}", false)
	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.HasLen, 3)
}

func TestExpandWordBackticks(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	cfg := Config{Env: env, Exec: scriptExec("hi\n")}
	fields, err := ExpandWord(cfg, "x=`echo hi`", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "x=hi")
}

func TestExpandWordNestedExpansion(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	cfg := Config{Env: env, Exec: scriptExec("2024-01-01")}
	fields, err := ExpandWord(cfg, "${d:-$(date)}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "2024-01-01")
}

func TestSplitFieldsIFSColon(t *testing.T) {
	c := qt.New(t)
	got := SplitFields(":a::b:", ":")
	c.Check(got, qt.DeepEquals, []string{"", "a", "", "b", ""})
}

// TestExpandWordIFSColonSingleDelimiter guards against assembleFields
// emitting a spurious empty field for every interior non-whitespace-IFS
// byte: a single ":" between two non-empty runs is one boundary, not two.
func TestExpandWordIFSColonSingleDelimiter(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("IFS", ":")
	env.setStr("x", "a:b")
	fields, err := ExpandWord(Config{Env: env}, "$x", false)
	c.Assert(err, qt.IsNil)
	var got []string
	for _, f := range fields {
		got = append(got, f.Value)
	}
	c.Check(got, qt.DeepEquals, []string{"a", "b"})
}

func TestExpandWordDefaultOperatorNotSubstring(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	fields, err := ExpandWord(Config{Env: env}, "${x:-word}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "word")
}

func TestExpandWordCaseFirstLetter(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	env.setStr("s", "hello world")
	fields, err := ExpandWord(Config{Env: env}, `"${s@u}"`, false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "Hello world")

	env.setStr("s", "HELLO")
	fields, err = ExpandWord(Config{Env: env}, "${s@l}", false)
	c.Assert(err, qt.IsNil)
	c.Check(fields[0].Value, qt.Equals, "hELLO")
}

func TestRemoveQuotesRoundTrip(t *testing.T) {
	c := qt.New(t)
	in := `foo "bar baz" 'qux'`
	once := RemoveQuotes(in)
	twice := RemoveQuotes(once)
	c.Check(twice, qt.Equals, once)
}

func TestBraceExpansionList(t *testing.T) {
	c := qt.New(t)
	got := Braces("foo{bar,baz}")
	c.Check(got, qt.DeepEquals, []string{"foobar", "foobaz"})
}

func TestBraceExpansionSequence(t *testing.T) {
	c := qt.New(t)
	got := Braces("a{1..3}")
	c.Check(got, qt.DeepEquals, []string{"a1", "a2", "a3"})
}

func TestExpandWordMaxWordLenEnforced(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	cfg := Config{Env: env, MaxWordLen: 4}
	_, err := ExpandWord(cfg, "hello", false)
	c.Assert(err, qt.IsNotNil)
	var aerr *Error
	c.Assert(asError(err, &aerr), qt.IsTrue)
	c.Check(aerr.Kind, qt.Equals, ErrExpansionTooLong)
}

func TestUnboundVariableErrors(t *testing.T) {
	c := qt.New(t)
	env := newFakeEnviron()
	_, err := ExpandWord(Config{Env: env, Unbound: true}, "$missing", false)
	c.Assert(err, qt.IsNotNil)
	var eerr *Error
	c.Assert(asError(err, &eerr), qt.IsTrue)
	c.Check(eerr.Kind, qt.Equals, ErrUnset)
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
