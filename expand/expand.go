// Package expand implements den's word-expansion and arithmetic-evaluation
// core: tilde expansion, parameter expansion, arithmetic expansion,
// command and process substitution, string interpolation, quote removal
// and IFS field splitting. It produces argv-ready tokens from raw,
// already-tokenized shell words.
package expand

import (
	"strings"
)

// Config holds the knobs that shape a Context: the variable store,
// the command-execution callback, and limits guarding against
// pathological input.
type Config struct {
	Env WriteEnviron

	// Exec runs a command substitution or process substitution body.
	// Required for $(...), `...` and <(...)/>(...); when nil, command
	// substitution fails with ErrCommandFailed and process substitution
	// with ErrProcessSubstitution.
	Exec ExecFunc

	// MaxDepth bounds recursive expansion nesting (e.g. ${a:-$(b)}).
	// Zero means the default of 64.
	MaxDepth int

	// MaxWordLen bounds the size of any single expanded word: scanWord
	// rejects with ErrExpansionTooLong once the text it has accumulated
	// for the current word crosses this many bytes. Zero means the
	// default of 16384 bytes.
	MaxWordLen int

	// Unbound mirrors "set -u": referencing an unset parameter (outside
	// of the ":-"/"-"/":="/"="/":?"/"?"/":+"/"+" forms, which handle
	// unset explicitly) is an error rather than expanding to empty.
	// $@, $* and $# are exempt, and the length form ${#name} is not
	// checked.
	Unbound bool
}

// ExecFunc runs cmd as the shell would, writing its stdout to out, and
// returns its exit status. It is the sole hook the expand package uses to
// re-enter the executor, matching the "fork, dispatch back into the
// shell" model described for command substitution.
type ExecFunc func(cmd string, out *strings.Builder) (exitCode int, err error)

const (
	defaultMaxDepth   = 64
	defaultMaxWordLen = 16 * 1024
)

// Context carries expansion state across one call tree: recursion depth,
// the cached IFS value, and the variable store. A Context is built fresh
// (via NewContext) per top-level expand call; it is not safe for
// concurrent use, matching the single-threaded cooperative model.
type Context struct {
	cfg   Config
	depth int
	ifs   string
}

// NewContext builds a Context from cfg, filling in defaults.
func NewContext(cfg Config) *Context {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxWordLen <= 0 {
		cfg.MaxWordLen = defaultMaxWordLen
	}
	c := &Context{cfg: cfg}
	c.loadIFS()
	return c
}

func (c *Context) loadIFS() {
	vr := c.cfg.Env.Get("IFS")
	if !vr.IsSet() {
		c.ifs = " \t\n"
	} else {
		c.ifs = vr.String()
	}
}

func (c *Context) enter() error {
	c.depth++
	if c.depth > c.cfg.MaxDepth {
		c.depth--
		return &Error{Kind: ErrBadSubstitution, Word: "max expansion depth exceeded"}
	}
	return nil
}

func (c *Context) leave() { c.depth-- }

// Field is one argv-ready token produced by ExpandWord. Quoted marks a
// field that contains quoted text: Quoted == true means the caller must
// skip pathname globbing for this field.
type Field struct {
	Value  string
	Quoted bool
}

// ExpandWord is the primary entry point: it expands word (tildes,
// parameters, arithmetic, command/process substitution, quote removal)
// and splits the result into fields on IFS. skipTilde suppresses tilde
// expansion, as callers do for an already-quoted argument.
func ExpandWord(cfg Config, word string, skipTilde bool) ([]Field, error) {
	c := NewContext(cfg)
	return c.ExpandWord(word, skipTilde)
}

func (c *Context) ExpandWord(word string, skipTilde bool) ([]Field, error) {
	parts, err := c.scanWord(word, skipTilde)
	if err != nil {
		return nil, err
	}
	return c.assembleFields(parts), nil
}

// ExpandFields expands a sequence of words and concatenates their
// resulting fields in order, matching how a shell expands an entire
// simple command's argv.
func ExpandFields(cfg Config, words []string, skipTilde bool) ([]Field, error) {
	c := NewContext(cfg)
	var out []Field
	for _, w := range words {
		fs, err := c.ExpandWord(w, skipTilde)
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	return out, nil
}
