// Package store implements den's reference VariableStore: a local/global
// scope stack of shell variables, positional parameters, and the shell
// globals ($?, $$, $!, $0, $_, $LINENO, $SECONDS, $RANDOM, $UID, $EUID).
//
// Grounded on mvdan.cc/sh/v3/interp/vars.go's mapEnviron (a parent-linked
// scope chain) and lookupVar's special-name switch, adapted to satisfy
// expand.WriteEnviron and expand.ExitStatusEnviron directly rather than
// the AST-aware interp.Environ the teacher uses.
package store

import (
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"den.sh/den/expand"
)

// scope is one frame of the locals stack: a flat map of variables local
// to a function invocation. The bottom-most scope is the global scope
// and is never popped.
type scope struct {
	vars map[string]expand.Variable
}

func newScope() *scope { return &scope{vars: make(map[string]expand.Variable)} }

// Store is the concrete, in-memory VariableStore used by den's own
// executor and by tests. Every method takes mu, so individual calls from
// several goroutines are serialized; a sequence of calls is not atomic
// as a whole.
type Store struct {
	mu sync.Mutex

	scopes []*scope // scopes[0] is global; top of stack is scopes[len-1]

	positional []string
	scriptName string

	lastExit   int
	lastBgPID  int
	startTime  time.Time
	lastArgSet bool
	lastArg    string
	lineNo     int

	rng *rand.Rand
}

// New returns a Store with one (global) scope and $0 set to scriptName.
func New(scriptName string) *Store {
	s := &Store{
		scopes:     []*scope{newScope()},
		scriptName: scriptName,
		startTime:  time.Now(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return s
}

// PushLocalScope implements VariableStore's push_local_scope: it is
// called on entry to a shell function so "local" declarations inside it
// shadow, rather than clobber, the caller's variables.
func (s *Store) PushLocalScope() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, newScope())
}

// PopLocalScope implements VariableStore's pop_local_scope.
func (s *Store) PopLocalScope() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *Store) top() *scope { return s.scopes[len(s.scopes)-1] }

func (s *Store) findScope(name string) (*scope, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if _, ok := s.scopes[i].vars[name]; ok {
			return s.scopes[i], true
		}
	}
	return nil, false
}

// Get implements expand.Environ. It resolves shell globals and
// positional parameters first, then the locals stack from innermost to
// the global scope, then the process environment for anything never
// explicitly set (mirroring a freshly started shell inheriting its
// parent's environment).
func (s *Store) Get(name string) expand.Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vr, ok := s.specialGet(name); ok {
		return vr
	}
	if sc, ok := s.findScope(name); ok {
		return sc.vars[name]
	}
	if v, ok := os.LookupEnv(name); ok {
		return expand.Variable{Set: true, Exported: true, Kind: expand.String, Str: v}
	}
	return expand.Variable{}
}

func (s *Store) specialGet(name string) (expand.Variable, bool) {
	switch name {
	case "#":
		return strVar(strconv.Itoa(len(s.positional))), true
	case "@", "*":
		return expand.Variable{Set: len(s.positional) > 0, Kind: expand.Indexed, List: s.positional}, true
	case "?":
		return strVar(strconv.Itoa(s.lastExit)), true
	case "$":
		return strVar(strconv.Itoa(os.Getpid())), true
	case "!":
		return strVar(strconv.Itoa(s.lastBgPID)), true
	case "_":
		if s.lastArgSet {
			return strVar(s.lastArg), true
		}
		return expand.Variable{}, true
	case "0":
		return strVar(s.scriptName), true
	case "LINENO":
		return strVar(strconv.Itoa(s.lineNo)), true
	case "SECONDS":
		return strVar(strconv.FormatInt(int64(time.Since(s.startTime).Seconds()), 10)), true
	case "RANDOM":
		return strVar(strconv.Itoa(s.rng.Intn(32768))), true
	case "UID":
		return strVar(strconv.Itoa(os.Getuid())), true
	case "EUID":
		return strVar(strconv.Itoa(os.Geteuid())), true
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		i := int(name[0] - '1')
		if i < len(s.positional) {
			return strVar(s.positional[i]), true
		}
		return strVar(""), true
	}
	return expand.Variable{}, false
}

func strVar(s string) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: s}
}

// Set implements expand.WriteEnviron. Writes to the sensitive names are
// rejected only when the caller is an arithmetic-assignment call site;
// direct assignment through Set (e.g. a plain "IFS=: " shell assignment)
// is always permitted, matching ordinary shell behavior — the guard
// lives in the expand package's arithmetic bridge and its
// "${name:=word}" assignment, not here.
func (s *Store) Set(name string, vr expand.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.findScope(name); ok {
		if cur := sc.vars[name]; cur.ReadOnly {
			return readOnlyErr(name)
		}
		sc.vars[name] = vr
		return nil
	}
	s.top().vars[name] = vr
	return nil
}

// Each implements expand.Environ, iterating the merged view of all
// scopes (innermost wins) plus any inherited process-environment names
// not shadowed by a shell variable.
func (s *Store) Each(fn func(name string, vr expand.Variable) bool) {
	s.mu.Lock()
	seen := map[string]bool{}
	var merged []struct {
		name string
		vr   expand.Variable
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for name, vr := range s.scopes[i].vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, struct {
				name string
				vr   expand.Variable
			}{name, vr})
		}
	}
	s.mu.Unlock()
	for _, e := range merged {
		if !fn(e.name, e.vr) {
			return
		}
	}
}

// LastExitCode implements expand.ExitStatusEnviron.
func (s *Store) LastExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastExit
}

// SetLastExitCode implements expand.ExitStatusEnviron.
func (s *Store) SetLastExitCode(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastExit = code
}

// SetPositional installs the positional parameters ($1, $2, ... and
// $#/$@/$*).
func (s *Store) SetPositional(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positional = args
}

// SetLastBackgroundPID records $! after starting a background job.
func (s *Store) SetLastBackgroundPID(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBgPID = pid
}

// SetLineNo records the current source line for $LINENO.
func (s *Store) SetLineNo(line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineNo = line
}

// SetArg0 updates $0, the script or function name reported to the running
// program; New seeds it, but a "source" or function call can reassign it.
func (s *Store) SetArg0(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptName = name
}

// SetLastArg records $_, the last argument of the previous command.
func (s *Store) SetLastArg(arg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastArg = arg
	s.lastArgSet = true
}

func readOnlyErr(name string) error {
	return &storeError{name: name}
}

type storeError struct{ name string }

func (e *storeError) Error() string { return e.name + ": readonly variable" }
