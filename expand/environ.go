package expand

// Environ is the variable-store interface the expansion core consumes.
// Implementations are responsible for the locals-stack shadowing described
// in the data model; Get/Set callers never need to know whether a name
// resolved through a function-local scope or the global scope. Nameref
// variables are returned as they are (Kind NameRef); Resolve follows them.
//
// The shell globals of the data model ($?, $$, $!, $0, $_, $LINENO,
// $SECONDS, $RANDOM, $UID, $EUID, positional parameters as "@"/"*"/"#"/
// "1".."9") are exposed the same way as ordinary variables: Get("?") and
// friends. This mirrors mvdan.cc/sh/v3/expand.Environ; unlike there,
// $LINENO is served by the store like any other name.
type Environ interface {
	// Get retrieves a variable by name. An unset variable is the zero
	// Variable; check Variable.IsSet.
	Get(name string) Variable

	// Each iterates over all currently set variables. Iteration stops
	// early if fn returns false.
	Each(fn func(name string, vr Variable) bool)
}

// WriteEnviron extends Environ with mutation, used by assignment
// expansions ("${v:=default}"), arithmetic assignment operators, and the
// sensitive-name write guard.
type WriteEnviron interface {
	Environ

	// Set stores vr under name. Setting a variable with !vr.IsSet()
	// unsets it. An error is returned if the write is rejected, e.g. a
	// readonly variable or (for arithmetic assignment call sites) one of
	// the sensitive names in SensitiveNames.
	Set(name string, vr Variable) error
}

// ValueKind identifies which of Variable's value fields is meaningful.
type ValueKind uint8

const (
	Unknown ValueKind = iota
	String
	NameRef
	Indexed
	Associative
)

// Variable describes a single shell variable: its value and its
// attributes (local, exported, readonly, nameref).
type Variable struct {
	Set bool

	Local    bool
	Exported bool
	ReadOnly bool
	Integer  bool

	Kind ValueKind

	Str string            // String or NameRef
	List []string         // Indexed
	Map  map[string]string // Associative
}

// IsSet reports whether the variable currently holds a value.
func (v Variable) IsSet() bool { return v.Set }

// Declared reports whether the variable has been declared at all (set, or
// merely attributed/typed, e.g. "declare -a foo" with no assignment).
func (v Variable) Declared() bool {
	return v.Set || v.Local || v.Exported || v.ReadOnly || v.Kind != Unknown
}

// String renders the variable as a scalar, as $name (unsubscripted) would.
func (v Variable) String() string {
	switch v.Kind {
	case String, NameRef:
		return v.Str
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
	}
	return ""
}

// maxNameRefDepth bounds nameref chase depth so that a reference cycle
// terminates instead of looping forever.
const maxNameRefDepth = 10

// Resolve follows a chain of nameref variables (bounded to
// maxNameRefDepth), returning the final variable and the last name
// followed to reach it. It stops at the first non-nameref; on a cycle it
// returns the zero Variable, and after maxNameRefDepth hops it returns
// whatever it last resolved to.
func Resolve(env Environ, name string) (string, Variable) {
	vr := env.Get(name)
	seen := make(map[string]bool, maxNameRefDepth)
	for i := 0; i < maxNameRefDepth; i++ {
		if vr.Kind != NameRef {
			return name, vr
		}
		if seen[vr.Str] {
			return name, Variable{}
		}
		seen[name] = true
		name = vr.Str
		vr = env.Get(name)
	}
	return name, vr
}

// SensitiveNames lists the variables whose value the expansion core never
// alters: arithmetic assignment (e.g. "$((PATH = x))") and the
// "${name:=word}" assignment form reject writes to them. Reads remain
// unrestricted.
var SensitiveNames = map[string]bool{
	"PATH": true, "IFS": true, "HOME": true, "SHELL": true, "ENV": true,
	"LD_PRELOAD": true, "LD_LIBRARY_PATH": true,
}

// ListEnviron returns a read-only Environ backed by a flat "name=value"
// pair list, matching the shape of os.Environ(). All variables are
// exported, mirroring mvdan.cc/sh/v3/expand.ListEnviron.
func ListEnviron(pairs ...string) Environ {
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return listEnviron(m)
}

type listEnviron map[string]string

func (l listEnviron) Get(name string) Variable {
	v, ok := l[name]
	if !ok {
		return Variable{}
	}
	return Variable{Set: true, Exported: true, Kind: String, Str: v}
}

func (l listEnviron) Each(fn func(name string, vr Variable) bool) {
	for name, v := range l {
		if !fn(name, Variable{Set: true, Exported: true, Kind: String, Str: v}) {
			return
		}
	}
}
