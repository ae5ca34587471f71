package store

import "den.sh/den/expand"

// Declare applies attribute flags to name without necessarily assigning a
// value, for "declare -x", "declare -r", "declare -n", "local" and
// similar builtins. Grounded on mvdan.cc/sh/v3/interp/vars.go's
// setVarInternal, which folds attribute bookkeeping into the same map
// write path as an ordinary assignment.
func (s *Store) Declare(name string, local, exported, readOnly, integer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.top()
	if !local {
		if existing, ok := s.findScope(name); ok {
			sc = existing
		}
	}
	vr := sc.vars[name]
	if vr.ReadOnly && readOnly {
		return readOnlyErr(name)
	}
	vr.Local = vr.Local || local
	vr.Exported = vr.Exported || exported
	vr.ReadOnly = vr.ReadOnly || readOnly
	vr.Integer = vr.Integer || integer
	if vr.Kind == expand.Unknown {
		vr.Kind = expand.String
	}
	sc.vars[name] = vr
	return nil
}

// DeclareNameRef marks name as a nameref pointing at target.
func (s *Store) DeclareNameRef(name, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.top()
	vr := sc.vars[name]
	if vr.ReadOnly {
		return readOnlyErr(name)
	}
	vr.Set = true
	vr.Kind = expand.NameRef
	vr.Str = target
	sc.vars[name] = vr
	return nil
}

// Unset removes name from whichever scope currently holds it.
func (s *Store) Unset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.findScope(name)
	if !ok {
		return nil
	}
	if sc.vars[name].ReadOnly {
		return readOnlyErr(name)
	}
	delete(sc.vars, name)
	return nil
}
