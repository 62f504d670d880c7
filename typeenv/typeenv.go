// Package typeenv implements the name→Type environment: the binding table
// that gives meaning to types.Var references, whether they come from a
// parsed header's "table<i>" entries or from a caller's own recursive
// type definitions.
package typeenv

import (
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/types"
)

// Env is a name→Type map with insert-same-name-same-type idempotence and
// transitive Var resolution.
type Env struct {
	bindings map[string]*types.Type
}

// New returns an empty environment.
func New() *Env {
	return &Env{bindings: make(map[string]*types.Type)}
}

// Insert binds name to t. Inserting the same name a second time succeeds
// only if t is the same Type value already bound; this package uses pointer
// identity, which is what every caller in this module actually produces
// (the wiretable builder and header parser each allocate a name's Type
// exactly once and reuse the pointer thereafter).
func (e *Env) Insert(name string, t *types.Type) error {
	if existing, ok := e.bindings[name]; ok {
		if existing == t {
			return nil
		}
		return status.New(status.InvalidArgument, "typeenv: %q already bound to a different type", name)
	}
	e.bindings[name] = t
	return nil
}

// Lookup returns the Type directly bound to name, without following
// further Var indirection.
func (e *Env) Lookup(name string) (*types.Type, bool) {
	t, ok := e.bindings[name]
	return t, ok
}

// maxResolveDepth bounds the length of a Var→Var chain the environment
// will follow before concluding the chain is malformed. Candid type
// tables are finite and acyclic at the Var-chain level (cycles run through
// composite fields, not bare Var-to-Var links), so any chain this long
// indicates a construction bug rather than a legitimate recursive type.
const maxResolveDepth = 10000

// Resolve follows t through zero or more Var indirections until it reaches
// a non-Var type, returning that type. A Var whose name is unbound, or a
// chain that does not terminate within maxResolveDepth, is invalid-argument.
func (e *Env) Resolve(t *types.Type) (*types.Type, error) {
	cur := t
	for i := 0; i < maxResolveDepth; i++ {
		if cur.Kind != types.Var {
			return cur, nil
		}
		next, ok := e.bindings[cur.VarName]
		if !ok {
			return nil, status.New(status.InvalidArgument, "typeenv: unresolved var %q", cur.VarName)
		}
		cur = next
	}
	return nil, status.New(status.InvalidArgument, "typeenv: var chain exceeds %d indirections", maxResolveDepth)
}

// Len reports how many names are bound, mainly for diagnostics and tests.
func (e *Env) Len() int {
	return len(e.bindings)
}
