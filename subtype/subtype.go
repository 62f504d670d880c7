// Package subtype implements the coinductive Candid subtype judgment
// `t1 <: t2`, evaluated against a type environment with a pair-cache (Γ)
// to make recursive/self-referential types terminate. Γ is backed by a
// bounded github.com/hashicorp/golang-lru cache rather than an unbounded
// map, since a pathological type graph could otherwise grow it without
// limit.
package subtype

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

// Result is the three-valued outcome of a subtype judgment: ok, ok-but-via
// the special opt rule, or fail.
type Result int

const (
	Fail Result = iota
	OK
	OptSpecial
)

// OptPolicy controls how the special opt rule is reported when
// `t1 <: opt T2` only holds by falling back to it.
type OptPolicy int

const (
	// Silence reports the special opt rule as OptSpecial, a non-failing
	// Result (default).
	Silence OptPolicy = iota
	// Warning also reports it as OptSpecial; the caller can inspect the
	// Result value returned to decide whether to log it.
	Warning
	// Error turns a special-opt situation into a subtype failure.
	Error
)

// defaultPairCacheSize bounds Γ. Candid type graphs used in practice have
// a handful of composite types; this is generous headroom, not a tuned
// production constant.
const defaultPairCacheSize = 4096

// Checker evaluates t1 <: t2 judgments against a shared environment and a
// bounded coinductive pair-cache.
type Checker struct {
	env    *typeenv.Env
	policy OptPolicy
	gamma  *lru.Cache
}

// NewChecker constructs a Checker. env resolves any types.Var encountered
// on either side of a judgment.
func NewChecker(env *typeenv.Env, policy OptPolicy) (*Checker, error) {
	cache, err := lru.New(defaultPairCacheSize)
	if err != nil {
		return nil, status.New(status.AllocationFailure, "subtype: could not allocate pair cache: %v", err)
	}
	return &Checker{env: env, policy: policy, gamma: cache}, nil
}

type pairKey struct {
	a, b *types.Type
}

// IsSubtype evaluates t1 <: t2, returning the three-valued Result.
func (c *Checker) IsSubtype(t1, t2 *types.Type) (Result, error) {
	return c.check(t1, t2)
}

func (c *Checker) check(t1, t2 *types.Type) (Result, error) {
	if t1 == t2 {
		return OK, nil
	}

	if t1.Kind == types.Var || t2.Kind == types.Var {
		key := pairKey{t1, t2}
		if _, ok := c.gamma.Get(key); ok {
			// Coinductive hypothesis: this pair is already being assumed.
			return OK, nil
		}
		c.gamma.Add(key, struct{}{})
		r1, err := c.resolve(t1)
		if err != nil {
			c.gamma.Remove(key)
			return Fail, err
		}
		r2, err := c.resolve(t2)
		if err != nil {
			c.gamma.Remove(key)
			return Fail, err
		}
		res, err := c.checkResolved(r1, r2)
		if err != nil || res == Fail {
			c.gamma.Remove(key)
		}
		return res, err
	}

	return c.checkResolved(t1, t2)
}

func (c *Checker) resolve(t *types.Type) (*types.Type, error) {
	if t.Kind != types.Var {
		return t, nil
	}
	return c.env.Resolve(t)
}

func (c *Checker) checkResolved(t1, t2 *types.Type) (Result, error) {
	if t1 == t2 {
		return OK, nil
	}
	if t1.Kind == t2.Kind && types.IsPrimitive(t1.Kind) {
		return OK, nil
	}
	if t2.Kind == types.Reserved {
		return OK, nil
	}
	if t1.Kind == types.Empty {
		return OK, nil
	}
	if t1.Kind == types.Nat && t2.Kind == types.Int {
		return OK, nil
	}
	if t1.Kind == types.Vec && t2.Kind == types.Vec {
		return c.check(t1.Inner, t2.Inner)
	}
	if t2.Kind == types.Opt {
		return c.checkAgainstOpt(t1, t2)
	}
	if t1.Kind == types.Record && t2.Kind == types.Record {
		return c.checkRecord(t1, t2)
	}
	if t1.Kind == types.Variant && t2.Kind == types.Variant {
		return c.checkVariant(t1, t2)
	}
	if t1.Kind == types.Func && t2.Kind == types.Func {
		return c.checkFunc(t1, t2)
	}
	if t1.Kind == types.Service && t2.Kind == types.Service {
		return c.checkService(t1, t2)
	}
	return Fail, nil
}

func (c *Checker) checkAgainstOpt(t1, t2 *types.Type) (Result, error) {
	inner := t2.Inner
	if t1.Kind == types.Null {
		return OK, nil
	}
	if t1.Kind == types.Opt {
		return c.check(t1.Inner, inner)
	}
	resolvedInner, err := c.resolve(inner)
	if err != nil {
		return Fail, err
	}
	if !isOptionalLikeResolved(resolvedInner) {
		res, err := c.check(t1, inner)
		if err != nil {
			return Fail, err
		}
		if res != Fail {
			return res, nil
		}
	}
	switch c.policy {
	case Error:
		return Fail, nil
	default:
		return OptSpecial, nil
	}
}

func isOptionalLikeResolved(t *types.Type) bool {
	switch t.Kind {
	case types.Null, types.Reserved, types.Opt:
		return true
	default:
		return false
	}
}

func (c *Checker) checkRecord(t1, t2 *types.Type) (Result, error) {
	byLabel := make(map[uint32]*types.Type, len(t1.Fields))
	for _, f := range t1.Fields {
		byLabel[f.Label.NumericID()] = f.Type
	}
	worst := OK
	for _, f2 := range t2.Fields {
		f1, ok := byLabel[f2.Label.NumericID()]
		if !ok {
			resolved, err := c.resolve(f2.Type)
			if err != nil {
				return Fail, err
			}
			if isOptionalLikeResolved(resolved) {
				continue
			}
			return Fail, nil
		}
		res, err := c.check(f1, f2.Type)
		if err != nil {
			return Fail, err
		}
		if res == Fail {
			return Fail, nil
		}
		if res == OptSpecial {
			worst = OptSpecial
		}
	}
	return worst, nil
}

func (c *Checker) checkVariant(t1, t2 *types.Type) (Result, error) {
	byLabel := make(map[uint32]*types.Type, len(t2.Fields))
	for _, f := range t2.Fields {
		byLabel[f.Label.NumericID()] = f.Type
	}
	worst := OK
	for _, f1 := range t1.Fields {
		f2, ok := byLabel[f1.Label.NumericID()]
		if !ok {
			return Fail, nil
		}
		res, err := c.check(f1.Type, f2)
		if err != nil {
			return Fail, err
		}
		if res == Fail {
			return Fail, nil
		}
		if res == OptSpecial {
			worst = OptSpecial
		}
	}
	return worst, nil
}

func (c *Checker) checkFunc(t1, t2 *types.Type) (Result, error) {
	if len(t1.Args) != len(t2.Args) || len(t1.Rets) != len(t2.Rets) {
		return Fail, nil
	}
	if t1.Mode != t2.Mode {
		return Fail, nil
	}
	worst := OK
	for i := range t1.Args {
		// Contravariant: t2.args[i] <: t1.args[i].
		res, err := c.check(t2.Args[i], t1.Args[i])
		if err != nil {
			return Fail, err
		}
		if res == Fail {
			return Fail, nil
		}
		if res == OptSpecial {
			worst = OptSpecial
		}
	}
	for i := range t1.Rets {
		res, err := c.check(t1.Rets[i], t2.Rets[i])
		if err != nil {
			return Fail, err
		}
		if res == Fail {
			return Fail, nil
		}
		if res == OptSpecial {
			worst = OptSpecial
		}
	}
	return worst, nil
}

func (c *Checker) checkService(t1, t2 *types.Type) (Result, error) {
	byName := make(map[string]*types.Type, len(t1.Methods))
	for _, m := range t1.Methods {
		byName[m.Name] = m.Func
	}
	worst := OK
	for _, m2 := range t2.Methods {
		m1, ok := byName[m2.Name]
		if !ok {
			return Fail, nil
		}
		res, err := c.check(m1, m2.Func)
		if err != nil {
			return Fail, err
		}
		if res == Fail {
			return Fail, nil
		}
		if res == OptSpecial {
			worst = OptSpecial
		}
	}
	return worst, nil
}
