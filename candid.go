// Package candid wires the arena, type/value model, type-table builder,
// header codec, serializer, deserializer, subtype checker, and coercer
// packages behind two entry points — Encode and NewDecoder — so a caller
// never has to assemble those pieces by hand.
package candid

import (
	"os"
	"strconv"

	"github.com/agrinman/candid/arena"
	"github.com/agrinman/candid/coerce"
	"github.com/agrinman/candid/decode"
	"github.com/agrinman/candid/encode"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/subtype"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
	"github.com/agrinman/candid/wiretable"
)

// OptPolicy controls how the special opt rule is reported when a wire
// value is only coercible into an opt T by falling back to it.
type OptPolicy int

const (
	// OptSilence treats the special opt rule as ordinary success (default).
	OptSilence OptPolicy = iota
	// OptWarning also succeeds, but routes a diagnostic through Config.Warnf
	// if one is set.
	OptWarning
	// OptError turns a special-opt situation into a coercion failure.
	OptError
)

func (p OptPolicy) subtype() subtype.OptPolicy {
	switch p {
	case OptWarning:
		return subtype.Warning
	case OptError:
		return subtype.Error
	default:
		return subtype.Silence
	}
}

func (p OptPolicy) coerce() coerce.OptPolicy {
	switch p {
	case OptWarning:
		return coerce.Warning
	case OptError:
		return coerce.Error
	default:
		return coerce.Silence
	}
}

// Config carries the codec's configuration knobs. The zero Config is
// usable: every knob's zero value is its documented default (unlimited
// quotas, terse error messages, silent special-opt).
type Config struct {
	// DecodingQuota bounds total header+value decoding work; 0 disables it.
	DecodingQuota uint64
	// SkippingQuota bounds work spent discarding wire-only record fields
	// a GetValueAs call's expected type drops; 0 disables it.
	SkippingQuota uint64
	// FullErrorMessage requests verbose error messages instead of terse,
	// caller-safe ones.
	FullErrorMessage bool
	// Opt controls the special-opt reporting mode used during GetValueAs.
	Opt OptPolicy
	// Warnf, if non-nil, receives a diagnostic whenever Opt == OptWarning
	// and the special opt rule fires. The candidlog package provides a
	// ready adapter; the core itself performs no I/O.
	Warnf func(format string, args ...interface{})
}

// ConfigFromEnv builds a Config from CANDID_DECODING_QUOTA and
// CANDID_SKIPPING_QUOTA. Unset or unparsable variables leave the
// corresponding quota at its unlimited default.
func ConfigFromEnv() Config {
	var cfg Config
	if v, ok := os.LookupEnv("CANDID_DECODING_QUOTA"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.DecodingQuota = n
		}
	}
	if v, ok := os.LookupEnv("CANDID_SKIPPING_QUOTA"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.SkippingQuota = n
		}
	}
	return cfg
}

func (c Config) wrap(k status.Kind, format string, args ...interface{}) error {
	if c.FullErrorMessage {
		return status.New(k, format, args...)
	}
	return status.NewQuiet(k, format, args...)
}

// Arg pairs a type and a value for one Encode argument, in the order
// Builder.Arg registers and serializes them.
type Arg struct {
	Type  *types.Type
	Value *value.Value
}

// Encode builds args into the complete wire message: magic, type table,
// argument types, and argument values. env supplies bindings for any
// types.Var an argument type references (recursive type definitions); it
// may be nil. If a is non-nil, the returned bytes are arena-owned: they
// live in the arena and are invalidated by its reset/release.
func Encode(env *typeenv.Env, a *arena.Arena, args []Arg) ([]byte, error) {
	b := encode.NewBuilder(env, a)
	for _, arg := range args {
		b.Arg(arg.Type, arg.Value)
	}
	return b.Finish()
}

// Message is a parsed Candid message ready to yield its argument values in
// order: each GetValue/GetValueAs call advances the argument index by one
// and the cursor by exactly the number of bytes that value consumed.
type Message struct {
	dec     *decode.Decoder
	env     *typeenv.Env
	cfg     Config
	checker *subtype.Checker
	idx     int
}

// NewDecoder parses src's DIDL header and returns a Message ready to read
// its argument values. cfg's DecodingQuota bounds header+value decoding
// work, charged as it proceeds.
func NewDecoder(src []byte, cfg Config) (*Message, error) {
	dec, err := decode.NewDecoder(src, cfg.DecodingQuota)
	if err != nil {
		return nil, err
	}
	checker, err := subtype.NewChecker(dec.Env(), cfg.Opt.subtype())
	if err != nil {
		return nil, err
	}
	return &Message{dec: dec, env: dec.Env(), cfg: cfg, checker: checker}, nil
}

// ArgTypes returns the argument types the header declared, in order, each
// possibly a types.Var requiring resolution through Env.
func (m *Message) ArgTypes() []*types.Type {
	return m.dec.ArgTypes()
}

// Env returns the type environment the header bound (the "table<i>" names
// the type table declares).
func (m *Message) Env() *typeenv.Env {
	return m.env
}

// QuotaUsed reports the decoding work charged so far.
func (m *Message) QuotaUsed() uint64 {
	return m.dec.QuotaUsed()
}

// GetValue reads the next argument value as-is, with no subtype check or
// coercion: the expected type is the wire type.
func (m *Message) GetValue() (*value.Value, error) {
	v, err := m.dec.GetValue()
	if err != nil {
		return nil, err
	}
	m.idx++
	return v, nil
}

// GetValueAs reads the next argument value and coerces it to expected. It
// first checks expected is a supertype of the wire type; a Fail result
// under the configured OptPolicy is reported as invalid-argument before
// any bytes are consumed. The value is then read directly against
// expected: wire-only record fields expected doesn't declare are skipped
// in place as they're encountered, charged against cfg.SkippingQuota,
// rather than being decoded and discarded afterward. Coerce then finishes
// the job — promoting nat to int, renumbering variant cases, and applying
// the special opt rule exactly as the subtype check already signalled it
// would.
func (m *Message) GetValueAs(expected *types.Type) (*value.Value, error) {
	argTypes := m.dec.ArgTypes()
	if m.idx >= len(argTypes) {
		return nil, m.cfg.wrap(status.InvalidArgument, "candid: no more arguments")
	}
	wireType := argTypes[m.idx]

	result, err := m.checker.IsSubtype(wireType, expected)
	if err != nil {
		return nil, err
	}
	if result == subtype.Fail {
		return nil, m.cfg.wrap(status.InvalidArgument, "candid: wire type is not a subtype of the expected type")
	}

	skipQuota := decode.NewQuota(m.cfg.SkippingQuota)
	raw, err := decode.ReadValueExpected(m.dec.Src(), m.dec.Cursor(), m.env, wireType, expected, m.dec.Quota(), skipQuota)
	if err != nil {
		return nil, err
	}
	m.dec.AdvanceArg()
	m.idx++

	coercer := coerce.NewCoercer(m.env, m.cfg.Opt.coerce(), m.cfg.Warnf)
	return coercer.Coerce(wireType, expected, raw)
}

// Done reports whether every argument has been consumed and no trailing
// bytes remain.
func (m *Message) Done() error {
	return m.dec.Done()
}

// ParseHeader exposes the header codec directly for callers that need the
// type environment and argument types without also reading values — e.g.
// a caller that wants to inspect a message's shape before deciding how to
// decode it.
func ParseHeader(src []byte) (*wiretable.Header, int, error) {
	return wiretable.Parse(src)
}
