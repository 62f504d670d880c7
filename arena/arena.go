// Package arena implements a bump allocator: a linked sequence of blocks
// with no per-object free; the whole arena is released, reset, or simply
// dropped as one unit. In this module only the encoder allocates from it:
// encode.Builder.Finish (and candid.Encode) copy the finished message into
// the arena when one is given. Types, values, and decoded payloads are
// ordinary Go heap objects and are not owned by an Arena.
//
// This is intentionally built on nothing but the standard library, since
// the core needs to stay embeddable in constrained environments —
// including guest binaries with no heap primitives beyond a bump arena —
// which rules out pulling in a third-party allocator or arena library
// here: a guest binary with no heap beyond a bump arena is also not a
// binary that can afford an arbitrary dependency graph. See DESIGN.md.
package arena

import "github.com/agrinman/candid/status"

// pointerAlign is the alignment a systems allocator would use:
// sizeof(pointer). Go doesn't expose raw pointers into arena storage, but
// allocations are still padded to this boundary so that byte offsets
// behave the way a systems implementation's allocator would, and so that
// two adjacent allocations never alias within the same word.
const pointerAlign = 8

// DefaultBlockSize is the block capacity used by New when the caller does
// not pick one explicitly.
const DefaultBlockSize = 4096

type block struct {
	data []byte
	used int
}

func newBlock(capacity int) *block {
	return &block{data: make([]byte, capacity)}
}

func (b *block) remaining() int {
	return len(b.data) - b.used
}

// Arena is a bump allocator in contiguous blocks. The zero Arena is not
// usable; construct one with New.
type Arena struct {
	blockSize int
	blocks    []*block
}

// New creates an Arena whose blocks are blockSize bytes each. Requests
// larger than blockSize get a dedicated block sized to fit them.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize}
}

func alignUp(n int) int {
	rem := n % pointerAlign
	if rem == 0 {
		return n
	}
	return n + (pointerAlign - rem)
}

// Alloc returns a region of at least n bytes owned by the arena. A request
// of size 0 returns nil, which callers must treat as an empty allocation.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n < 0 {
		return nil, status.New(status.InvalidArgument, "arena: negative allocation size %d", n)
	}
	if len(a.blocks) > 0 {
		cur := a.blocks[len(a.blocks)-1]
		need := alignUp(cur.used) + n
		if need <= len(cur.data) {
			start := alignUp(cur.used)
			cur.used = start + n
			return cur.data[start : start+n : start+n], nil
		}
	}
	capacity := a.blockSize
	if n > capacity {
		capacity = n
	}
	nb := newBlock(capacity)
	nb.used = n
	a.blocks = append(a.blocks, nb)
	return nb.data[:n:n], nil
}

// AllocZero behaves like Alloc, guaranteeing the returned bytes are zeroed.
// Go's make already zero-fills fresh blocks, but a reused block (after
// Reset) is not re-zeroed by Reset itself, so AllocZero clears explicitly.
func (a *Arena) AllocZero(n int) ([]byte, error) {
	b, err := a.Alloc(n)
	if err != nil {
		return nil, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// Dup copies src into a fresh arena allocation and returns the copy.
func (a *Arena) Dup(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	dst, err := a.Alloc(len(src))
	if err != nil {
		return nil, err
	}
	copy(dst, src)
	return dst, nil
}

// DupString copies s into a fresh arena allocation and returns its
// contents as a Go string. The string conversion copies again, so the
// returned string does not alias the arena bytes.
func (a *Arena) DupString(s string) (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	dst, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(dst, s)
	return string(dst), nil
}

// Reset zeroes every block's used counter without releasing the underlying
// storage, so the same blocks are reused by subsequent allocations. Every
// slice handed out before Reset is no longer meaningful: the bytes behind it
// will be overwritten by later allocations, and all derived pointers become
// dangling simultaneously.
func (a *Arena) Reset() {
	for _, b := range a.blocks {
		b.used = 0
	}
}

// Release drops the arena's hold on every block. Combined with Reset, this
// gives the arena its "destroyed as a unit" lifecycle; in Go the blocks
// become eligible for garbage collection once nothing else references the
// slices Alloc returned.
func (a *Arena) Release() {
	a.blocks = nil
}

// Blocks reports how many blocks are currently allocated, for diagnostics
// and tests.
func (a *Arena) Blocks() int {
	return len(a.blocks)
}

// Used reports the total number of bytes bump-allocated across all blocks
// (including alignment padding), for diagnostics and tests.
func (a *Arena) Used() int {
	total := 0
	for _, b := range a.blocks {
		total += b.used
	}
	return total
}
