// Package label implements Candid's field-identity rules: the canonical
// 32-bit hash derived from a field or variant-case name, and the
// sort/uniqueness utilities the type-table builder and header parser both
// need to enforce strictly ascending label order.
package label

import (
	"sort"

	"github.com/agrinman/candid/status"
)

// multiplier is the constant the canonical hash recurrence uses.
const multiplier = 223

// Hash computes Candid's canonical field-name hash: each UTF-8 byte of name
// folds into a running 32-bit accumulator as acc = acc*223 + byte (mod
// 2^32), starting from an accumulator of 0.
func Hash(name string) uint32 {
	var acc uint32
	for i := 0; i < len(name); i++ {
		acc = acc*multiplier + uint32(name[i])
	}
	return acc
}

// Label is a record/variant field's identity: either an explicit numeric ID
// or a name whose ID is its canonical Hash. Two Labels compare equal iff
// their IDs compare equal; Name is carried for diagnostics only.
type Label struct {
	id   uint32
	name string
	hasName bool
}

// ID constructs a purely numeric label.
func ID(id uint32) Label {
	return Label{id: id}
}

// Name constructs a label from a field name, computing its canonical hash.
func Name(name string) Label {
	return Label{id: Hash(name), name: name, hasName: true}
}

// NumericID returns the label's 32-bit identity, which is what equality and
// ordering are defined over.
func (l Label) NumericID() uint32 {
	return l.id
}

// Text returns the original name and whether one was supplied. A label
// built via ID has no name.
func (l Label) Text() (string, bool) {
	return l.name, l.hasName
}

// Equal reports whether two labels share the same numeric ID; names are
// advisory and do not participate in equality.
func (l Label) Equal(other Label) bool {
	return l.id == other.id
}

// Less orders labels by ascending numeric ID, the order record fields and
// variant cases must appear in on the wire (service methods order
// separately, by name).
func (l Label) Less(other Label) bool {
	return l.id < other.id
}

// SortByID sorts labels in place by ascending numeric ID. The sort is
// stable so that callers relying on original relative order for equal IDs
// (which should never legitimately occur) get deterministic behavior.
func SortByID(labels []Label) {
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].id < labels[j].id
	})
}

// FirstDuplicate scans a slice already sorted by SortByID and returns the
// index of the first label whose ID repeats the previous one, or -1 if the
// IDs are unique.
func FirstDuplicate(sorted []Label) int {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].id == sorted[i-1].id {
			return i
		}
	}
	return -1
}

// CheckAscending verifies that labels are already in strictly ascending
// numeric-ID order, as the wire format requires them to appear: no duplicate
// and no out-of-order entry. It does not sort; callers that parse wire bytes
// must reject mis-ordered input rather than silently re-sort it.
func CheckAscending(labels []Label) error {
	for i := 1; i < len(labels); i++ {
		if labels[i].id == labels[i-1].id {
			return status.New(status.InvalidArgument, "label: duplicate field id %d", labels[i].id)
		}
		if labels[i].id < labels[i-1].id {
			return status.New(status.InvalidArgument, "label: field id %d out of order after %d", labels[i].id, labels[i-1].id)
		}
	}
	return nil
}

// CheckNamesAscending verifies that service method names appear in strictly
// ascending lexicographic order with no duplicates.
func CheckNamesAscending(names []string) error {
	for i := 1; i < len(names); i++ {
		switch {
		case names[i] == names[i-1]:
			return status.New(status.InvalidArgument, "label: duplicate method name %q", names[i])
		case names[i] < names[i-1]:
			return status.New(status.InvalidArgument, "label: method name %q out of order after %q", names[i], names[i-1])
		}
	}
	return nil
}
