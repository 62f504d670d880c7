package decode

import "github.com/agrinman/candid/status"

// Quota tracks accumulated work against an optional upper bound:
// "decoding_quota" and "skipping_quota" are both counts of abstract work
// units, where a limit of zero disables enforcement.
//
// This package charges 1 unit per consumed byte and 1 additional unit per
// ULEB128 length prefix or variant index read. Entering a record, a record
// field, or a vec element charges nothing beyond the bytes it reads, so a
// value made only of null or reserved parts costs nothing.
type Quota struct {
	limit uint64
	used  uint64
}

// NewQuota constructs a Quota with the given limit; 0 means unlimited.
func NewQuota(limit uint64) *Quota {
	return &Quota{limit: limit}
}

// Charge adds n units of work and fails with status.Overflow if doing so
// would exceed the limit (when the limit is non-zero).
func (q *Quota) Charge(n uint64) error {
	if q == nil || q.limit == 0 {
		return nil
	}
	q.used += n
	if q.used > q.limit {
		return status.New(status.Overflow, "decode: quota exceeded (%d > %d)", q.used, q.limit)
	}
	return nil
}

// Used reports the work charged so far.
func (q *Quota) Used() uint64 {
	if q == nil {
		return 0
	}
	return q.used
}
