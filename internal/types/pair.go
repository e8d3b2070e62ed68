package types

import (
	"bytes"

	"github.com/google/uuid"
)

// CanonicalPair orders two tag ids so that (X,Y) and (Y,X) always map to
// the same stored pair. Every write and every lookup goes through this,
// which is what lets a single unique constraint stand in for an
// OR-of-both-orderings at every call site.
func CanonicalPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(x[:], y[:]) > 0 {
		return y, x
	}
	return x, y
}

// PairOrdered reports whether a, b are already in canonical order.
func PairOrdered(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) <= 0
}
