package types

import (
	"fmt"

	"github.com/google/uuid"
)

// VoteScope is the target of a vote: exactly one of an accepted edge or a
// pending canonical pair. Construct it with EdgeScope or PairScope.
type VoteScope struct {
	edgeID *uuid.UUID
	tagA   uuid.UUID
	tagB   uuid.UUID
	relTyp RelationshipType
}

func EdgeScope(edgeID uuid.UUID) VoteScope {
	return VoteScope{edgeID: &edgeID}
}

// PairScope canonicalizes the pair, so callers may pass either ordering.
func PairScope(x, y uuid.UUID, t RelationshipType) VoteScope {
	a, b := CanonicalPair(x, y)
	return VoteScope{tagA: a, tagB: b, relTyp: t}
}

func (s VoteScope) IsEdge() bool {
	return s.edgeID != nil
}

func (s VoteScope) EdgeID() uuid.UUID {
	if s.edgeID == nil {
		return uuid.Nil
	}
	return *s.edgeID
}

func (s VoteScope) Pair() (uuid.UUID, uuid.UUID, RelationshipType) {
	return s.tagA, s.tagB, s.relTyp
}

func (s VoteScope) Validate() error {
	if s.edgeID != nil {
		if *s.edgeID == uuid.Nil {
			return fmt.Errorf("edge scope requires a non-nil edge id")
		}
		return nil
	}
	if s.tagA == uuid.Nil || s.tagB == uuid.Nil {
		return fmt.Errorf("pair scope requires two tag ids")
	}
	if s.tagA == s.tagB {
		return fmt.Errorf("pair scope requires two distinct tags")
	}
	if !s.relTyp.Valid() {
		return fmt.Errorf("pair scope requires a valid relationship type, got %q", s.relTyp)
	}
	return nil
}

func (s VoteScope) String() string {
	if s.edgeID != nil {
		return fmt.Sprintf("edge:%s", s.edgeID)
	}
	return fmt.Sprintf("pair:%s:%s:%s", s.tagA, s.tagB, s.relTyp)
}
