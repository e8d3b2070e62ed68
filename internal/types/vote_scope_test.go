package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestEdgeScope(t *testing.T) {
	edgeID := uuid.New()
	scope := EdgeScope(edgeID)
	if !scope.IsEdge() {
		t.Fatalf("expected edge scope")
	}
	if scope.EdgeID() != edgeID {
		t.Fatalf("expected edge id %s, got %s", edgeID, scope.EdgeID())
	}
	if err := scope.Validate(); err != nil {
		t.Fatalf("expected valid edge scope, got %v", err)
	}
}

func TestEdgeScopeNilID(t *testing.T) {
	if err := EdgeScope(uuid.Nil).Validate(); err == nil {
		t.Fatalf("expected error for nil edge id")
	}
}

func TestPairScopeCanonicalizes(t *testing.T) {
	x := uuid.New()
	y := uuid.New()

	s1 := PairScope(x, y, RelationshipRelated)
	s2 := PairScope(y, x, RelationshipRelated)

	a1, b1, t1 := s1.Pair()
	a2, b2, t2 := s2.Pair()
	if a1 != a2 || b1 != b2 || t1 != t2 {
		t.Fatalf("expected same scope for both orderings, got %s and %s", s1, s2)
	}
	if !PairOrdered(a1, b1) {
		t.Fatalf("expected canonical pair in scope, got %s, %s", a1, b1)
	}
	if s1.IsEdge() {
		t.Fatalf("expected pair scope, got edge scope")
	}
	if err := s1.Validate(); err != nil {
		t.Fatalf("expected valid pair scope, got %v", err)
	}
}

func TestPairScopeValidation(t *testing.T) {
	x := uuid.New()
	y := uuid.New()

	tests := []struct {
		name  string
		scope VoteScope
	}{
		{"missing tag", PairScope(x, uuid.Nil, RelationshipRelated)},
		{"same tag twice", PairScope(x, x, RelationshipRelated)},
		{"invalid type", PairScope(x, y, RelationshipType("friend_of"))},
		{"zero value", VoteScope{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.scope.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
