package types

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipFeedback is one user's vote, scoped either to an accepted
// edge or to a still-pending pair. The nullable columns exist only at the
// storage layer; everything above the repo speaks VoteScope, so the
// invalid "both set" and "neither set" shapes cannot be constructed.
type RelationshipFeedback struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	EdgeID *uuid.UUID        `gorm:"type:uuid;index" json:"edge_id,omitempty"`
	TagAID *uuid.UUID        `gorm:"type:uuid" json:"tag_a_id,omitempty"`
	TagBID *uuid.UUID        `gorm:"type:uuid" json:"tag_b_id,omitempty"`
	Type   *RelationshipType `gorm:"column:type" json:"type,omitempty"`

	Vote   Vote   `gorm:"column:vote;not null" json:"vote"`
	Reason string `gorm:"column:reason" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RelationshipFeedback) TableName() string { return "relationship_feedback" }

// Scope reconstructs the sum type from the stored columns.
func (f *RelationshipFeedback) Scope() VoteScope {
	if f.EdgeID != nil {
		return EdgeScope(*f.EdgeID)
	}
	if f.TagAID != nil && f.TagBID != nil && f.Type != nil {
		return PairScope(*f.TagAID, *f.TagBID, *f.Type)
	}
	return VoteScope{}
}
