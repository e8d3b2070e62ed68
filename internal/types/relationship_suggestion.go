package types

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipSuggestion is a proposed edge awaiting moderation. The pair
// is canonical like TagRelationship; the partial unique index on
// (tag_a_id, tag_b_id, type) WHERE status='pending' guarantees a single
// open suggestion per pair/type, so concurrent proposers race on the
// insert and the loser folds into a vote.
type RelationshipSuggestion struct {
	ID       uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagAID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_suggestion_pair,priority:1" json:"tag_a_id"`
	TagBID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_suggestion_pair,priority:2" json:"tag_b_id"`
	Type     RelationshipType `gorm:"column:type;not null;index:idx_suggestion_pair,priority:3" json:"type"`
	Strength float64          `gorm:"column:strength;not null;default:0.7" json:"strength"`

	ProposedBy *uuid.UUID `gorm:"type:uuid" json:"proposed_by,omitempty"`
	Reason     string     `gorm:"column:reason" json:"reason,omitempty"`

	AgreeCount    int `gorm:"column:agree_count;not null;default:0" json:"agree_count"`
	DisagreeCount int `gorm:"column:disagree_count;not null;default:0" json:"disagree_count"`

	Status          SuggestionStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	ResolvedBy      *uuid.UUID       `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	ResolutionNotes string           `gorm:"column:resolution_notes" json:"resolution_notes,omitempty"`
	CreatedEdgeID   *uuid.UUID       `gorm:"type:uuid" json:"created_edge_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RelationshipSuggestion) TableName() string { return "relationship_suggestion" }

func (s *RelationshipSuggestion) NetScore() int {
	return s.AgreeCount - s.DisagreeCount
}
