package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TagRelationship is an accepted semantic edge between two tags. TagAID and
// TagBID are always stored in canonical order (see CanonicalPair). The
// partial unique index on (tag_a_id, tag_b_id, type) WHERE status='active'
// is created in internal/db; at most one active edge exists per pair/type.
// Edges are never hard-deleted, only retired.
type TagRelationship struct {
	ID       uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagAID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_relationship_pair,priority:1" json:"tag_a_id"`
	TagA     *Tag             `gorm:"foreignKey:TagAID;references:ID" json:"tag_a,omitempty"`
	TagBID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_relationship_pair,priority:2" json:"tag_b_id"`
	TagB     *Tag             `gorm:"foreignKey:TagBID;references:ID" json:"tag_b,omitempty"`
	Type     RelationshipType `gorm:"column:type;not null;index:idx_relationship_pair,priority:3" json:"type"`
	Strength float64          `gorm:"column:strength;not null;default:0.5" json:"strength"`
	Status   EdgeStatus       `gorm:"column:status;not null;default:'active';index" json:"status"`
	Source   EdgeSource       `gorm:"column:source;not null;default:'suggestion'" json:"source"`

	ApprovedBy   *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CuratorNotes string     `gorm:"column:curator_notes" json:"curator_notes,omitempty"`

	AgreeCount    int `gorm:"column:agree_count;not null;default:0" json:"agree_count"`
	DisagreeCount int `gorm:"column:disagree_count;not null;default:0" json:"disagree_count"`

	// Operator-supplied provenance details on seeded edges (import batch,
	// source dataset, etc). Empty for suggestion-born edges.
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TagRelationship) TableName() string { return "tag_relationship" }

// NetScore is the denormalized community tally.
func (r *TagRelationship) NetScore() int {
	return r.AgreeCount - r.DisagreeCount
}
