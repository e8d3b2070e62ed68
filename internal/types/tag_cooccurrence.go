package types

import (
	"time"

	"github.com/google/uuid"
)

// TagCooccurrence tracks how often two tags were applied to the same
// content item. Rows are written by the tagging pipeline through the
// best-effort bump path; the suggestion engine only reads Confidence.
type TagCooccurrence struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagAID     uuid.UUID `gorm:"type:uuid;not null;index:idx_cooccurrence_pair,unique,priority:1" json:"tag_a_id"`
	TagBID     uuid.UUID `gorm:"type:uuid;not null;index:idx_cooccurrence_pair,unique,priority:2" json:"tag_b_id"`
	Count      int64     `gorm:"column:count;not null;default:0" json:"count"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TagCooccurrence) TableName() string { return "tag_cooccurrence" }
