package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// PropagationRow is one candidate produced by the relationship
// propagation query: a tag connected to the seed set, with the average
// strength across all connecting edges and how many distinct seeds
// reach it.
type PropagationRow struct {
	TagID       uuid.UUID `gorm:"column:tag_id"`
	AvgStrength float64   `gorm:"column:avg_strength"`
	MatchCount  int       `gorm:"column:match_count"`
}

type RelationshipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, edge *types.TagRelationship) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TagRelationship, error)
	FindActiveByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.TagRelationship, error)
	UpdateMerge(ctx context.Context, tx *gorm.DB, id uuid.UUID, strength *float64, approvedBy *uuid.UUID, notes string) error
	AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error
	Retire(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ListActiveByTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID, minStrength float64, relType *types.RelationshipType) ([]*types.TagRelationship, error)
	Propagate(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minStrength float64) ([]PropagationRow, error)
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: baseLog.With("repo", "RelationshipRepo")}
}

// Create inserts the edge as-is. The partial unique index on active
// pair/type is the last line of defense against duplicate edges; unique
// violations are returned raw so the caller can branch into the merge
// path.
func (r *relationshipRepo) Create(ctx context.Context, tx *gorm.DB, edge *types.TagRelationship) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(edge).Error
}

func (r *relationshipRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TagRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var row types.TagRelationship
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// FindActiveByPair expects the pair already in canonical order.
func (r *relationshipRepo) FindActiveByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.TagRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.TagRelationship
	err := transaction.WithContext(ctx).
		Where("tag_a_id = ? AND tag_b_id = ? AND type = ? AND status = ?",
			tagAID, tagBID, relType, types.EdgeStatusActive).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// UpdateMerge applies the merge-time mutations: optionally raise
// strength, and stamp curator attribution if the edge has none yet.
func (r *relationshipRepo) UpdateMerge(ctx context.Context, tx *gorm.DB, id uuid.UUID, strength *float64, approvedBy *uuid.UUID, notes string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if strength != nil {
		updates["strength"] = *strength
	}
	if err := transaction.WithContext(ctx).
		Model(&types.TagRelationship{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}

	if approvedBy != nil {
		attribution := map[string]interface{}{
			"approved_by": *approvedBy,
			"approved_at": time.Now().UTC(),
		}
		if notes != "" {
			attribution["curator_notes"] = notes
		}
		if err := transaction.WithContext(ctx).
			Model(&types.TagRelationship{}).
			Where("id = ? AND approved_by IS NULL", id).
			Updates(attribution).Error; err != nil {
			return err
		}
	}
	return nil
}

// AdjustVoteCounts applies tally deltas atomically in SQL so concurrent
// voters never lose updates.
func (r *relationshipRepo) AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if agreeDelta == 0 && disagreeDelta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.TagRelationship{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"agree_count":    gorm.Expr("agree_count + ?", agreeDelta),
			"disagree_count": gorm.Expr("disagree_count + ?", disagreeDelta),
			"updated_at":     time.Now().UTC(),
		}).Error
}

// Retire flips an active edge to retired. Returns false when the edge was
// not active (already retired or missing).
func (r *relationshipRepo) Retire(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.TagRelationship{}).
		Where("id = ? AND status = ?", id, types.EdgeStatusActive).
		Updates(map[string]interface{}{
			"status":     types.EdgeStatusRetired,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *relationshipRepo) ListActiveByTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID, minStrength float64, relType *types.RelationshipType) ([]*types.TagRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("(tag_a_id = ? OR tag_b_id = ?) AND status = ? AND strength >= ?",
			tagID, tagID, types.EdgeStatusActive, minStrength)
	if relType != nil {
		query = query.Where("type = ?", *relType)
	}

	var results []*types.TagRelationship
	if err := query.Order("strength DESC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Propagate walks one hop out from the seed set over active edges,
// averaging strength per candidate and counting how many distinct seeds
// connect to it. Candidates already in the seed set are excluded.
func (r *relationshipRepo) Propagate(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minStrength float64) ([]PropagationRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []PropagationRow
	if len(seedIDs) == 0 {
		return results, nil
	}

	err := transaction.WithContext(ctx).Raw(`
		SELECT candidate_id AS tag_id,
		       AVG(strength) AS avg_strength,
		       COUNT(DISTINCT seed_id) AS match_count
		FROM (
			SELECT tag_b_id AS candidate_id, tag_a_id AS seed_id, strength
			FROM tag_relationship
			WHERE status = 'active' AND strength >= ? AND tag_a_id IN ?
			UNION ALL
			SELECT tag_a_id AS candidate_id, tag_b_id AS seed_id, strength
			FROM tag_relationship
			WHERE status = 'active' AND strength >= ? AND tag_b_id IN ?
		) connected
		WHERE candidate_id NOT IN ?
		GROUP BY candidate_id
	`, minStrength, seedIDs, minStrength, seedIDs, seedIDs).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
