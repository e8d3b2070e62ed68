package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

type FeedbackRepo interface {
	GetByUserAndScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, scope types.VoteScope) (*types.RelationshipFeedback, error)
	Insert(ctx context.Context, tx *gorm.DB, record *types.RelationshipFeedback) error
	UpdateVote(ctx context.Context, tx *gorm.DB, id uuid.UUID, vote types.Vote, reason string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) ([]*types.RelationshipFeedback, error)
	UserIDsWithEdgeVotes(ctx context.Context, tx *gorm.DB, edgeID uuid.UUID) ([]uuid.UUID, error)
	RescopeToEdge(ctx context.Context, tx *gorm.DB, recordIDs []uuid.UUID, edgeID uuid.UUID) error
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func scopeQuery(q *gorm.DB, userID uuid.UUID, scope types.VoteScope) *gorm.DB {
	if scope.IsEdge() {
		return q.Where("user_id = ? AND edge_id = ?", userID, scope.EdgeID())
	}
	tagA, tagB, relType := scope.Pair()
	return q.Where("user_id = ? AND edge_id IS NULL AND tag_a_id = ? AND tag_b_id = ? AND type = ?",
		userID, tagA, tagB, relType)
}

func (r *feedbackRepo) GetByUserAndScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, scope types.VoteScope) (*types.RelationshipFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.RelationshipFeedback
	err := scopeQuery(transaction.WithContext(ctx), userID, scope).
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

// Insert stores a new vote. The per-scope partial unique indexes make a
// concurrent duplicate from the same user fail here; the caller retries
// as an update.
func (r *feedbackRepo) Insert(ctx context.Context, tx *gorm.DB, record *types.RelationshipFeedback) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(record).Error
}

func (r *feedbackRepo) UpdateVote(ctx context.Context, tx *gorm.DB, id uuid.UUID, vote types.Vote, reason string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.RelationshipFeedback{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"vote":       vote,
			"reason":     reason,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *feedbackRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.RelationshipFeedback{}).Error
}

// ListByPair returns every pair-scoped record for a pending pair/type,
// used to migrate votes onto the edge a resolution produces.
func (r *feedbackRepo) ListByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) ([]*types.RelationshipFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RelationshipFeedback
	if err := transaction.WithContext(ctx).
		Where("edge_id IS NULL AND tag_a_id = ? AND tag_b_id = ? AND type = ?",
			tagAID, tagBID, relType).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *feedbackRepo) UserIDsWithEdgeVotes(ctx context.Context, tx *gorm.DB, edgeID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.RelationshipFeedback{}).
		Where("edge_id = ?", edgeID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// RescopeToEdge rewrites pair-scoped records onto an edge, clearing the
// pair columns so each record has exactly one scope.
func (r *feedbackRepo) RescopeToEdge(ctx context.Context, tx *gorm.DB, recordIDs []uuid.UUID, edgeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(recordIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.RelationshipFeedback{}).
		Where("id IN ?", recordIDs).
		Updates(map[string]interface{}{
			"edge_id":    edgeID,
			"tag_a_id":   nil,
			"tag_b_id":   nil,
			"type":       nil,
			"updated_at": time.Now().UTC(),
		}).Error
}
