package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// SuggestionResolution carries the terminal fields written by a
// conditional resolve. The update is predicated on status='pending', so
// exactly one of two racing curators wins.
type SuggestionResolution struct {
	Status        types.SuggestionStatus
	ResolvedBy    *uuid.UUID
	Notes         string
	CreatedEdgeID *uuid.UUID
}

type SuggestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, suggestion *types.RelationshipSuggestion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RelationshipSuggestion, error)
	FindPendingByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.RelationshipSuggestion, error)
	ResolvePending(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolution SuggestionResolution) (bool, error)
	AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error
	List(ctx context.Context, tx *gorm.DB, status types.SuggestionStatus, sortBy string, limit, offset int) ([]*types.RelationshipSuggestion, int64, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	return &suggestionRepo{db: db, log: baseLog.With("repo", "SuggestionRepo")}
}

// Create inserts the suggestion as-is. The partial unique index on
// pending pair/type makes concurrent duplicate proposals fail here;
// unique violations are returned raw for the fold-in retry.
func (r *suggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestion *types.RelationshipSuggestion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(suggestion).Error
}

func (r *suggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RelationshipSuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var row types.RelationshipSuggestion
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

// FindPendingByPair expects the pair already in canonical order.
func (r *suggestionRepo) FindPendingByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.RelationshipSuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.RelationshipSuggestion
	err := transaction.WithContext(ctx).
		Where("tag_a_id = ? AND tag_b_id = ? AND type = ? AND status = ?",
			tagAID, tagBID, relType, types.SuggestionPending).
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

// ResolvePending transitions a suggestion out of pending. Returns false
// when no row moved, meaning the suggestion was already resolved (or
// does not exist) — the caller distinguishes the two with GetByID.
func (r *suggestionRepo) ResolvePending(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolution SuggestionResolution) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      resolution.Status,
		"resolved_at": now,
		"updated_at":  now,
	}
	if resolution.ResolvedBy != nil {
		updates["resolved_by"] = *resolution.ResolvedBy
	}
	if resolution.Notes != "" {
		updates["resolution_notes"] = resolution.Notes
	}
	if resolution.CreatedEdgeID != nil {
		updates["created_edge_id"] = *resolution.CreatedEdgeID
	}

	result := transaction.WithContext(ctx).
		Model(&types.RelationshipSuggestion{}).
		Where("id = ? AND status = ?", id, types.SuggestionPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *suggestionRepo) AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if agreeDelta == 0 && disagreeDelta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.RelationshipSuggestion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"agree_count":    gorm.Expr("agree_count + ?", agreeDelta),
			"disagree_count": gorm.Expr("disagree_count + ?", disagreeDelta),
			"updated_at":     time.Now().UTC(),
		}).Error
}

// List pages suggestions by status. sortBy "votes" orders by total vote
// volume, "recent" by creation time; both tie-break on id so pagination
// stays deterministic.
func (r *suggestionRepo) List(ctx context.Context, tx *gorm.DB, status types.SuggestionStatus, sortBy string, limit, offset int) ([]*types.RelationshipSuggestion, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.RelationshipSuggestion{}).
		Where("status = ?", status).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id ASC"
	if sortBy == "votes" {
		order = "(agree_count + disagree_count) DESC, created_at DESC, id ASC"
	}

	var results []*types.RelationshipSuggestion
	if err := transaction.WithContext(ctx).
		Where("status = ?", status).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
