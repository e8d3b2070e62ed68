package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

type TagRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Tag, error)
	ExistAll(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) (bool, error)
	FuzzyMatch(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Tag, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tag
	if len(tagIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", tagIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tagRepo) ExistAll(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(tagIDs) == 0 {
		return true, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Tag{}).
		Where("id IN ?", tagIDs).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == int64(len(uniqueIDs(tagIDs))), nil
}

// FuzzyMatch finds tags whose slug, name, or description contains the
// query, case-insensitively. Ranking against the query happens in the
// suggestion service; this only narrows the candidate set.
func (r *tagRepo) FuzzyMatch(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if query == "" {
		return []*types.Tag{}, nil
	}
	if limit <= 0 {
		limit = 25
	}

	pattern := "%" + query + "%"
	var results []*types.Tag
	if err := transaction.WithContext(ctx).
		Where("slug ILIKE ? OR name ILIKE ? OR description ILIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
