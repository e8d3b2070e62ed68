package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// CooccurrenceRow is one candidate from the co-occurrence lookup: a tag
// historically applied together with at least one seed, with the highest
// confidence seen across seeds.
type CooccurrenceRow struct {
	TagID      uuid.UUID `gorm:"column:tag_id"`
	Confidence float64   `gorm:"column:confidence"`
}

type CooccurrenceRepo interface {
	ConfidenceFor(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minConfidence float64) ([]CooccurrenceRow, error)
	Bump(ctx context.Context, tx *gorm.DB, tagXID, tagYID uuid.UUID) error
}

type cooccurrenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCooccurrenceRepo(db *gorm.DB, baseLog *logger.Logger) CooccurrenceRepo {
	return &cooccurrenceRepo{db: db, log: baseLog.With("repo", "CooccurrenceRepo")}
}

func (r *cooccurrenceRepo) ConfidenceFor(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minConfidence float64) ([]CooccurrenceRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []CooccurrenceRow
	if len(seedIDs) == 0 {
		return results, nil
	}

	err := transaction.WithContext(ctx).Raw(`
		SELECT candidate_id AS tag_id, MAX(confidence) AS confidence
		FROM (
			SELECT tag_b_id AS candidate_id, confidence
			FROM tag_cooccurrence
			WHERE tag_a_id IN ? AND confidence >= ?
			UNION ALL
			SELECT tag_a_id AS candidate_id, confidence
			FROM tag_cooccurrence
			WHERE tag_b_id IN ? AND confidence >= ?
		) cooc
		WHERE candidate_id NOT IN ?
		GROUP BY candidate_id
	`, seedIDs, minConfidence, seedIDs, minConfidence, seedIDs).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Bump increments the pair counter, creating the row on first sight.
// Confidence uses additive smoothing so sparse pairs stay low until they
// accumulate real history. Callers treat this as best-effort; the real
// accumulation pipeline lives outside this service.
func (r *cooccurrenceRepo) Bump(ctx context.Context, tx *gorm.DB, tagXID, tagYID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	tagA, tagB := types.CanonicalPair(tagXID, tagYID)
	now := time.Now().UTC()
	row := &types.TagCooccurrence{
		ID:         uuid.New(),
		TagAID:     tagA,
		TagBID:     tagB,
		Count:      1,
		Confidence: 1.0 / 21.0,
		UpdatedAt:  now,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tag_a_id"}, {Name: "tag_b_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("tag_cooccurrence.count + 1"),
				"confidence": gorm.Expr("LEAST(1.0, (tag_cooccurrence.count + 1)::float / (tag_cooccurrence.count + 21))"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}
