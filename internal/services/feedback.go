package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// CastVoteResult reports the stored record plus whether this was the
// user's first vote on the scope.
type CastVoteResult struct {
	Record *types.RelationshipFeedback
	IsNew  bool
}

type FeedbackService interface {
	CastVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope, vote types.Vote, reason string) (*CastVoteResult, error)
	// CastVoteTx runs the same upsert inside a caller-owned transaction,
	// used by moderation when the vote must commit atomically with other
	// suggestion writes.
	CastVoteTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, scope types.VoteScope, vote types.Vote, reason string) (*CastVoteResult, error)
	RetractVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope) (bool, error)
	GetVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope) (*types.RelationshipFeedback, error)
}

type feedbackService struct {
	db               *gorm.DB
	log              *logger.Logger
	feedbackRepo     repos.FeedbackRepo
	relationshipRepo repos.RelationshipRepo
	suggestionRepo   repos.SuggestionRepo
}

func NewFeedbackService(
	db *gorm.DB,
	log *logger.Logger,
	feedbackRepo repos.FeedbackRepo,
	relationshipRepo repos.RelationshipRepo,
	suggestionRepo repos.SuggestionRepo,
) FeedbackService {
	return &feedbackService{
		db:               db,
		log:              log.With("service", "FeedbackService"),
		feedbackRepo:     feedbackRepo,
		relationshipRepo: relationshipRepo,
		suggestionRepo:   suggestionRepo,
	}
}

// voteBuckets maps a vote onto the (agree, disagree) tallies. Unsure
// counts in neither bucket but still records the user's position.
func voteBuckets(v types.Vote) (agree, disagree int) {
	switch v {
	case types.VoteAgree:
		return 1, 0
	case types.VoteDisagree:
		return 0, 1
	}
	return 0, 0
}

// CommunityScore normalizes tallies into [-1, 1]; zero votes score zero.
func CommunityScore(agreeCount, disagreeCount int) float64 {
	total := agreeCount + disagreeCount
	if total == 0 {
		return 0
	}
	score := float64(agreeCount-disagreeCount) / float64(total)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

func (fs *feedbackService) CastVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope, vote types.Vote, reason string) (*CastVoteResult, error) {
	var result *CastVoteResult
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, castErr := fs.CastVoteTx(ctx, tx, userID, scope, vote, reason)
		if castErr != nil {
			return castErr
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (fs *feedbackService) CastVoteTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, scope types.VoteScope, vote types.Vote, reason string) (*CastVoteResult, error) {
	if userID == uuid.Nil {
		return nil, apperr.InvalidArgument("a user is required to vote")
	}
	if !vote.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid vote %q", vote))
	}
	if err := scope.Validate(); err != nil {
		return nil, apperr.InvalidArgument(err.Error())
	}

	aggregateAdjust, err := fs.resolveAggregate(ctx, tx, scope)
	if err != nil {
		return nil, err
	}

	existing, err := fs.feedbackRepo.GetByUserAndScope(ctx, tx, userID, scope)
	if err != nil {
		return nil, fmt.Errorf("look up existing vote: %w", err)
	}

	newAgree, newDisagree := voteBuckets(vote)

	if existing != nil {
		oldAgree, oldDisagree := voteBuckets(existing.Vote)
		if err := fs.feedbackRepo.UpdateVote(ctx, tx, existing.ID, vote, reason); err != nil {
			return nil, fmt.Errorf("update vote: %w", err)
		}
		if err := aggregateAdjust(newAgree-oldAgree, newDisagree-oldDisagree); err != nil {
			return nil, fmt.Errorf("adjust vote tallies: %w", err)
		}
		existing.Vote = vote
		existing.Reason = reason
		return &CastVoteResult{Record: existing, IsNew: false}, nil
	}

	record := newFeedbackRecord(userID, scope, vote, reason)
	// The insert runs under a savepoint: a duplicate-key failure aborts
	// the surrounding postgres transaction, and the fallback below still
	// needs tx for its re-read and update.
	err = tx.Transaction(func(stx *gorm.DB) error {
		return fs.feedbackRepo.Insert(ctx, stx, record)
	})
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			// Lost a race against our own concurrent request; fall back to
			// the update branch against the winner's row.
			winner, getErr := fs.feedbackRepo.GetByUserAndScope(ctx, tx, userID, scope)
			if getErr != nil || winner == nil {
				return nil, apperr.Unavailable("vote insert conflicted and re-read failed", err)
			}
			oldAgree, oldDisagree := voteBuckets(winner.Vote)
			if err := fs.feedbackRepo.UpdateVote(ctx, tx, winner.ID, vote, reason); err != nil {
				return nil, fmt.Errorf("update vote after insert conflict: %w", err)
			}
			if err := aggregateAdjust(newAgree-oldAgree, newDisagree-oldDisagree); err != nil {
				return nil, fmt.Errorf("adjust vote tallies: %w", err)
			}
			winner.Vote = vote
			winner.Reason = reason
			return &CastVoteResult{Record: winner, IsNew: false}, nil
		}
		return nil, fmt.Errorf("insert vote: %w", err)
	}
	if err := aggregateAdjust(newAgree, newDisagree); err != nil {
		return nil, fmt.Errorf("adjust vote tallies: %w", err)
	}
	return &CastVoteResult{Record: record, IsNew: true}, nil
}

func (fs *feedbackService) RetractVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope) (bool, error) {
	if userID == uuid.Nil {
		return false, apperr.InvalidArgument("a user is required to retract a vote")
	}
	if err := scope.Validate(); err != nil {
		return false, apperr.InvalidArgument(err.Error())
	}

	deleted := false
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, getErr := fs.feedbackRepo.GetByUserAndScope(ctx, tx, userID, scope)
		if getErr != nil {
			return fmt.Errorf("look up existing vote: %w", getErr)
		}
		if existing == nil {
			return nil
		}

		aggregateAdjust, aggErr := fs.resolveAggregate(ctx, tx, scope)
		if aggErr != nil {
			return aggErr
		}
		if delErr := fs.feedbackRepo.Delete(ctx, tx, existing.ID); delErr != nil {
			return fmt.Errorf("delete vote: %w", delErr)
		}
		oldAgree, oldDisagree := voteBuckets(existing.Vote)
		if adjErr := aggregateAdjust(-oldAgree, -oldDisagree); adjErr != nil {
			return fmt.Errorf("adjust vote tallies: %w", adjErr)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (fs *feedbackService) GetVote(ctx context.Context, userID uuid.UUID, scope types.VoteScope) (*types.RelationshipFeedback, error) {
	if err := scope.Validate(); err != nil {
		return nil, apperr.InvalidArgument(err.Error())
	}
	record, err := fs.feedbackRepo.GetByUserAndScope(ctx, nil, userID, scope)
	if err != nil {
		return nil, fmt.Errorf("look up vote: %w", err)
	}
	return record, nil
}

// resolveAggregate verifies the vote target exists and returns a closure
// applying tally deltas to it.
func (fs *feedbackService) resolveAggregate(ctx context.Context, tx *gorm.DB, scope types.VoteScope) (func(agreeDelta, disagreeDelta int) error, error) {
	if scope.IsEdge() {
		edge, err := fs.relationshipRepo.GetByID(ctx, tx, scope.EdgeID())
		if err != nil {
			return nil, fmt.Errorf("look up edge: %w", err)
		}
		if edge == nil {
			return nil, apperr.NotFound("relationship not found")
		}
		edgeID := edge.ID
		return func(agreeDelta, disagreeDelta int) error {
			return fs.relationshipRepo.AdjustVoteCounts(ctx, tx, edgeID, agreeDelta, disagreeDelta)
		}, nil
	}

	tagA, tagB, relType := scope.Pair()
	suggestion, err := fs.suggestionRepo.FindPendingByPair(ctx, tx, tagA, tagB, relType)
	if err != nil {
		return nil, fmt.Errorf("look up pending suggestion: %w", err)
	}
	if suggestion == nil {
		return nil, apperr.NotFound("no pending suggestion for that pair")
	}
	suggestionID := suggestion.ID
	return func(agreeDelta, disagreeDelta int) error {
		return fs.suggestionRepo.AdjustVoteCounts(ctx, tx, suggestionID, agreeDelta, disagreeDelta)
	}, nil
}

func newFeedbackRecord(userID uuid.UUID, scope types.VoteScope, vote types.Vote, reason string) *types.RelationshipFeedback {
	record := &types.RelationshipFeedback{
		ID:     uuid.New(),
		UserID: userID,
		Vote:   vote,
		Reason: reason,
	}
	if scope.IsEdge() {
		edgeID := scope.EdgeID()
		record.EdgeID = &edgeID
	} else {
		tagA, tagB, relType := scope.Pair()
		record.TagAID = &tagA
		record.TagBID = &tagB
		record.Type = &relType
	}
	return record
}
