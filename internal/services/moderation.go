package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// Resolver is the capability a curator presents to resolve suggestions.
// Authorization happens at the HTTP layer; the engine only records who.
type Resolver struct {
	UserID uuid.UUID
}

type ProposeParams struct {
	TagXID     uuid.UUID
	TagYID     uuid.UUID
	Type       types.RelationshipType
	Strength   float64
	ProposedBy uuid.UUID // uuid.Nil for system-seeded suggestions
	Reason     string
}

// ProposeResult reports either a suggestion (new or folded-into) or the
// already-accepted edge the caller should vote on instead. Proposing an
// existing relationship is never an error.
type ProposeResult struct {
	Suggestion   *types.RelationshipSuggestion
	ExistingEdge *types.TagRelationship
	IsNew        bool
	Message      string
}

type ResolveParams struct {
	SuggestionID     uuid.UUID
	Action           types.ResolveAction
	OverrideStrength *float64
	OverrideType     *types.RelationshipType
	Notes            string
}

type ResolveOutcome struct {
	SuggestionID  uuid.UUID
	Action        types.ResolveAction
	Status        types.SuggestionStatus
	CreatedEdgeID *uuid.UUID
}

type BatchItemResult struct {
	SuggestionID  uuid.UUID
	OK            bool
	Status        types.SuggestionStatus
	CreatedEdgeID *uuid.UUID
	ErrorCode     string
	ErrorMessage  string
}

type BatchResult struct {
	Succeeded int
	Failed    int
	Results   []BatchItemResult
}

type ModerationService interface {
	Propose(ctx context.Context, params ProposeParams) (*ProposeResult, error)
	Resolve(ctx context.Context, resolver Resolver, params ResolveParams) (*ResolveOutcome, error)
	ResolveMany(ctx context.Context, resolver Resolver, ids []uuid.UUID, action types.ResolveAction, notes string) (*BatchResult, error)
	ListSuggestions(ctx context.Context, status types.SuggestionStatus, sortBy string, limit, offset int) ([]*types.RelationshipSuggestion, int64, error)
}

type moderationService struct {
	db               *gorm.DB
	log              *logger.Logger
	tagRepo          repos.TagRepo
	relationshipRepo repos.RelationshipRepo
	suggestionRepo   repos.SuggestionRepo
	feedbackRepo     repos.FeedbackRepo
	feedbackService  FeedbackService
	graphService     GraphService
}

func NewModerationService(
	db *gorm.DB,
	log *logger.Logger,
	tagRepo repos.TagRepo,
	relationshipRepo repos.RelationshipRepo,
	suggestionRepo repos.SuggestionRepo,
	feedbackRepo repos.FeedbackRepo,
	feedbackService FeedbackService,
	graphService GraphService,
) ModerationService {
	return &moderationService{
		db:               db,
		log:              log.With("service", "ModerationService"),
		tagRepo:          tagRepo,
		relationshipRepo: relationshipRepo,
		suggestionRepo:   suggestionRepo,
		feedbackRepo:     feedbackRepo,
		feedbackService:  feedbackService,
		graphService:     graphService,
	}
}

func (ms *moderationService) Propose(ctx context.Context, params ProposeParams) (*ProposeResult, error) {
	if params.TagXID == uuid.Nil || params.TagYID == uuid.Nil {
		return nil, apperr.InvalidArgument("two tag ids are required")
	}
	if params.TagXID == params.TagYID {
		return nil, apperr.InvalidArgument("a tag cannot relate to itself")
	}
	if !params.Type.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid relationship type %q", params.Type))
	}
	if params.Strength < 0 || params.Strength > 1 {
		return nil, apperr.InvalidArgument("strength must be within [0, 1]")
	}
	exists, err := ms.tagRepo.ExistAll(ctx, nil, []uuid.UUID{params.TagXID, params.TagYID})
	if err != nil {
		return nil, fmt.Errorf("verify tags: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("one or both tags do not exist")
	}

	tagA, tagB := types.CanonicalPair(params.TagXID, params.TagYID)

	// Two passes: losing a creation race against a concurrent identical
	// proposal turns the second pass into the fold-in branch.
	for attempt := 0; attempt < 2; attempt++ {
		edge, err := ms.relationshipRepo.FindActiveByPair(ctx, nil, tagA, tagB, params.Type)
		if err != nil {
			return nil, fmt.Errorf("check existing edge: %w", err)
		}
		if edge != nil {
			return &ProposeResult{
				ExistingEdge: edge,
				IsNew:        false,
				Message:      "this relationship already exists; vote on it instead",
			}, nil
		}

		pending, err := ms.suggestionRepo.FindPendingByPair(ctx, nil, tagA, tagB, params.Type)
		if err != nil {
			return nil, fmt.Errorf("check pending suggestion: %w", err)
		}
		if pending != nil {
			result, foldErr := ms.foldIntoPending(ctx, pending, params)
			if foldErr != nil {
				if apperr.Is(foldErr, apperr.CodeNotFound) {
					// The suggestion resolved between lookup and vote; loop
					// to re-check against the edge it may have become.
					continue
				}
				return nil, foldErr
			}
			return result, nil
		}

		suggestion := &types.RelationshipSuggestion{
			ID:       uuid.New(),
			TagAID:   tagA,
			TagBID:   tagB,
			Type:     params.Type,
			Strength: params.Strength,
			Reason:   params.Reason,
			Status:   types.SuggestionPending,
		}
		if params.ProposedBy != uuid.Nil {
			proposedBy := params.ProposedBy
			suggestion.ProposedBy = &proposedBy
		}

		createErr := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Pair votes only migrate on approval, so records from an
			// earlier rejected round are still in the ledger. A fresh
			// suggestion re-adopts them; its tallies must match the
			// records that would migrate if it is approved.
			prior, err := ms.feedbackRepo.ListByPair(ctx, tx, tagA, tagB, params.Type)
			if err != nil {
				return fmt.Errorf("list prior pair votes: %w", err)
			}
			for _, record := range prior {
				agree, disagree := voteBuckets(record.Vote)
				suggestion.AgreeCount += agree
				suggestion.DisagreeCount += disagree
			}
			if err := ms.suggestionRepo.Create(ctx, tx, suggestion); err != nil {
				return err
			}
			if params.ProposedBy == uuid.Nil {
				return nil
			}
			scope := types.PairScope(tagA, tagB, params.Type)
			_, voteErr := ms.feedbackService.CastVoteTx(ctx, tx, params.ProposedBy, scope, types.VoteAgree, params.Reason)
			return voteErr
		})
		if createErr != nil {
			if apperr.IsUniqueViolation(createErr) {
				continue
			}
			return nil, fmt.Errorf("create suggestion: %w", createErr)
		}

		created, err := ms.suggestionRepo.GetByID(ctx, nil, suggestion.ID)
		if err != nil || created == nil {
			created = suggestion
		}
		return &ProposeResult{
			Suggestion: created,
			IsNew:      true,
			Message:    "suggestion created",
		}, nil
	}

	return nil, apperr.Unavailable("could not settle proposal against concurrent writers", nil)
}

// foldIntoPending registers the proposer's implicit agreement on an
// existing pending suggestion instead of creating a duplicate.
func (ms *moderationService) foldIntoPending(ctx context.Context, pending *types.RelationshipSuggestion, params ProposeParams) (*ProposeResult, error) {
	if params.ProposedBy != uuid.Nil {
		scope := types.PairScope(pending.TagAID, pending.TagBID, pending.Type)
		if _, err := ms.feedbackService.CastVote(ctx, params.ProposedBy, scope, types.VoteAgree, params.Reason); err != nil {
			return nil, err
		}
	}
	refreshed, err := ms.suggestionRepo.GetByID(ctx, nil, pending.ID)
	if err != nil || refreshed == nil {
		refreshed = pending
	}
	return &ProposeResult{
		Suggestion: refreshed,
		IsNew:      false,
		Message:    "a matching suggestion is already pending; your agreement was recorded",
	}, nil
}

func (ms *moderationService) Resolve(ctx context.Context, resolver Resolver, params ResolveParams) (*ResolveOutcome, error) {
	if resolver.UserID == uuid.Nil {
		return nil, apperr.InvalidArgument("a resolver is required")
	}
	if !params.Action.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid action %q", params.Action))
	}
	if params.Action != types.ActionModify && (params.OverrideStrength != nil || params.OverrideType != nil) {
		return nil, apperr.InvalidArgument("overrides are only allowed with the modify action")
	}
	if params.OverrideStrength != nil && (*params.OverrideStrength < 0 || *params.OverrideStrength > 1) {
		return nil, apperr.InvalidArgument("override strength must be within [0, 1]")
	}
	if params.OverrideType != nil && !params.OverrideType.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid override type %q", *params.OverrideType))
	}

	var outcome *ResolveOutcome
	var touchedEdge *types.TagRelationship
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suggestion, err := ms.suggestionRepo.GetByID(ctx, tx, params.SuggestionID)
		if err != nil {
			return fmt.Errorf("look up suggestion: %w", err)
		}
		if suggestion == nil {
			return apperr.NotFound("suggestion not found")
		}
		if suggestion.Status.Terminal() {
			return apperr.AlreadyResolved(fmt.Sprintf("suggestion was already %s", suggestion.Status))
		}

		if params.Action == types.ActionReject {
			moved, err := ms.suggestionRepo.ResolvePending(ctx, tx, suggestion.ID, repos.SuggestionResolution{
				Status:     types.SuggestionRejected,
				ResolvedBy: &resolver.UserID,
				Notes:      params.Notes,
			})
			if err != nil {
				return fmt.Errorf("resolve suggestion: %w", err)
			}
			if !moved {
				return apperr.AlreadyResolved("suggestion was resolved concurrently")
			}
			outcome = &ResolveOutcome{
				SuggestionID: suggestion.ID,
				Action:       params.Action,
				Status:       types.SuggestionRejected,
			}
			return nil
		}

		effType := suggestion.Type
		effStrength := suggestion.Strength
		if params.OverrideType != nil {
			effType = *params.OverrideType
		}
		if params.OverrideStrength != nil {
			effStrength = *params.OverrideStrength
		}

		edge, err := ms.relationshipRepo.FindActiveByPair(ctx, tx, suggestion.TagAID, suggestion.TagBID, effType)
		if err != nil {
			return fmt.Errorf("check existing edge: %w", err)
		}

		if edge == nil {
			now := time.Now().UTC()
			newEdge := &types.TagRelationship{
				ID:            uuid.New(),
				TagAID:        suggestion.TagAID,
				TagBID:        suggestion.TagBID,
				Type:          effType,
				Strength:      effStrength,
				Status:        types.EdgeStatusActive,
				Source:        types.EdgeSourceSuggestion,
				ApprovedBy:    &resolver.UserID,
				ApprovedAt:    &now,
				CuratorNotes:  params.Notes,
				AgreeCount:    suggestion.AgreeCount,
				DisagreeCount: suggestion.DisagreeCount,
			}
			// A failed insert aborts the whole postgres transaction, so
			// the attempt runs under a savepoint; losing the race leaves
			// tx usable for the merge fallback below.
			createErr := tx.Transaction(func(stx *gorm.DB) error {
				return ms.relationshipRepo.Create(ctx, stx, newEdge)
			})
			if createErr == nil {
				moved, err := ms.suggestionRepo.ResolvePending(ctx, tx, suggestion.ID, repos.SuggestionResolution{
					Status:        types.SuggestionApproved,
					ResolvedBy:    &resolver.UserID,
					Notes:         params.Notes,
					CreatedEdgeID: &newEdge.ID,
				})
				if err != nil {
					return fmt.Errorf("resolve suggestion: %w", err)
				}
				if !moved {
					return apperr.AlreadyResolved("suggestion was resolved concurrently")
				}
				if err := ms.migrateFeedback(ctx, tx, suggestion, newEdge.ID, false); err != nil {
					return err
				}
				createdEdgeID := newEdge.ID
				touchedEdge = newEdge
				outcome = &ResolveOutcome{
					SuggestionID:  suggestion.ID,
					Action:        params.Action,
					Status:        types.SuggestionApproved,
					CreatedEdgeID: &createdEdgeID,
				}
				return nil
			}
			if !apperr.IsUniqueViolation(createErr) {
				return fmt.Errorf("create edge: %w", createErr)
			}
			// Another writer created the edge between our check and our
			// insert; treat the resolution as a merge into it.
			edge, err = ms.relationshipRepo.FindActiveByPair(ctx, tx, suggestion.TagAID, suggestion.TagBID, effType)
			if err != nil {
				return fmt.Errorf("re-check existing edge: %w", err)
			}
			if edge == nil {
				return apperr.Unavailable("edge insert conflicted but no active edge found", createErr)
			}
		}

		// Merge path. Strength only ever rises; a curator-set strength is
		// never lowered by a weaker suggestion.
		var raise *float64
		if effStrength > edge.Strength {
			raise = &effStrength
		}
		if err := ms.relationshipRepo.UpdateMerge(ctx, tx, edge.ID, raise, &resolver.UserID, params.Notes); err != nil {
			return fmt.Errorf("merge into edge: %w", err)
		}
		moved, err := ms.suggestionRepo.ResolvePending(ctx, tx, suggestion.ID, repos.SuggestionResolution{
			Status:        types.SuggestionMerged,
			ResolvedBy:    &resolver.UserID,
			Notes:         params.Notes,
			CreatedEdgeID: &edge.ID,
		})
		if err != nil {
			return fmt.Errorf("resolve suggestion: %w", err)
		}
		if !moved {
			return apperr.AlreadyResolved("suggestion was resolved concurrently")
		}
		if err := ms.migrateFeedback(ctx, tx, suggestion, edge.ID, true); err != nil {
			return err
		}
		mergedEdgeID := edge.ID
		if raise != nil {
			edge.Strength = *raise
		}
		touchedEdge = edge
		outcome = &ResolveOutcome{
			SuggestionID:  suggestion.ID,
			Action:        params.Action,
			Status:        types.SuggestionMerged,
			CreatedEdgeID: &mergedEdgeID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if touchedEdge != nil {
		ms.graphService.InvalidateEdgeCache(ctx, touchedEdge)
	}
	return outcome, nil
}

// migrateFeedback re-points pending-pair vote records onto the edge the
// resolution produced. On a merge, users who already voted directly on
// the edge keep that vote (first-writer-wins) and their pair-scoped
// record is left untouched; migrated votes are added to the edge
// tallies. On an approval the edge inherited the suggestion's tallies,
// so records move without tally adjustment.
func (ms *moderationService) migrateFeedback(ctx context.Context, tx *gorm.DB, suggestion *types.RelationshipSuggestion, edgeID uuid.UUID, addToTallies bool) error {
	pairRecords, err := ms.feedbackRepo.ListByPair(ctx, tx, suggestion.TagAID, suggestion.TagBID, suggestion.Type)
	if err != nil {
		return fmt.Errorf("list pair votes: %w", err)
	}
	if len(pairRecords) == 0 {
		return nil
	}

	edgeVoters := map[uuid.UUID]struct{}{}
	if addToTallies {
		voterIDs, err := ms.feedbackRepo.UserIDsWithEdgeVotes(ctx, tx, edgeID)
		if err != nil {
			return fmt.Errorf("list edge voters: %w", err)
		}
		for _, id := range voterIDs {
			edgeVoters[id] = struct{}{}
		}
	}

	migrateIDs := make([]uuid.UUID, 0, len(pairRecords))
	agreeSum, disagreeSum := 0, 0
	for _, record := range pairRecords {
		if _, voted := edgeVoters[record.UserID]; voted {
			continue
		}
		migrateIDs = append(migrateIDs, record.ID)
		agree, disagree := voteBuckets(record.Vote)
		agreeSum += agree
		disagreeSum += disagree
	}
	if len(migrateIDs) == 0 {
		return nil
	}

	if err := ms.feedbackRepo.RescopeToEdge(ctx, tx, migrateIDs, edgeID); err != nil {
		return fmt.Errorf("migrate votes to edge: %w", err)
	}
	if addToTallies {
		if err := ms.relationshipRepo.AdjustVoteCounts(ctx, tx, edgeID, agreeSum, disagreeSum); err != nil {
			return fmt.Errorf("add migrated votes to edge tallies: %w", err)
		}
	}
	return nil
}

// ResolveMany applies one action to each id independently. A failure on
// one id is recorded in its slot and does not touch the others.
func (ms *moderationService) ResolveMany(ctx context.Context, resolver Resolver, ids []uuid.UUID, action types.ResolveAction, notes string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, apperr.InvalidArgument("at least one suggestion id is required")
	}
	if action == types.ActionModify {
		return nil, apperr.InvalidArgument("modify is not supported in batch resolution")
	}

	batch := &BatchResult{Results: make([]BatchItemResult, 0, len(ids))}
	for _, id := range ids {
		outcome, err := ms.Resolve(ctx, resolver, ResolveParams{
			SuggestionID: id,
			Action:       action,
			Notes:        notes,
		})
		if err != nil {
			var ae *apperr.Error
			item := BatchItemResult{SuggestionID: id, OK: false, ErrorCode: apperr.CodeUnavailable, ErrorMessage: err.Error()}
			if errors.As(err, &ae) {
				item.ErrorCode = ae.Code
				item.ErrorMessage = ae.Message
			}
			batch.Failed++
			batch.Results = append(batch.Results, item)
			continue
		}
		batch.Succeeded++
		batch.Results = append(batch.Results, BatchItemResult{
			SuggestionID:  id,
			OK:            true,
			Status:        outcome.Status,
			CreatedEdgeID: outcome.CreatedEdgeID,
		})
	}
	return batch, nil
}

func (ms *moderationService) ListSuggestions(ctx context.Context, status types.SuggestionStatus, sortBy string, limit, offset int) ([]*types.RelationshipSuggestion, int64, error) {
	if status == "" {
		status = types.SuggestionPending
	}
	switch status {
	case types.SuggestionPending, types.SuggestionApproved, types.SuggestionRejected, types.SuggestionMerged:
	default:
		return nil, 0, apperr.InvalidArgument(fmt.Sprintf("invalid status %q", status))
	}
	if sortBy == "" {
		sortBy = "recent"
	}
	if sortBy != "recent" && sortBy != "votes" {
		return nil, 0, apperr.InvalidArgument(fmt.Sprintf("invalid sort %q", sortBy))
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := ms.suggestionRepo.List(ctx, nil, status, sortBy, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list suggestions: %w", err)
	}
	return items, total, nil
}
