package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/cache"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// RelatedTag is one bidirectional neighbor of a tag. Direction is
// outbound when the queried tag is the canonical A side of the edge,
// inbound when it is the B side.
type RelatedTag struct {
	TagID     uuid.UUID              `json:"tag_id"`
	Name      string                 `json:"name"`
	Slug      string                 `json:"slug"`
	Type      types.RelationshipType `json:"type"`
	Strength  float64                `json:"strength"`
	Direction string                 `json:"direction"`
	EdgeID    uuid.UUID              `json:"edge_id"`
}

// SeedEdgeParams is the privileged operator path for bootstrapping a
// taxonomy without going through moderation.
type SeedEdgeParams struct {
	TagXID   uuid.UUID
	TagYID   uuid.UUID
	Type     types.RelationshipType
	Strength float64
	SeededBy uuid.UUID
	Notes    string
	Metadata datatypes.JSON
}

type GraphService interface {
	FindEdge(ctx context.Context, tagXID, tagYID uuid.UUID, relType types.RelationshipType) (*types.TagRelationship, error)
	SeedEdge(ctx context.Context, params SeedEdgeParams) (*types.TagRelationship, error)
	RetireEdge(ctx context.Context, edgeID uuid.UUID) (*types.TagRelationship, error)
	GetRelatedTags(ctx context.Context, tagID uuid.UUID, minStrength float64, relType *types.RelationshipType) ([]RelatedTag, error)
	InvalidateEdgeCache(ctx context.Context, edge *types.TagRelationship)
}

type graphService struct {
	db               *gorm.DB
	log              *logger.Logger
	tagRepo          repos.TagRepo
	relationshipRepo repos.RelationshipRepo
	relatedCache     cache.RelatedTagsCache
}

func NewGraphService(
	db *gorm.DB,
	log *logger.Logger,
	tagRepo repos.TagRepo,
	relationshipRepo repos.RelationshipRepo,
	relatedCache cache.RelatedTagsCache,
) GraphService {
	return &graphService{
		db:               db,
		log:              log.With("service", "GraphService"),
		tagRepo:          tagRepo,
		relationshipRepo: relationshipRepo,
		relatedCache:     relatedCache,
	}
}

// FindEdge accepts the pair in either order.
func (gs *graphService) FindEdge(ctx context.Context, tagXID, tagYID uuid.UUID, relType types.RelationshipType) (*types.TagRelationship, error) {
	if !relType.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid relationship type %q", relType))
	}
	tagA, tagB := types.CanonicalPair(tagXID, tagYID)
	edge, err := gs.relationshipRepo.FindActiveByPair(ctx, nil, tagA, tagB, relType)
	if err != nil {
		return nil, fmt.Errorf("find edge: %w", err)
	}
	return edge, nil
}

func (gs *graphService) SeedEdge(ctx context.Context, params SeedEdgeParams) (*types.TagRelationship, error) {
	if params.TagXID == params.TagYID {
		return nil, apperr.InvalidArgument("a tag cannot relate to itself")
	}
	if !params.Type.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid relationship type %q", params.Type))
	}
	if params.Strength < 0 || params.Strength > 1 {
		return nil, apperr.InvalidArgument("strength must be within [0, 1]")
	}

	exists, err := gs.tagRepo.ExistAll(ctx, nil, []uuid.UUID{params.TagXID, params.TagYID})
	if err != nil {
		return nil, fmt.Errorf("verify tags: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("one or both tags do not exist")
	}

	tagA, tagB := types.CanonicalPair(params.TagXID, params.TagYID)
	edge, err := gs.createEdge(ctx, nil, &types.TagRelationship{
		ID:           uuid.New(),
		TagAID:       tagA,
		TagBID:       tagB,
		Type:         params.Type,
		Strength:     params.Strength,
		Status:       types.EdgeStatusActive,
		Source:       types.EdgeSourceSeed,
		ApprovedBy:   &params.SeededBy,
		CuratorNotes: params.Notes,
		Metadata:     params.Metadata,
	})
	if err != nil {
		return nil, err
	}
	gs.InvalidateEdgeCache(ctx, edge)
	return edge, nil
}

// createEdge inserts and translates the unique-violation shape of "an
// active edge already exists" into Conflict for callers that want to
// merge instead.
func (gs *graphService) createEdge(ctx context.Context, tx *gorm.DB, edge *types.TagRelationship) (*types.TagRelationship, error) {
	if err := gs.relationshipRepo.Create(ctx, tx, edge); err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("an active relationship already exists for that pair and type")
		}
		return nil, fmt.Errorf("create edge: %w", err)
	}
	return edge, nil
}

func (gs *graphService) RetireEdge(ctx context.Context, edgeID uuid.UUID) (*types.TagRelationship, error) {
	edge, err := gs.relationshipRepo.GetByID(ctx, nil, edgeID)
	if err != nil {
		return nil, fmt.Errorf("look up edge: %w", err)
	}
	if edge == nil {
		return nil, apperr.NotFound("relationship not found")
	}

	retired, err := gs.relationshipRepo.Retire(ctx, nil, edgeID)
	if err != nil {
		return nil, fmt.Errorf("retire edge: %w", err)
	}
	if !retired {
		return nil, apperr.Conflict("relationship is not active")
	}
	edge.Status = types.EdgeStatusRetired
	gs.InvalidateEdgeCache(ctx, edge)
	return edge, nil
}

func (gs *graphService) GetRelatedTags(ctx context.Context, tagID uuid.UUID, minStrength float64, relType *types.RelationshipType) ([]RelatedTag, error) {
	if tagID == uuid.Nil {
		return nil, apperr.InvalidArgument("a tag id is required")
	}
	if minStrength < 0 || minStrength > 1 {
		return nil, apperr.InvalidArgument("min_strength must be within [0, 1]")
	}
	if relType != nil && !relType.Valid() {
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid relationship type %q", *relType))
	}

	cacheKey := ""
	if gs.relatedCache != nil {
		filterName := ""
		if relType != nil {
			filterName = string(*relType)
		}
		cacheKey = cache.Key(tagID.String(), minStrength, filterName)
		var cached []RelatedTag
		if gs.relatedCache.Get(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	edges, err := gs.relationshipRepo.ListActiveByTag(ctx, nil, tagID, minStrength, relType)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	neighborIDs := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		if edge.TagAID == tagID {
			neighborIDs = append(neighborIDs, edge.TagBID)
		} else {
			neighborIDs = append(neighborIDs, edge.TagAID)
		}
	}
	tags, err := gs.tagRepo.GetByIDs(ctx, nil, neighborIDs)
	if err != nil {
		return nil, fmt.Errorf("load neighbor tags: %w", err)
	}
	tagsByID := make(map[uuid.UUID]*types.Tag, len(tags))
	for _, tag := range tags {
		tagsByID[tag.ID] = tag
	}

	results := make([]RelatedTag, 0, len(edges))
	for _, edge := range edges {
		neighborID := edge.TagBID
		direction := "outbound"
		if edge.TagBID == tagID {
			neighborID = edge.TagAID
			direction = "inbound"
		}
		tag, ok := tagsByID[neighborID]
		if !ok {
			// Neighbor tag was soft-deleted; keep the edge out of results.
			continue
		}
		results = append(results, RelatedTag{
			TagID:     neighborID,
			Name:      tag.Name,
			Slug:      tag.Slug,
			Type:      edge.Type,
			Strength:  edge.Strength,
			Direction: direction,
			EdgeID:    edge.ID,
		})
	}

	if gs.relatedCache != nil && cacheKey != "" {
		gs.relatedCache.Set(ctx, cacheKey, results)
	}
	return results, nil
}

// InvalidateEdgeCache drops cached related-tags entries for both
// endpoints of an edge. Best-effort, like the cache itself.
func (gs *graphService) InvalidateEdgeCache(ctx context.Context, edge *types.TagRelationship) {
	if gs.relatedCache == nil || edge == nil {
		return
	}
	gs.relatedCache.InvalidateTag(ctx, edge.TagAID.String())
	gs.relatedCache.InvalidateTag(ctx, edge.TagBID.String())
}
