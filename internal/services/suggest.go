package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

const (
	fuzzyScoreExact       = 1.0
	fuzzyScorePrefix      = 0.97
	fuzzyScoreSubstring   = 0.95
	fuzzyScoreDescription = 0.85

	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

type SuggestParams struct {
	Query         string
	SeedTagIDs    []uuid.UUID
	MinStrength   float64
	MinConfidence float64
	Mode          types.SuggestMode
	Limit         int
}

// SuggestedTag is one ranked recommendation. Score lands in roughly
// [0, 1]; Source names the signal (or signals) that produced it.
type SuggestedTag struct {
	TagID  uuid.UUID              `json:"tag_id"`
	Name   string                 `json:"name"`
	Slug   string                 `json:"slug"`
	Score  float64                `json:"score"`
	Source types.SuggestionSource `json:"source"`
}

type SuggestService interface {
	SuggestTags(ctx context.Context, params SuggestParams) ([]SuggestedTag, error)
	// RecordCooccurrence bumps pair counters for tags applied together to
	// one content item. Best-effort and non-blocking: failures are logged
	// and never surfaced to the tagging path.
	RecordCooccurrence(tagIDs []uuid.UUID)
}

type suggestService struct {
	db               *gorm.DB
	log              *logger.Logger
	tagRepo          repos.TagRepo
	relationshipRepo repos.RelationshipRepo
	cooccurrenceRepo repos.CooccurrenceRepo
}

func NewSuggestService(
	db *gorm.DB,
	log *logger.Logger,
	tagRepo repos.TagRepo,
	relationshipRepo repos.RelationshipRepo,
	cooccurrenceRepo repos.CooccurrenceRepo,
) SuggestService {
	return &suggestService{
		db:               db,
		log:              log.With("service", "SuggestService"),
		tagRepo:          tagRepo,
		relationshipRepo: relationshipRepo,
		cooccurrenceRepo: cooccurrenceRepo,
	}
}

// candidate accumulates one tag's evidence before names are attached.
type candidate struct {
	tagID      uuid.UUID
	score      float64
	source     types.SuggestionSource
	matchCount int
}

func (ss *suggestService) SuggestTags(ctx context.Context, params SuggestParams) ([]SuggestedTag, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" && len(params.SeedTagIDs) == 0 {
		return nil, apperr.InvalidArgument("either a query or seed tags are required")
	}
	if params.MinStrength < 0 || params.MinStrength > 1 {
		return nil, apperr.InvalidArgument("min_strength must be within [0, 1]")
	}
	if params.MinConfidence < 0 || params.MinConfidence > 1 {
		return nil, apperr.InvalidArgument("min_confidence must be within [0, 1]")
	}

	mode := params.Mode
	if mode == "" {
		if len(params.SeedTagIDs) > 0 {
			mode = types.ModeHybrid
		} else {
			mode = types.ModeFuzzy
		}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	var candidates []candidate
	var err error
	switch mode {
	case types.ModeFuzzy:
		candidates, err = ss.fuzzyCandidates(ctx, query)
	case types.ModeRelationship:
		if len(params.SeedTagIDs) == 0 {
			return nil, apperr.InvalidArgument("relationship mode requires seed tags")
		}
		candidates, err = ss.relationshipCandidates(ctx, params.SeedTagIDs, params.MinStrength)
	case types.ModeHybrid:
		if len(params.SeedTagIDs) == 0 {
			return nil, apperr.InvalidArgument("hybrid mode requires seed tags")
		}
		candidates, err = ss.hybridCandidates(ctx, query, params.SeedTagIDs, params.MinStrength, params.MinConfidence)
	default:
		return nil, apperr.InvalidArgument(fmt.Sprintf("invalid mode %q", mode))
	}
	if err != nil {
		return nil, err
	}

	return ss.rank(ctx, candidates, limit)
}

func (ss *suggestService) fuzzyCandidates(ctx context.Context, query string) ([]candidate, error) {
	if query == "" {
		return nil, apperr.InvalidArgument("fuzzy mode requires a query")
	}
	tags, err := ss.tagRepo.FuzzyMatch(ctx, nil, query, maxSuggestLimit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy match: %w", err)
	}
	candidates := make([]candidate, 0, len(tags))
	for _, tag := range tags {
		candidates = append(candidates, candidate{
			tagID:  tag.ID,
			score:  fuzzyScore(tag, query),
			source: types.SourceFuzzy,
		})
	}
	return candidates, nil
}

// fuzzyScore places exact and substring hits in the fixed high band;
// matches found only in the description rank below name/slug hits.
func fuzzyScore(tag *types.Tag, query string) float64 {
	q := strings.ToLower(query)
	name := strings.ToLower(tag.Name)
	slug := strings.ToLower(tag.Slug)
	switch {
	case name == q || slug == q:
		return fuzzyScoreExact
	case strings.HasPrefix(name, q) || strings.HasPrefix(slug, q):
		return fuzzyScorePrefix
	case strings.Contains(name, q) || strings.Contains(slug, q):
		return fuzzyScoreSubstring
	default:
		return fuzzyScoreDescription
	}
}

func (ss *suggestService) relationshipCandidates(ctx context.Context, seedIDs []uuid.UUID, minStrength float64) ([]candidate, error) {
	rows, err := ss.relationshipRepo.Propagate(ctx, nil, seedIDs, minStrength)
	if err != nil {
		return nil, fmt.Errorf("relationship propagation: %w", err)
	}
	candidates := make([]candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, candidate{
			tagID:      row.TagID,
			score:      row.AvgStrength,
			source:     types.SourceRelationship,
			matchCount: row.MatchCount,
		})
	}
	return candidates, nil
}

// hybridCandidates unions relationship and co-occurrence evidence, with
// fuzzy matches mixed in when a query is present. A tag seen by both
// graph signals keeps the higher score, since either alone is
// sufficient evidence.
func (ss *suggestService) hybridCandidates(ctx context.Context, query string, seedIDs []uuid.UUID, minStrength, minConfidence float64) ([]candidate, error) {
	var (
		relRows   []repos.PropagationRow
		coocRows  []repos.CooccurrenceRow
		fuzzyTags []*types.Tag
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := ss.relationshipRepo.Propagate(groupCtx, nil, seedIDs, minStrength)
		if err != nil {
			return fmt.Errorf("relationship propagation: %w", err)
		}
		relRows = rows
		return nil
	})
	group.Go(func() error {
		rows, err := ss.cooccurrenceRepo.ConfidenceFor(groupCtx, nil, seedIDs, minConfidence)
		if err != nil {
			return fmt.Errorf("co-occurrence lookup: %w", err)
		}
		coocRows = rows
		return nil
	})
	if query != "" {
		group.Go(func() error {
			tags, err := ss.tagRepo.FuzzyMatch(groupCtx, nil, query, maxSuggestLimit)
			if err != nil {
				return fmt.Errorf("fuzzy match: %w", err)
			}
			fuzzyTags = tags
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]uuid.UUID, 0, len(relRows)+len(coocRows)+len(fuzzyTags))
	byID := make(map[uuid.UUID]*candidate)

	for _, row := range relRows {
		ordered = append(ordered, row.TagID)
		byID[row.TagID] = &candidate{
			tagID:      row.TagID,
			score:      row.AvgStrength,
			source:     types.SourceRelationship,
			matchCount: row.MatchCount,
		}
	}
	for _, row := range coocRows {
		if existing, ok := byID[row.TagID]; ok {
			existing.source = types.SourceBoth
			if row.Confidence > existing.score {
				existing.score = row.Confidence
			}
			continue
		}
		ordered = append(ordered, row.TagID)
		byID[row.TagID] = &candidate{
			tagID:  row.TagID,
			score:  row.Confidence,
			source: types.SourceCooccurrence,
		}
	}
	seedSet := make(map[uuid.UUID]struct{}, len(seedIDs))
	for _, id := range seedIDs {
		seedSet[id] = struct{}{}
	}
	for _, tag := range fuzzyTags {
		if _, seeded := seedSet[tag.ID]; seeded {
			continue
		}
		// A tag already backed by graph evidence is not duplicated.
		if _, ok := byID[tag.ID]; ok {
			continue
		}
		ordered = append(ordered, tag.ID)
		byID[tag.ID] = &candidate{
			tagID:  tag.ID,
			score:  fuzzyScore(tag, query),
			source: types.SourceFuzzy,
		}
	}

	candidates := make([]candidate, 0, len(ordered))
	for _, id := range ordered {
		candidates = append(candidates, *byID[id])
	}
	return candidates, nil
}

// rank attaches tag names, sorts by score descending (match count and
// name as deterministic tie-breaks), and truncates to the limit.
// Candidates whose tag row is gone are dropped.
func (ss *suggestService) rank(ctx context.Context, candidates []candidate, limit int) ([]SuggestedTag, error) {
	if len(candidates) == 0 {
		return []SuggestedTag{}, nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.tagID)
	}
	tags, err := ss.tagRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate tags: %w", err)
	}
	tagsByID := make(map[uuid.UUID]*types.Tag, len(tags))
	for _, tag := range tags {
		tagsByID[tag.ID] = tag
	}

	type scored struct {
		candidate
		name string
		slug string
	}
	rankable := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		tag, ok := tagsByID[c.tagID]
		if !ok {
			continue
		}
		rankable = append(rankable, scored{candidate: c, name: tag.Name, slug: tag.Slug})
	}

	sort.SliceStable(rankable, func(i, j int) bool {
		if rankable[i].score != rankable[j].score {
			return rankable[i].score > rankable[j].score
		}
		if rankable[i].matchCount != rankable[j].matchCount {
			return rankable[i].matchCount > rankable[j].matchCount
		}
		return rankable[i].name < rankable[j].name
	})
	if len(rankable) > limit {
		rankable = rankable[:limit]
	}

	results := make([]SuggestedTag, 0, len(rankable))
	for _, r := range rankable {
		results = append(results, SuggestedTag{
			TagID:  r.tagID,
			Name:   r.name,
			Slug:   r.slug,
			Score:  r.score,
			Source: r.source,
		})
	}
	return results, nil
}

func (ss *suggestService) RecordCooccurrence(tagIDs []uuid.UUID) {
	unique := make([]uuid.UUID, 0, len(tagIDs))
	seen := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) < 2 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := 0; i < len(unique); i++ {
			for j := i + 1; j < len(unique); j++ {
				if err := ss.cooccurrenceRepo.Bump(ctx, nil, unique[i], unique[j]); err != nil {
					ss.log.Warn("Co-occurrence bump failed", "tag_a", unique[i], "tag_b", unique[j], "error", err)
				}
			}
		}
	}()
}
