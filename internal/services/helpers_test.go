package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

// The services only use *gorm.DB for transaction demarcation; the fake
// conn pool hands out no-op transactions and fails loudly if anything
// tries to run SQL through it.
type fakeConnPool struct{}

var errNoSQL = errors.New("test conn pool does not execute sql")

func (fakeConnPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, errNoSQL
}

// Savepoint control for nested transactions is the only SQL the
// services may reach the pool with; everything else fails loudly.
func (fakeConnPool) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	for _, prefix := range []string{"SAVEPOINT ", "ROLLBACK TO SAVEPOINT ", "RELEASE SAVEPOINT "} {
		if strings.HasPrefix(query, prefix) {
			return fakeResult{}, nil
		}
	}
	return nil, errNoSQL
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 0, nil }

func (fakeConnPool) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (fakeConnPool) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// BeginTx must hand out a pointer: gorm checks the committer with
// reflect.Value.IsNil, which panics on a struct value.
func (fakeConnPool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	return &fakeTxPool{}, nil
}

type fakeTxPool struct{ fakeConnPool }

func (*fakeTxPool) Commit() error   { return nil }
func (*fakeTxPool) Rollback() error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: fakeConnPool{}}), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

// memStore is the shared backing state for the fake repos, mirroring the
// tables and partial unique indexes the real schema carries.
type memStore struct {
	mu          sync.Mutex
	tags        map[uuid.UUID]*types.Tag
	edges       map[uuid.UUID]*types.TagRelationship
	suggestions map[uuid.UUID]*types.RelationshipSuggestion
	feedback    map[uuid.UUID]*types.RelationshipFeedback
	cooc        map[[2]uuid.UUID]*types.TagCooccurrence
}

func newMemStore() *memStore {
	return &memStore{
		tags:        map[uuid.UUID]*types.Tag{},
		edges:       map[uuid.UUID]*types.TagRelationship{},
		suggestions: map[uuid.UUID]*types.RelationshipSuggestion{},
		feedback:    map[uuid.UUID]*types.RelationshipFeedback{},
		cooc:        map[[2]uuid.UUID]*types.TagCooccurrence{},
	}
}

func (s *memStore) addTag(name, slug string) *types.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := &types.Tag{ID: uuid.New(), Name: name, Slug: slug}
	s.tags[tag.ID] = tag
	return tag
}

func (s *memStore) addEdge(edge *types.TagRelationship) *types.TagRelationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	s.edges[edge.ID] = edge
	return edge
}

func (s *memStore) addSuggestion(sugg *types.RelationshipSuggestion) *types.RelationshipSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sugg.ID == uuid.Nil {
		sugg.ID = uuid.New()
	}
	s.suggestions[sugg.ID] = sugg
	return sugg
}

func (s *memStore) addFeedback(record *types.RelationshipFeedback) *types.RelationshipFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.feedback[record.ID] = record
	return record
}

func (s *memStore) edge(id uuid.UUID) *types.TagRelationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges[id]
}

func (s *memStore) suggestion(id uuid.UUID) *types.RelationshipSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions[id]
}

func (s *memStore) feedbackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback)
}

type fakeTagRepo struct{ store *memStore }

func (r *fakeTagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Tag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.Tag
	for _, id := range tagIDs {
		if tag, ok := r.store.tags[id]; ok {
			copied := *tag
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) ExistAll(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range tagIDs {
		if _, ok := r.store.tags[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *fakeTagRepo) FuzzyMatch(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Tag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q := strings.ToLower(query)
	var out []*types.Tag
	for _, tag := range r.store.tags {
		if strings.Contains(strings.ToLower(tag.Slug), q) ||
			strings.Contains(strings.ToLower(tag.Name), q) ||
			strings.Contains(strings.ToLower(tag.Description), q) {
			copied := *tag
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fireOnce consumes a hook so a retry loop sees the race a single time.
func fireOnce(hook *func()) {
	if fn := *hook; fn != nil {
		*hook = nil
		fn()
	}
}

type fakeRelationshipRepo struct {
	store *memStore
	// beforeCreate simulates a concurrent writer sneaking in between the
	// caller's existence check and its insert.
	beforeCreate func()
}

func (r *fakeRelationshipRepo) Create(ctx context.Context, tx *gorm.DB, edge *types.TagRelationship) error {
	fireOnce(&r.beforeCreate)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.edges {
		if existing.Status == types.EdgeStatusActive &&
			existing.TagAID == edge.TagAID && existing.TagBID == edge.TagBID &&
			existing.Type == edge.Type {
			return uniqueViolation()
		}
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	copied := *edge
	r.store.edges[edge.ID] = &copied
	return nil
}

func (r *fakeRelationshipRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TagRelationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	edge, ok := r.store.edges[id]
	if !ok {
		return nil, nil
	}
	copied := *edge
	return &copied, nil
}

func (r *fakeRelationshipRepo) FindActiveByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.TagRelationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, edge := range r.store.edges {
		if edge.Status == types.EdgeStatusActive &&
			edge.TagAID == tagAID && edge.TagBID == tagBID && edge.Type == relType {
			copied := *edge
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRelationshipRepo) UpdateMerge(ctx context.Context, tx *gorm.DB, id uuid.UUID, strength *float64, approvedBy *uuid.UUID, notes string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	edge, ok := r.store.edges[id]
	if !ok {
		return nil
	}
	if strength != nil {
		edge.Strength = *strength
	}
	if approvedBy != nil && edge.ApprovedBy == nil {
		userID := *approvedBy
		now := time.Now().UTC()
		edge.ApprovedBy = &userID
		edge.ApprovedAt = &now
		if notes != "" {
			edge.CuratorNotes = notes
		}
	}
	return nil
}

func (r *fakeRelationshipRepo) AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if edge, ok := r.store.edges[id]; ok {
		edge.AgreeCount += agreeDelta
		edge.DisagreeCount += disagreeDelta
	}
	return nil
}

func (r *fakeRelationshipRepo) Retire(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	edge, ok := r.store.edges[id]
	if !ok || edge.Status != types.EdgeStatusActive {
		return false, nil
	}
	edge.Status = types.EdgeStatusRetired
	return true, nil
}

func (r *fakeRelationshipRepo) ListActiveByTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID, minStrength float64, relType *types.RelationshipType) ([]*types.TagRelationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.TagRelationship
	for _, edge := range r.store.edges {
		if edge.Status != types.EdgeStatusActive || edge.Strength < minStrength {
			continue
		}
		if edge.TagAID != tagID && edge.TagBID != tagID {
			continue
		}
		if relType != nil && edge.Type != *relType {
			continue
		}
		copied := *edge
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *fakeRelationshipRepo) Propagate(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minStrength float64) ([]repos.PropagationRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seeds := map[uuid.UUID]struct{}{}
	for _, id := range seedIDs {
		seeds[id] = struct{}{}
	}
	type agg struct {
		sum   float64
		count int
		from  map[uuid.UUID]struct{}
	}
	byCandidate := map[uuid.UUID]*agg{}
	for _, edge := range r.store.edges {
		if edge.Status != types.EdgeStatusActive || edge.Strength < minStrength {
			continue
		}
		pairs := [][2]uuid.UUID{{edge.TagAID, edge.TagBID}, {edge.TagBID, edge.TagAID}}
		for _, pair := range pairs {
			seed, candidate := pair[0], pair[1]
			if _, ok := seeds[seed]; !ok {
				continue
			}
			if _, ok := seeds[candidate]; ok {
				continue
			}
			entry := byCandidate[candidate]
			if entry == nil {
				entry = &agg{from: map[uuid.UUID]struct{}{}}
				byCandidate[candidate] = entry
			}
			entry.sum += edge.Strength
			entry.count++
			entry.from[seed] = struct{}{}
		}
	}
	var out []repos.PropagationRow
	for candidate, entry := range byCandidate {
		out = append(out, repos.PropagationRow{
			TagID:       candidate,
			AvgStrength: entry.sum / float64(entry.count),
			MatchCount:  len(entry.from),
		})
	}
	return out, nil
}

type fakeSuggestionRepo struct {
	store        *memStore
	beforeCreate func()
}

func (r *fakeSuggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestion *types.RelationshipSuggestion) error {
	fireOnce(&r.beforeCreate)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.suggestions {
		if existing.Status == types.SuggestionPending &&
			existing.TagAID == suggestion.TagAID && existing.TagBID == suggestion.TagBID &&
			existing.Type == suggestion.Type {
			return uniqueViolation()
		}
	}
	if suggestion.ID == uuid.Nil {
		suggestion.ID = uuid.New()
	}
	suggestion.CreatedAt = time.Now().UTC()
	copied := *suggestion
	r.store.suggestions[suggestion.ID] = &copied
	return nil
}

func (r *fakeSuggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RelationshipSuggestion, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sugg, ok := r.store.suggestions[id]
	if !ok {
		return nil, nil
	}
	copied := *sugg
	return &copied, nil
}

func (r *fakeSuggestionRepo) FindPendingByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) (*types.RelationshipSuggestion, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sugg := range r.store.suggestions {
		if sugg.Status == types.SuggestionPending &&
			sugg.TagAID == tagAID && sugg.TagBID == tagBID && sugg.Type == relType {
			copied := *sugg
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSuggestionRepo) ResolvePending(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolution repos.SuggestionResolution) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sugg, ok := r.store.suggestions[id]
	if !ok || sugg.Status != types.SuggestionPending {
		return false, nil
	}
	now := time.Now().UTC()
	sugg.Status = resolution.Status
	sugg.ResolvedAt = &now
	if resolution.ResolvedBy != nil {
		userID := *resolution.ResolvedBy
		sugg.ResolvedBy = &userID
	}
	if resolution.Notes != "" {
		sugg.ResolutionNotes = resolution.Notes
	}
	if resolution.CreatedEdgeID != nil {
		edgeID := *resolution.CreatedEdgeID
		sugg.CreatedEdgeID = &edgeID
	}
	return true, nil
}

func (r *fakeSuggestionRepo) AdjustVoteCounts(ctx context.Context, tx *gorm.DB, id uuid.UUID, agreeDelta, disagreeDelta int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if sugg, ok := r.store.suggestions[id]; ok {
		sugg.AgreeCount += agreeDelta
		sugg.DisagreeCount += disagreeDelta
	}
	return nil
}

func (r *fakeSuggestionRepo) List(ctx context.Context, tx *gorm.DB, status types.SuggestionStatus, sortBy string, limit, offset int) ([]*types.RelationshipSuggestion, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matching []*types.RelationshipSuggestion
	for _, sugg := range r.store.suggestions {
		if sugg.Status == status {
			copied := *sugg
			matching = append(matching, &copied)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if sortBy == "votes" {
			vi := matching[i].AgreeCount + matching[i].DisagreeCount
			vj := matching[j].AgreeCount + matching[j].DisagreeCount
			if vi != vj {
				return vi > vj
			}
		}
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.After(matching[j].CreatedAt)
		}
		return matching[i].ID.String() < matching[j].ID.String()
	})
	total := int64(len(matching))
	if offset >= len(matching) {
		return nil, total, nil
	}
	matching = matching[offset:]
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, total, nil
}

type fakeFeedbackRepo struct {
	store        *memStore
	beforeInsert func()
}

func feedbackMatchesScope(record *types.RelationshipFeedback, scope types.VoteScope) bool {
	if scope.IsEdge() {
		return record.EdgeID != nil && *record.EdgeID == scope.EdgeID()
	}
	if record.EdgeID != nil {
		return false
	}
	tagA, tagB, relType := scope.Pair()
	return record.TagAID != nil && *record.TagAID == tagA &&
		record.TagBID != nil && *record.TagBID == tagB &&
		record.Type != nil && *record.Type == relType
}

func (r *fakeFeedbackRepo) GetByUserAndScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, scope types.VoteScope) (*types.RelationshipFeedback, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, record := range r.store.feedback {
		if record.UserID == userID && feedbackMatchesScope(record, scope) {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFeedbackRepo) Insert(ctx context.Context, tx *gorm.DB, record *types.RelationshipFeedback) error {
	fireOnce(&r.beforeInsert)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.feedback {
		if existing.UserID == record.UserID && feedbackMatchesScope(existing, record.Scope()) {
			return uniqueViolation()
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	copied := *record
	r.store.feedback[record.ID] = &copied
	return nil
}

func (r *fakeFeedbackRepo) UpdateVote(ctx context.Context, tx *gorm.DB, id uuid.UUID, vote types.Vote, reason string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if record, ok := r.store.feedback[id]; ok {
		record.Vote = vote
		record.Reason = reason
	}
	return nil
}

func (r *fakeFeedbackRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.feedback, id)
	return nil
}

func (r *fakeFeedbackRepo) ListByPair(ctx context.Context, tx *gorm.DB, tagAID, tagBID uuid.UUID, relType types.RelationshipType) ([]*types.RelationshipFeedback, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.RelationshipFeedback
	for _, record := range r.store.feedback {
		if record.EdgeID == nil &&
			record.TagAID != nil && *record.TagAID == tagAID &&
			record.TagBID != nil && *record.TagBID == tagBID &&
			record.Type != nil && *record.Type == relType {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeFeedbackRepo) UserIDsWithEdgeVotes(ctx context.Context, tx *gorm.DB, edgeID uuid.UUID) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var ids []uuid.UUID
	for _, record := range r.store.feedback {
		if record.EdgeID != nil && *record.EdgeID == edgeID {
			ids = append(ids, record.UserID)
		}
	}
	return ids, nil
}

func (r *fakeFeedbackRepo) RescopeToEdge(ctx context.Context, tx *gorm.DB, recordIDs []uuid.UUID, edgeID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range recordIDs {
		if record, ok := r.store.feedback[id]; ok {
			target := edgeID
			record.EdgeID = &target
			record.TagAID = nil
			record.TagBID = nil
			record.Type = nil
		}
	}
	return nil
}

type fakeCooccurrenceRepo struct{ store *memStore }

func (r *fakeCooccurrenceRepo) ConfidenceFor(ctx context.Context, tx *gorm.DB, seedIDs []uuid.UUID, minConfidence float64) ([]repos.CooccurrenceRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seeds := map[uuid.UUID]struct{}{}
	for _, id := range seedIDs {
		seeds[id] = struct{}{}
	}
	best := map[uuid.UUID]float64{}
	for _, row := range r.store.cooc {
		if row.Confidence < minConfidence {
			continue
		}
		pairs := [][2]uuid.UUID{{row.TagAID, row.TagBID}, {row.TagBID, row.TagAID}}
		for _, pair := range pairs {
			seed, candidate := pair[0], pair[1]
			if _, ok := seeds[seed]; !ok {
				continue
			}
			if _, ok := seeds[candidate]; ok {
				continue
			}
			if row.Confidence > best[candidate] {
				best[candidate] = row.Confidence
			}
		}
	}
	var out []repos.CooccurrenceRow
	for candidate, confidence := range best {
		out = append(out, repos.CooccurrenceRow{TagID: candidate, Confidence: confidence})
	}
	return out, nil
}

func (r *fakeCooccurrenceRepo) Bump(ctx context.Context, tx *gorm.DB, tagXID, tagYID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tagA, tagB := types.CanonicalPair(tagXID, tagYID)
	key := [2]uuid.UUID{tagA, tagB}
	if row, ok := r.store.cooc[key]; ok {
		row.Count++
		confidence := float64(row.Count) / float64(row.Count+20)
		if confidence > 1 {
			confidence = 1
		}
		row.Confidence = confidence
		return nil
	}
	r.store.cooc[key] = &types.TagCooccurrence{
		ID:         uuid.New(),
		TagAID:     tagA,
		TagBID:     tagB,
		Count:      1,
		Confidence: 1.0 / 21.0,
	}
	return nil
}

// setCooccurrence pins a pair's confidence directly, bypassing the
// smoothing the bump path applies.
func (s *memStore) setCooccurrence(x, y uuid.UUID, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tagA, tagB := types.CanonicalPair(x, y)
	s.cooc[[2]uuid.UUID{tagA, tagB}] = &types.TagCooccurrence{
		ID:         uuid.New(),
		TagAID:     tagA,
		TagBID:     tagB,
		Count:      10,
		Confidence: confidence,
	}
}

// fixture bundles the fully wired services over one shared store.
type fixture struct {
	store      *memStore
	tags       *fakeTagRepo
	edges      *fakeRelationshipRepo
	sugg       *fakeSuggestionRepo
	votes      *fakeFeedbackRepo
	cooc       *fakeCooccurrenceRepo
	graph      GraphService
	feedback   FeedbackService
	moderation ModerationService
	suggest    SuggestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	db := newTestDB(t)
	log := newTestLogger()

	f := &fixture{
		store: store,
		tags:  &fakeTagRepo{store: store},
		edges: &fakeRelationshipRepo{store: store},
		sugg:  &fakeSuggestionRepo{store: store},
		votes: &fakeFeedbackRepo{store: store},
		cooc:  &fakeCooccurrenceRepo{store: store},
	}
	f.graph = NewGraphService(db, log, f.tags, f.edges, nil)
	f.feedback = NewFeedbackService(db, log, f.votes, f.edges, f.sugg)
	f.moderation = NewModerationService(db, log, f.tags, f.edges, f.sugg, f.votes, f.feedback, f.graph)
	f.suggest = NewSuggestService(db, log, f.tags, f.edges, f.cooc)
	return f
}
