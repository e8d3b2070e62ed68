package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

func TestFuzzyScore(t *testing.T) {
	tag := &types.Tag{Name: "Kubernetes", Slug: "kubernetes", Description: "container orchestration"}
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"exact name", "kubernetes", fuzzyScoreExact},
		{"prefix", "kuber", fuzzyScorePrefix},
		{"substring", "ernet", fuzzyScoreSubstring},
		{"description only", "orchestration", fuzzyScoreDescription},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fuzzyScore(tag, tc.query); got != tc.want {
				t.Fatalf("fuzzyScore(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestSuggestTagsFuzzyMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exact := f.store.addTag("Go", "go")
	prefix := f.store.addTag("Golang", "golang")
	substring := f.store.addTag("Django", "django")

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{Query: "go"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []uuid.UUID{exact.ID, prefix.ID, substring.ID}
	for i, want := range wantOrder {
		if results[i].TagID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, results[i].TagID)
		}
		if results[i].Source != types.SourceFuzzy {
			t.Fatalf("expected fuzzy source, got %s", results[i].Source)
		}
	}
	if results[0].Score != fuzzyScoreExact || results[1].Score != fuzzyScorePrefix {
		t.Fatalf("unexpected scores: %v, %v", results[0].Score, results[1].Score)
	}
}

func TestSuggestTagsRelationshipMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := f.store.addTag("Docker", "docker")
	neighborA := f.store.addTag("Kubernetes", "kubernetes")
	neighborB := f.store.addTag("Containerd", "containerd")
	weak := f.store.addTag("Linux", "linux")

	addActiveEdge(f, seed.ID, neighborA.ID, 0.9)
	addActiveEdge(f, seed.ID, neighborB.ID, 0.6)
	addActiveEdge(f, seed.ID, weak.ID, 0.2)

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{
		SeedTagIDs:  []uuid.UUID{seed.ID},
		MinStrength: 0.5,
		Mode:        types.ModeRelationship,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the weak edge filtered out, got %d results", len(results))
	}
	if results[0].TagID != neighborA.ID || results[0].Score != 0.9 {
		t.Fatalf("expected the strongest neighbor first, got %+v", results[0])
	}
	if results[1].TagID != neighborB.ID {
		t.Fatalf("expected the weaker neighbor second, got %+v", results[1])
	}
	for _, r := range results {
		if r.Source != types.SourceRelationship {
			t.Fatalf("expected relationship source, got %s", r.Source)
		}
	}
}

func TestSuggestTagsHybridRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := f.store.addTag("Docker", "docker")
	graphOnly := f.store.addTag("Kubernetes", "kubernetes")
	coocOnly := f.store.addTag("Jenkins", "jenkins")
	bothSignals := f.store.addTag("Containerd", "containerd")

	addActiveEdge(f, seed.ID, graphOnly.ID, 0.9)
	addActiveEdge(f, seed.ID, bothSignals.ID, 0.5)
	f.store.setCooccurrence(seed.ID, coocOnly.ID, 0.3)
	f.store.setCooccurrence(seed.ID, bothSignals.ID, 0.7)

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{
		SeedTagIDs:    []uuid.UUID{seed.ID},
		MinStrength:   0.4,
		MinConfidence: 0.1,
		Mode:          types.ModeHybrid,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Relationship evidence at 0.9 outranks co-occurrence at 0.3; the tag
	// seen by both signals keeps the higher of its two scores.
	if results[0].TagID != graphOnly.ID || results[0].Source != types.SourceRelationship {
		t.Fatalf("expected the strong graph neighbor first, got %+v", results[0])
	}
	if results[1].TagID != bothSignals.ID || results[1].Source != types.SourceBoth || results[1].Score != 0.7 {
		t.Fatalf("expected the dual-signal tag at its max score, got %+v", results[1])
	}
	if results[2].TagID != coocOnly.ID || results[2].Source != types.SourceCooccurrence {
		t.Fatalf("expected the co-occurrence tag last, got %+v", results[2])
	}
}

func TestSuggestTagsHybridMixesFuzzyQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := f.store.addTag("Docker", "docker")
	neighbor := f.store.addTag("Kubernetes", "kubernetes")
	named := f.store.addTag("Terraform", "terraform")

	addActiveEdge(f, seed.ID, neighbor.ID, 0.9)

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{
		Query:       "terra",
		SeedTagIDs:  []uuid.UUID{seed.ID},
		MinStrength: 0.5,
		Mode:        types.ModeHybrid,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected graph plus fuzzy results, got %d", len(results))
	}
	byID := map[uuid.UUID]SuggestedTag{}
	for _, r := range results {
		byID[r.TagID] = r
	}
	if got, ok := byID[named.ID]; !ok || got.Source != types.SourceFuzzy {
		t.Fatalf("expected a fuzzy hit for the query, got %+v", got)
	}
	if _, seeded := byID[seed.ID]; seeded {
		t.Fatalf("seed tags must never be suggested back")
	}
}

func TestSuggestTagsDropsDeletedTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := f.store.addTag("Docker", "docker")
	ghost := uuid.New() // edge to a tag that no longer exists
	addActiveEdge(f, seed.ID, ghost, 0.9)

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{
		SeedTagIDs:  []uuid.UUID{seed.ID},
		MinStrength: 0.5,
		Mode:        types.ModeRelationship,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected candidates without tag rows to be dropped, got %d", len(results))
	}
}

func TestSuggestTagsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params SuggestParams
	}{
		{"no query or seeds", SuggestParams{}},
		{"relationship mode without seeds", SuggestParams{Query: "go", Mode: types.ModeRelationship}},
		{"hybrid mode without seeds", SuggestParams{Query: "go", Mode: types.ModeHybrid}},
		{"bad mode", SuggestParams{Query: "go", Mode: "psychic"}},
		{"bad min strength", SuggestParams{Query: "go", MinStrength: 1.5}},
		{"bad min confidence", SuggestParams{Query: "go", MinConfidence: -0.1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.suggest.SuggestTags(ctx, tc.params)
			if !apperr.Is(err, apperr.CodeInvalidArgument) {
				t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestSuggestTagsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"go-one", "go-two", "go-three", "go-four"} {
		f.store.addTag(name, name)
	}

	results, err := f.suggest.SuggestTags(ctx, SuggestParams{Query: "go", Limit: 2})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit applied, got %d results", len(results))
	}
}

func TestRecordCooccurrence(t *testing.T) {
	f := newFixture(t)
	tagX := f.store.addTag("Docker", "docker")
	tagY := f.store.addTag("Kubernetes", "kubernetes")

	// Duplicates collapse; the pair is only bumped once.
	f.suggest.RecordCooccurrence([]uuid.UUID{tagX.ID, tagY.ID, tagX.ID})

	tagA, tagB := types.CanonicalPair(tagX.ID, tagY.ID)
	key := [2]uuid.UUID{tagA, tagB}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.store.mu.Lock()
		row := f.store.cooc[key]
		f.store.mu.Unlock()
		if row != nil {
			if row.Count != 1 {
				t.Fatalf("expected a single bump, got count %d", row.Count)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("co-occurrence bump never landed")
}

func TestRecordCooccurrenceNeedsTwoTags(t *testing.T) {
	f := newFixture(t)
	tagX := f.store.addTag("Docker", "docker")

	f.suggest.RecordCooccurrence([]uuid.UUID{tagX.ID, tagX.ID, uuid.Nil})

	time.Sleep(50 * time.Millisecond)
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if len(f.store.cooc) != 0 {
		t.Fatalf("expected no bumps for fewer than two distinct tags")
	}
}

func addActiveEdge(f *fixture, x, y uuid.UUID, strength float64) *types.TagRelationship {
	tagA, tagB := types.CanonicalPair(x, y)
	return f.store.addEdge(&types.TagRelationship{
		TagAID:   tagA,
		TagBID:   tagB,
		Type:     types.RelationshipRelated,
		Strength: strength,
		Status:   types.EdgeStatusActive,
	})
}
