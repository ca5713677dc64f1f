package ingest

import (
	"context"
	"reflect"
	"testing"

	"catalogd/pkg/catalog"
	"catalogd/pkg/store"
)

func engineeringScorecard() catalog.ScorecardDefinition {
	return catalog.ScorecardDefinition{
		Name: "engineering",
		Scores: []catalog.ScoreDefinition{
			{ID: "security"},
			{ID: "testing"},
			{ID: "docs"},
		},
		Ranks: []catalog.RankDefinition{
			{
				ID:        "quality",
				ScoreRefs: []string{"security", "testing", "docs"},
				Formula:   "security*0.4 + testing*0.3 + docs*0.3",
				Thresholds: []catalog.RankThreshold{
					{Min: 90, Label: "S"},
					{Min: 75, Label: "A"},
					{Min: 50, Label: "B"},
					{Min: 0, Label: "C"},
				},
			},
		},
	}
}

func scoredComponent(name string, scores ...catalog.ScoreValue) catalog.Entity {
	return catalog.Entity{
		Kind:     catalog.KindComponent,
		Metadata: catalog.Metadata{Name: name, Scores: scores},
		Spec:     &catalog.ComponentSpec{Lifecycle: "production"},
	}
}

func newTestPipeline(cat catalog.Catalog) (*Pipeline, *store.Store) {
	st := store.New()
	p := NewPipeline(PipelineParams{
		Store:  st,
		Source: &StaticSource{Catalog: cat},
	})
	return p, st
}

func TestReloadComputesScoresAndRanks(t *testing.T) {
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
		catalog.ScoreValue{ScoreID: "testing", Value: 80},
		catalog.ScoreValue{ScoreID: "docs", Value: 60},
	)
	p, st := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{engineeringScorecard()},
	})

	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot() != snap {
		t.Fatal("reload did not publish the new snapshot")
	}

	id := entity.ID()
	scores := snap.Scores(id)
	if len(scores) != 3 {
		t.Fatalf("scores = %v, want three", scores)
	}
	for _, sc := range scores {
		if sc.ScorecardID != "engineering" {
			t.Fatalf("score %s resolved to scorecard %q, want engineering", sc.ScoreID, sc.ScorecardID)
		}
	}

	ranks := snap.Ranks(id)
	want := []catalog.RankResult{{
		EntityID:    id,
		RankID:      "quality",
		Value:       82.0,
		Label:       "A",
		ScorecardID: "engineering",
	}}
	if !reflect.DeepEqual(ranks, want) {
		t.Fatalf("ranks = %v, want %v", ranks, want)
	}
}

func TestReloadSkipsRankWithMissingScoreRefs(t *testing.T) {
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
	)
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{engineeringScorecard()},
	})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Ranks(entity.ID()); len(got) != 0 {
		t.Fatalf("ranks = %v, want none when referenced scores are missing", got)
	}
	// The raw score row still lands.
	if got := snap.Scores(entity.ID()); len(got) != 1 {
		t.Fatalf("scores = %v, want the raw row", got)
	}
}

func TestReloadSkipsRankWhenNoRuleMatches(t *testing.T) {
	card := engineeringScorecard()
	card.Ranks = []catalog.RankDefinition{{
		ID:        "incident-readiness",
		ScoreRefs: []string{"security"},
		Rules: []catalog.RankRule{
			{Condition: "security >= 95", Formula: "security"},
		},
	}}
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 40},
	)
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{card},
	})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Not applicable: no row, and the pass as a whole still succeeds.
	if got := snap.Ranks(entity.ID()); len(got) != 0 {
		t.Fatalf("ranks = %v, want none when no rule matches", got)
	}
}

func TestReloadRespectsTargetKinds(t *testing.T) {
	card := engineeringScorecard()
	card.Ranks[0].TargetKinds = []string{"API"}
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
		catalog.ScoreValue{ScoreID: "testing", Value: 80},
		catalog.ScoreValue{ScoreID: "docs", Value: 60},
	)
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{card},
	})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Ranks(entity.ID()); len(got) != 0 {
		t.Fatalf("ranks = %v, want none for a non-targeted kind", got)
	}
}

func TestReloadContainsBadFormula(t *testing.T) {
	card := engineeringScorecard()
	card.Ranks = append(card.Ranks, catalog.RankDefinition{
		ID:        "broken",
		ScoreRefs: []string{"security"},
		Formula:   "security +",
	})
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
		catalog.ScoreValue{ScoreID: "testing", Value: 80},
		catalog.ScoreValue{ScoreID: "docs", Value: 60},
	)
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{card},
	})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ranks := snap.Ranks(entity.ID())
	if len(ranks) != 1 || ranks[0].RankID != "quality" {
		t.Fatalf("ranks = %v, want only the valid rank", ranks)
	}
}

func TestReloadExtractsRelations(t *testing.T) {
	entity := catalog.Entity{
		Kind:     catalog.KindComponent,
		Metadata: catalog.Metadata{Name: "payments"},
		Spec: &catalog.ComponentSpec{
			Owner:     "team-payments",
			DependsOn: []string{"resource:default/payments-db"},
		},
	}
	p, _ := newTestPipeline(catalog.Catalog{Entities: []catalog.Entity{entity}})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rels := snap.RelationsFrom(entity.ID())
	if len(rels) != 2 {
		t.Fatalf("relations = %v, want ownedBy and dependsOn", rels)
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
		catalog.ScoreValue{ScoreID: "testing", Value: 80},
		catalog.ScoreValue{ScoreID: "docs", Value: 60},
	)
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{engineeringScorecard()},
	})

	first, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first.BuildID() == second.BuildID() {
		t.Fatal("rebuilds must get distinct build IDs")
	}
	id := entity.ID()
	if !reflect.DeepEqual(first.Scores(id), second.Scores(id)) {
		t.Fatalf("scores diverged between identical rebuilds:\n%v\n%v", first.Scores(id), second.Scores(id))
	}
	if !reflect.DeepEqual(first.Ranks(id), second.Ranks(id)) {
		t.Fatalf("ranks diverged between identical rebuilds:\n%v\n%v", first.Ranks(id), second.Ranks(id))
	}
	if !reflect.DeepEqual(first.Relations(), second.Relations()) {
		t.Fatal("relations diverged between identical rebuilds")
	}
}

func TestReloadScorecardsRecomputesAgainstCurrentEntities(t *testing.T) {
	entity := scoredComponent("payments",
		catalog.ScoreValue{ScoreID: "security", Value: 100},
		catalog.ScoreValue{ScoreID: "testing", Value: 80},
		catalog.ScoreValue{ScoreID: "docs", Value: 60},
	)
	src := &StaticSource{Catalog: catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{engineeringScorecard()},
	}}
	st := store.New()
	p := NewPipeline(PipelineParams{Store: st, Source: src})

	if _, err := p.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Tighten the thresholds and reload definitions only.
	card := engineeringScorecard()
	card.Ranks[0].Thresholds = []catalog.RankThreshold{
		{Min: 95, Label: "S"},
		{Min: 0, Label: "F"},
	}
	src.Catalog.Scorecards = []catalog.ScorecardDefinition{card}

	snap, err := p.ReloadScorecards(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ranks := snap.Ranks(entity.ID())
	if len(ranks) != 1 || ranks[0].Label != "F" {
		t.Fatalf("ranks = %v, want the recomputed label F", ranks)
	}
	if len(snap.Entities()) != 1 {
		t.Fatal("entities must carry over from the previous snapshot")
	}
}

func TestReloadLabelFunctionRank(t *testing.T) {
	card := catalog.ScorecardDefinition{
		Name:   "tiers",
		Scores: []catalog.ScoreDefinition{{ID: "score"}},
		Ranks: []catalog.RankDefinition{{
			ID:            "tier",
			ScoreRefs:     []string{"score"},
			LabelFunction: "'gold' if score >= 90 else 'bronze'",
		}},
	}
	entity := scoredComponent("payments", catalog.ScoreValue{ScoreID: "score", Value: 95})
	p, _ := newTestPipeline(catalog.Catalog{
		Entities:   []catalog.Entity{entity},
		Scorecards: []catalog.ScorecardDefinition{card},
	})
	snap, err := p.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ranks := snap.Ranks(entity.ID())
	if len(ranks) != 1 || ranks[0].Label != "gold" || ranks[0].Value != 0 {
		t.Fatalf("ranks = %v, want label gold with value 0", ranks)
	}
}
