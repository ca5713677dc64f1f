package query

import (
	"reflect"
	"testing"

	"catalogd/pkg/catalog"
	"catalogd/pkg/store"
)

func entity(kind catalog.Kind, name string, spec catalog.Spec) catalog.Entity {
	return catalog.Entity{Kind: kind, Metadata: catalog.Metadata{Name: name}, Spec: spec}
}

// fixture is a small org: two teams under engineering, owning components
// with scores and ranks.
func fixture() *store.Store {
	engineering := entity(catalog.KindGroup, "engineering", &catalog.GroupSpec{Type: "org"})
	platform := entity(catalog.KindGroup, "platform", &catalog.GroupSpec{Parent: "engineering"})
	payments := entity(catalog.KindGroup, "payments-team", &catalog.GroupSpec{Parent: "engineering"})

	svcA := catalog.Entity{
		Kind: catalog.KindComponent,
		Metadata: catalog.Metadata{
			Name:        "billing",
			Title:       "Billing Service",
			Description: "Handles invoices",
			Tags:        []string{"go"},
		},
		Spec: &catalog.ComponentSpec{Type: "service", Lifecycle: "production", Owner: "platform"},
	}
	svcB := entity(catalog.KindComponent, "checkout", &catalog.ComponentSpec{
		Type: "service", Owner: "payments-team",
	})
	svcC := entity(catalog.KindComponent, "legacy-gateway", &catalog.ComponentSpec{
		Type: "service", Owner: "payments-team", Lifecycle: "deprecated",
	})

	relations := []catalog.Relation{
		{SourceID: platform.ID(), TargetID: engineering.ID(), Type: catalog.RelationChildOf},
		{SourceID: payments.ID(), TargetID: engineering.ID(), Type: catalog.RelationChildOf},
		{SourceID: svcA.ID(), TargetID: platform.ID(), Type: catalog.RelationOwnedBy},
		{SourceID: svcB.ID(), TargetID: payments.ID(), Type: catalog.RelationOwnedBy},
		{SourceID: svcC.ID(), TargetID: payments.ID(), Type: catalog.RelationOwnedBy},
	}

	scores := []catalog.EntityScore{
		{EntityID: svcA.ID(), ScoreID: "security", Value: 90, ScorecardID: "engineering"},
		{EntityID: svcB.ID(), ScoreID: "security", Value: 70, ScorecardID: "engineering"},
		{EntityID: svcC.ID(), ScoreID: "security", Value: catalog.ScoreNA, ScorecardID: "engineering"},
	}
	ranks := []catalog.RankResult{
		{EntityID: svcA.ID(), RankID: "quality", Value: 90, Label: "S", ScorecardID: "engineering"},
		{EntityID: svcB.ID(), RankID: "quality", Value: 70, Label: "B", ScorecardID: "engineering"},
		{EntityID: svcC.ID(), RankID: "quality", Value: 70, Label: "B", ScorecardID: "engineering"},
	}

	st := store.New()
	st.Swap(store.NewSnapshot(store.SnapshotData{
		BuildID:   "test-build",
		Entities:  []catalog.Entity{engineering, platform, payments, svcA, svcB, svcC},
		Relations: relations,
		Scores:    scores,
		Ranks:     ranks,
		Scorecards: []catalog.ScorecardDefinition{{
			Name:   "engineering",
			Scores: []catalog.ScoreDefinition{{ID: "security", Name: "Security"}},
			Ranks:  []catalog.RankDefinition{{ID: "quality", Formula: "security"}},
		}},
	}))
	return st
}

func TestSearch(t *testing.T) {
	s := New(fixture())

	got := s.Search(SearchParams{Query: "billing"})
	if len(got) != 1 || got[0].Name != "billing" {
		t.Fatalf("Search(billing) = %v", got)
	}

	// Title and description match too.
	if got = s.Search(SearchParams{Query: "invoices"}); len(got) != 1 {
		t.Fatalf("Search(invoices) = %v", got)
	}

	// Kind filter narrows the match set.
	got = s.Search(SearchParams{Query: "", Kind: "group"})
	if len(got) != 3 {
		t.Fatalf("Search(kind=group) = %v", got)
	}

	got = s.Search(SearchParams{Query: "", Limit: 2})
	if len(got) != 2 {
		t.Fatalf("Search(limit=2) returned %d entries", len(got))
	}
}

func TestGetEntityDetail(t *testing.T) {
	s := New(fixture())
	id := "Component:default/billing"

	detail, ok := s.Get(id)
	if !ok {
		t.Fatalf("Get(%q) not found", id)
	}
	if detail.Owner != "platform" || detail.Lifecycle != "production" {
		t.Fatalf("detail = %+v", detail.EntitySummary)
	}
	if len(detail.Scores) != 1 || len(detail.Ranks) != 1 {
		t.Fatalf("scores/ranks = %v / %v", detail.Scores, detail.Ranks)
	}
	if len(detail.Relations) != 1 || detail.Relations[0].Direction != "outgoing" {
		t.Fatalf("relations = %v", detail.Relations)
	}

	if _, ok := s.Get("Component:default/ghost"); ok {
		t.Fatal("unknown entity unexpectedly found")
	}
}

func TestCounts(t *testing.T) {
	s := New(fixture())

	byKind := s.CountByKind()
	if byKind["Component"] != 3 || byKind["Group"] != 3 {
		t.Fatalf("CountByKind = %v", byKind)
	}

	byOwner := s.CountByOwner()
	if len(byOwner) != 3 {
		t.Fatalf("CountByOwner = %v", byOwner)
	}
	if byOwner[0].Owner != "payments-team" || byOwner[0].Count != 2 {
		t.Fatalf("CountByOwner[0] = %v, want payments-team with 2", byOwner[0])
	}
}

func TestLeaderboardDeterministicTieBreak(t *testing.T) {
	s := New(fixture())
	got := s.Leaderboard("quality", 10)
	if len(got) != 3 {
		t.Fatalf("Leaderboard = %v", got)
	}
	if got[0].EntityID != "Component:default/billing" {
		t.Fatalf("top entry = %v", got[0])
	}
	// checkout and legacy-gateway tie at 70; entity ID ascending breaks it.
	if got[1].EntityID != "Component:default/checkout" || got[2].EntityID != "Component:default/legacy-gateway" {
		t.Fatalf("tie order = %v, %v", got[1].EntityID, got[2].EntityID)
	}

	if got = s.Leaderboard("quality", 1); len(got) != 1 {
		t.Fatalf("Leaderboard(limit=1) = %v", got)
	}
}

func TestScoreDistributionExcludesNA(t *testing.T) {
	s := New(fixture())
	got := s.ScoreDistribution()
	if len(got) != 1 {
		t.Fatalf("ScoreDistribution = %v", got)
	}
	agg := got[0]
	// The N/A row must not count: two valid values, 90 and 70.
	if agg.Count != 2 || agg.Avg != 80 || agg.Min != 70 || agg.Max != 90 {
		t.Fatalf("aggregate = %+v", agg)
	}
	if agg.Name != "Security" {
		t.Fatalf("aggregate name = %q, want the definition name", agg.Name)
	}
}

func TestRankLabelDistributionOrder(t *testing.T) {
	s := New(fixture())
	got := s.RankLabelDistribution("quality")
	want := []LabelCount{{Label: "S", Count: 1}, {Label: "B", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankLabelDistribution = %v, want %v", got, want)
	}
}

func TestGroupHierarchy(t *testing.T) {
	s := New(fixture())

	roots := s.RootGroups()
	if len(roots) != 1 || roots[0].Name != "engineering" {
		t.Fatalf("RootGroups = %v", roots)
	}

	children := s.ChildGroups("Group:default/engineering")
	if len(children) != 2 {
		t.Fatalf("ChildGroups = %v", children)
	}
	if children[0].Name != "payments-team" || children[1].Name != "platform" {
		t.Fatalf("children order = %v", children)
	}

	descendants := s.Descendants("Group:default/engineering")
	if len(descendants) != 2 || descendants[0].Depth != 1 {
		t.Fatalf("Descendants = %v", descendants)
	}

	tree := s.HierarchyTree("")
	if len(tree) != 1 || len(tree[0].Children) != 2 {
		t.Fatalf("HierarchyTree = %+v", tree)
	}
	if len(tree[0].Children[0].Children) != 0 {
		t.Fatalf("leaf group has children: %+v", tree[0].Children[0])
	}
}

func TestGroupOwnershipRollups(t *testing.T) {
	s := New(fixture())
	root := "Group:default/engineering"

	direct := s.OwnedEntities(root, false)
	if len(direct) != 0 {
		t.Fatalf("OwnedEntities(direct) = %v, engineering owns nothing directly", direct)
	}

	all := s.OwnedEntities(root, true)
	if len(all) != 3 {
		t.Fatalf("OwnedEntities(subtree) = %v", all)
	}

	counts := s.EntityCounts(root, true)
	if counts["Component"] != 3 {
		t.Fatalf("EntityCounts = %v", counts)
	}

	aggs := s.ScoreAggregation(root, true)
	if len(aggs) != 1 || aggs[0].Count != 2 || aggs[0].Avg != 80 {
		t.Fatalf("ScoreAggregation = %+v", aggs)
	}

	dist := s.GroupRankDistribution(root, "quality", true)
	want := []LabelCount{{Label: "S", Count: 1}, {Label: "B", Count: 2}}
	if !reflect.DeepEqual(dist, want) {
		t.Fatalf("GroupRankDistribution = %v, want %v", dist, want)
	}

	avg, ok := s.GroupAverageRank(root, "quality", true)
	if !ok {
		t.Fatal("GroupAverageRank found nothing")
	}
	if avg.EntityCount != 3 {
		t.Fatalf("GroupAverageRank = %+v", avg)
	}

	if _, ok := s.GroupAverageRank(root, "nonexistent", true); ok {
		t.Fatal("average for an unknown rank unexpectedly present")
	}
}

func TestCompareGroups(t *testing.T) {
	s := New(fixture())
	got := s.CompareGroups([]string{
		"Group:default/platform",
		"Group:default/payments-team",
		"Group:default/ghost",
	}, true)
	if len(got) != 2 {
		t.Fatalf("CompareGroups = %v, unknown group must be skipped", got)
	}
	if got[0].EntityCount != 1 || got[1].EntityCount != 2 {
		t.Fatalf("entity counts = %d, %d", got[0].EntityCount, got[1].EntityCount)
	}
}

func TestDashboard(t *testing.T) {
	s := New(fixture())
	got := s.Dashboard()
	if got.TotalEntities != 6 || got.ScoredEntities != 3 {
		t.Fatalf("Dashboard = %+v", got)
	}
	if got.AvgScore != 80 {
		t.Fatalf("AvgScore = %v, want 80 with N/A excluded", got.AvgScore)
	}
	if got.KindCounts["Component"] != 3 {
		t.Fatalf("KindCounts = %v", got.KindCounts)
	}
	if got.BuildID != "test-build" {
		t.Fatalf("BuildID = %q", got.BuildID)
	}
}

func TestFilteredListings(t *testing.T) {
	s := New(fixture())

	if got := s.ByOwner("payments-team", 0); len(got) != 2 {
		t.Fatalf("ByOwner = %v", got)
	}
	if got := s.ByTag("go", 0); len(got) != 1 || got[0].Name != "billing" {
		t.Fatalf("ByTag = %v", got)
	}
	if got := s.ByType("component", "service", 0); len(got) != 3 {
		t.Fatalf("ByType = %v", got)
	}
}
