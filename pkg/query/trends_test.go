package query

import (
	"testing"
	"time"

	"catalogd/pkg/catalog"
	"catalogd/pkg/store"
)

func historyFixture(now time.Time) *store.Store {
	day := func(offset int, hour int) time.Time {
		return now.AddDate(0, 0, -offset).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}
	st := store.New()
	st.Swap(store.NewSnapshot(store.SnapshotData{
		BuildID: "hist",
		ScoreHistory: []catalog.ScoreHistoryEntry{
			{EntityID: "Component:default/billing", ScoreID: "security", Value: 80, RecordedAt: day(1, 9)},
			{EntityID: "Component:default/billing", ScoreID: "security", Value: 90, RecordedAt: day(1, 17)},
			{EntityID: "Component:default/checkout", ScoreID: "security", Value: catalog.ScoreNA, RecordedAt: day(1, 12)},
			{EntityID: "Component:default/billing", ScoreID: "security", Value: 60, RecordedAt: day(3, 10)},
			{EntityID: "Component:default/billing", ScoreID: "security", Value: 50, RecordedAt: day(90, 10)},
		},
		RankHistory: []catalog.RankHistoryEntry{
			{EntityID: "Component:default/billing", RankID: "quality", Value: 85, Label: "A", RecordedAt: day(1, 9)},
			{EntityID: "Component:default/billing", RankID: "quality", Value: 60, Label: "B", RecordedAt: day(3, 10)},
		},
	}))
	return st
}

func TestScoreTrendsDailyBuckets(t *testing.T) {
	now := time.Now().UTC()
	s := New(historyFixture(now))

	got := s.ScoreTrends(30)
	if len(got) != 2 {
		t.Fatalf("ScoreTrends = %v, want 2 daily buckets inside the window", got)
	}
	// Oldest day first.
	if got[0].Date >= got[1].Date {
		t.Fatalf("buckets out of order: %v", got)
	}
	if got[0].UpdateCount != 1 || got[0].AvgValue != 60 {
		t.Fatalf("older bucket = %+v", got[0])
	}
	// N/A counts as an update but stays out of the average.
	if got[1].UpdateCount != 3 || got[1].AvgValue != 85 {
		t.Fatalf("recent bucket = %+v", got[1])
	}
}

func TestEntityHistory(t *testing.T) {
	now := time.Now().UTC()
	s := New(historyFixture(now))

	scores := s.EntityScoreHistory("Component:default/billing", "security")
	if len(scores) != 4 {
		t.Fatalf("EntityScoreHistory = %v", scores)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].RecordedAt.Before(scores[i-1].RecordedAt) {
			t.Fatalf("history out of order at %d: %v", i, scores)
		}
	}

	if got := s.EntityScoreHistory("Component:default/checkout", ""); len(got) != 1 {
		t.Fatalf("checkout history = %v", got)
	}

	ranks := s.EntityRankHistory("Component:default/billing", "quality")
	if len(ranks) != 2 || ranks[0].Label != "B" || ranks[1].Label != "A" {
		t.Fatalf("EntityRankHistory = %v", ranks)
	}
}
