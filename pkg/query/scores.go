package query

import (
	"sort"

	"catalogd/pkg/catalog"
)

// labelRank orders rank labels best-first for distribution output.
var labelRank = map[string]int{
	"S": 1, "A": 2, "B": 3, "C": 4, "D": 5, "E": 6, "F": 7,
}

// LabelCount is one bucket of a rank label histogram.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func labelCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		display := label
		if display == "" {
			display = "Unranked"
		}
		out = append(out, LabelCount{Label: display, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, oki := labelRank[out[i].Label]
		rj, okj := labelRank[out[j].Label]
		if !oki {
			ri = 8
		}
		if !okj {
			rj = 8
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// LeaderboardEntry is one row of a rank leaderboard.
type LeaderboardEntry struct {
	EntityID string  `json:"entity_id"`
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
	Name     string  `json:"name"`
	Title    string  `json:"title,omitempty"`
	Kind     string  `json:"kind"`
}

// Leaderboard returns the top entities by a rank's value, highest first.
// Ties break on entity ID ascending so the ordering is deterministic.
func (s *Service) Leaderboard(rankID string, limit int) []LeaderboardEntry {
	snap := s.store.Snapshot()
	if limit <= 0 {
		limit = 20
	}

	var out []LeaderboardEntry
	for _, e := range snap.Entities() {
		id := e.ID()
		for _, r := range snap.Ranks(id) {
			if r.RankID != rankID {
				continue
			}
			out = append(out, LeaderboardEntry{
				EntityID: id,
				Value:    r.Value,
				Label:    r.Label,
				Name:     e.Metadata.Name,
				Title:    e.Metadata.Title,
				Kind:     string(e.Kind),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].EntityID < out[j].EntityID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ScoreDistribution rolls up every score across the whole catalog, most
// frequent first. N/A values are excluded.
func (s *Service) ScoreDistribution() []ScoreAggregate {
	snap := s.store.Snapshot()
	var all []catalog.EntityScore
	for _, e := range snap.Entities() {
		all = append(all, snap.Scores(e.ID())...)
	}
	out := aggregateScores(snap, all)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ScoreID < out[j].ScoreID
	})
	return out
}

// RankLabelDistribution counts rank labels catalog-wide, in S-to-F order.
// An empty rankID covers every rank.
func (s *Service) RankLabelDistribution(rankID string) []LabelCount {
	snap := s.store.Snapshot()
	counts := make(map[string]int)
	for _, e := range snap.Entities() {
		for _, r := range snap.Ranks(e.ID()) {
			if rankID != "" && r.RankID != rankID {
				continue
			}
			counts[r.Label]++
		}
	}
	return labelCounts(counts)
}

// KindLabelCount is one cell of the kind-by-label heatmap.
type KindLabelCount struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// KindRankDistribution buckets a rank's labels per entity kind, ordered by
// kind then label.
func (s *Service) KindRankDistribution(rankID string) []KindLabelCount {
	snap := s.store.Snapshot()
	type key struct {
		kind  string
		label string
	}
	counts := make(map[key]int)
	for _, e := range snap.Entities() {
		for _, r := range snap.Ranks(e.ID()) {
			if r.RankID != rankID {
				continue
			}
			label := r.Label
			if label == "" {
				label = "Unranked"
			}
			counts[key{kind: string(e.Kind), label: label}]++
		}
	}
	out := make([]KindLabelCount, 0, len(counts))
	for k, count := range counts {
		out = append(out, KindLabelCount{Kind: k.kind, Label: k.label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		ri, oki := labelRank[out[i].Label]
		rj, okj := labelRank[out[j].Label]
		if !oki {
			ri = 8
		}
		if !okj {
			rj = 8
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// DashboardSummary is the aggregate view for the landing dashboard.
type DashboardSummary struct {
	TotalEntities  int            `json:"total_entities"`
	ScoredEntities int            `json:"scored_entities"`
	AvgScore       float64        `json:"avg_score"`
	KindCounts     map[string]int `json:"kind_counts"`
	Scorecards     int            `json:"scorecards"`
	BuildID        string         `json:"build_id"`
}

// Dashboard summarizes scoring coverage. The average excludes N/A values;
// kind counts only cover scored entities.
func (s *Service) Dashboard() DashboardSummary {
	snap := s.store.Snapshot()
	summary := DashboardSummary{
		TotalEntities: len(snap.Entities()),
		KindCounts:    make(map[string]int),
		Scorecards:    len(snap.Scorecards()),
		BuildID:       snap.BuildID(),
	}

	sum := 0.0
	count := 0
	for _, e := range snap.Entities() {
		scores := snap.Scores(e.ID())
		if len(scores) == 0 {
			continue
		}
		summary.ScoredEntities++
		summary.KindCounts[string(e.Kind)]++
		for _, sc := range scores {
			if sc.Value == catalog.ScoreNA {
				continue
			}
			sum += sc.Value
			count++
		}
	}
	if count > 0 {
		summary.AvgScore = sum / float64(count)
	}
	return summary
}
