package query

import (
	"sort"
	"time"

	"catalogd/pkg/catalog"
)

// TrendPoint is one daily bucket of a score trend.
type TrendPoint struct {
	Date        string  `json:"date"`
	UpdateCount int     `json:"update_count"`
	AvgValue    float64 `json:"avg_value"`
}

// ScoreTrends buckets score history by day over the trailing window,
// oldest day first. N/A values count as updates but are excluded from the
// daily average.
func (s *Service) ScoreTrends(days int) []TrendPoint {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	type acc struct {
		sum   float64
		valid int
		count int
	}
	buckets := make(map[string]*acc)
	for _, entry := range s.store.Snapshot().ScoreHistory() {
		if entry.RecordedAt.Before(cutoff) {
			continue
		}
		day := entry.RecordedAt.UTC().Format("2006-01-02")
		a, ok := buckets[day]
		if !ok {
			a = &acc{}
			buckets[day] = a
		}
		a.count++
		if entry.Value != catalog.ScoreNA {
			a.sum += entry.Value
			a.valid++
		}
	}

	out := make([]TrendPoint, 0, len(buckets))
	for day, a := range buckets {
		point := TrendPoint{Date: day, UpdateCount: a.count}
		if a.valid > 0 {
			point.AvgValue = a.sum / float64(a.valid)
		}
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// EntityScoreHistory returns an entity's recorded score observations for
// one score, oldest first.
func (s *Service) EntityScoreHistory(entityID, scoreID string) []catalog.ScoreHistoryEntry {
	var out []catalog.ScoreHistoryEntry
	for _, entry := range s.store.Snapshot().ScoreHistory() {
		if entry.EntityID != entityID {
			continue
		}
		if scoreID != "" && entry.ScoreID != scoreID {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out
}

// EntityRankHistory returns an entity's recorded rank computations for one
// rank, oldest first.
func (s *Service) EntityRankHistory(entityID, rankID string) []catalog.RankHistoryEntry {
	var out []catalog.RankHistoryEntry
	for _, entry := range s.store.Snapshot().RankHistory() {
		if entry.EntityID != entityID {
			continue
		}
		if rankID != "" && entry.RankID != rankID {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out
}
