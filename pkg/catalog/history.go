package catalog

import "time"

// ScoreHistoryEntry is one recorded score observation, supplied by the
// collaborator that tracks history alongside the catalog.
type ScoreHistoryEntry struct {
	EntityID   string    `json:"entity_id" validate:"required"`
	ScoreID    string    `json:"score_id" validate:"required"`
	Value      float64   `json:"value"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RankHistoryEntry is one recorded rank computation.
type RankHistoryEntry struct {
	EntityID   string    `json:"entity_id" validate:"required"`
	RankID     string    `json:"rank_id" validate:"required"`
	Value      float64   `json:"value"`
	Label      string    `json:"label,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
