// Package catalog defines the records the engine consumes and the derived
// records it exposes: entities, relations, scorecard definitions, score and
// rank values, and history entries.
package catalog

// Catalog is the full set of parsed records handed over by collaborators
// for one ingestion pass.
type Catalog struct {
	Entities     []Entity              `json:"entities"`
	Scorecards   []ScorecardDefinition `json:"scorecards,omitempty"`
	ScoreHistory []ScoreHistoryEntry   `json:"score_history,omitempty"`
	RankHistory  []RankHistoryEntry    `json:"rank_history,omitempty"`
}

// RankResult is a derived rank row, fully recomputed on every ingestion
// pass and never hand-entered.
type RankResult struct {
	EntityID    string  `json:"entity_id"`
	RankID      string  `json:"rank_id"`
	Value       float64 `json:"value"`
	Label       string  `json:"label"`
	ScorecardID string  `json:"scorecard_id"`
}

// EntityScore is a persisted score row with its resolved scorecard.
type EntityScore struct {
	EntityID    string  `json:"entity_id"`
	ScoreID     string  `json:"score_id"`
	Value       float64 `json:"value"`
	Reason      string  `json:"reason,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
	ScorecardID string  `json:"scorecard_id,omitempty"`
}
