package catalog

// ScoreNA is the reserved sentinel for "not applicable". N/A scores stay in
// raw listings but are excluded from aggregates.
const ScoreNA = -1.0

// ScoreValue is a numeric fact attached to an entity.
type ScoreValue struct {
	ScoreID     string  `json:"score_id" validate:"required"`
	Value       float64 `json:"value"`
	Reason      string  `json:"reason,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
	ScorecardID string  `json:"scorecard_id,omitempty"`
}

// IsNA reports whether the value is the N/A sentinel.
func (s ScoreValue) IsNA() bool {
	return s.Value == ScoreNA
}
