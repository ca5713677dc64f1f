package catalog

import "sort"

// ScorecardStatus is the lifecycle state of a scorecard.
type ScorecardStatus string

const (
	ScorecardDraft    ScorecardStatus = "draft"
	ScorecardActive   ScorecardStatus = "active"
	ScorecardArchived ScorecardStatus = "archived"
)

// ScoreLevel is a discrete input option for a score.
type ScoreLevel struct {
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// ScoreDefinition declares a score type within a scorecard.
type ScoreDefinition struct {
	ID          string       `json:"id" validate:"required"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	TargetKinds []string     `json:"target_kinds,omitempty"`
	MinValue    float64      `json:"min_value"`
	MaxValue    float64      `json:"max_value"`
	ScorecardID string       `json:"scorecard_id,omitempty"`
	Levels      []ScoreLevel `json:"levels,omitempty"`
}

// RankThreshold maps a minimum value (inclusive) to a label.
type RankThreshold struct {
	Min   float64 `json:"min"`
	Label string  `json:"label"`
}

// RankRule is one step of a conditional rank. Rules are evaluated in order;
// the first rule whose condition is truthy (or absent) supplies the value.
type RankRule struct {
	Condition   string `json:"condition,omitempty"`
	Formula     string `json:"formula" validate:"required"`
	Description string `json:"description,omitempty"`
}

// RankMode selects how a rank definition computes its result.
type RankMode string

const (
	RankModeFormula       RankMode = "formula"
	RankModeRules         RankMode = "rules"
	RankModeLabelFunction RankMode = "label_function"
)

// RankDefinition declares a derived rank within a scorecard. Exactly one of
// Formula, Rules, or LabelFunction is active; precedence is label function,
// then rules, then formula.
type RankDefinition struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	ScorecardID   string          `json:"scorecard_id,omitempty"`
	TargetKinds   []string        `json:"target_kinds,omitempty"`
	ScoreRefs     []string        `json:"score_refs,omitempty"`
	Formula       string          `json:"formula,omitempty"`
	Rules         []RankRule      `json:"rules,omitempty"`
	LabelFunction string          `json:"label_function,omitempty"`
	EntityRefs    []string        `json:"entity_refs,omitempty"`
	Thresholds    []RankThreshold `json:"thresholds,omitempty"`
}

// Mode returns the active computation mode.
func (d RankDefinition) Mode() RankMode {
	switch {
	case d.LabelFunction != "":
		return RankModeLabelFunction
	case len(d.Rules) > 0:
		return RankModeRules
	default:
		return RankModeFormula
	}
}

// Label maps a rank value onto a threshold label. Thresholds are checked
// highest minimum first; the first whose minimum is <= value wins, else the
// lowest threshold's label, else "".
func (d RankDefinition) Label(value float64) string {
	if len(d.Thresholds) == 0 {
		return ""
	}
	sorted := make([]RankThreshold, len(d.Thresholds))
	copy(sorted, d.Thresholds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min > sorted[j].Min
	})
	for _, t := range sorted {
		if value >= t.Min {
			return t.Label
		}
	}
	return sorted[len(sorted)-1].Label
}

// AppliesTo reports whether the rank targets the given entity kind. An
// empty target list matches every kind.
func (d RankDefinition) AppliesTo(kind Kind) bool {
	if len(d.TargetKinds) == 0 {
		return true
	}
	for _, k := range d.TargetKinds {
		if KindFromString(k) == kind {
			return true
		}
	}
	return false
}

// ScorecardDefinition is a named, independently reloadable set of score and
// rank definitions.
type ScorecardDefinition struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name" validate:"required"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      ScorecardStatus   `json:"status,omitempty"`
	Scores      []ScoreDefinition `json:"scores,omitempty"`
	Ranks       []RankDefinition  `json:"ranks,omitempty"`
}

// EffectiveID returns the explicit id, defaulting to the declared name.
func (s ScorecardDefinition) EffectiveID() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name
}
