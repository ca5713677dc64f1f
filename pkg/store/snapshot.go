// Package store holds the in-memory catalog state. Ingestion builds a fresh
// immutable Snapshot and swaps it in atomically; readers always see a
// complete, consistent catalog and are never blocked by a rebuild.
package store

import (
	"time"

	"catalogd/pkg/catalog"
)

// SnapshotData is the raw material a build pass hands to NewSnapshot.
type SnapshotData struct {
	BuildID      string
	Entities     []catalog.Entity
	Relations    []catalog.Relation
	Scores       []catalog.EntityScore
	Ranks        []catalog.RankResult
	Scorecards   []catalog.ScorecardDefinition
	ScoreHistory []catalog.ScoreHistoryEntry
	RankHistory  []catalog.RankHistoryEntry
}

// Snapshot is one immutable catalog state. All accessors are safe for
// concurrent use; none of them mutate.
type Snapshot struct {
	buildID string
	builtAt time.Time

	entities   []catalog.Entity
	entityByID map[string]int

	relations []catalog.Relation
	bySource  map[string][]catalog.Relation
	byTarget  map[string][]catalog.Relation

	scores       map[string][]catalog.EntityScore
	ranks        map[string][]catalog.RankResult
	scorecards   []catalog.ScorecardDefinition
	scorecardIdx map[string]int
	scoreDefs    map[string]catalog.ScoreDefinition
	rankDefs     map[string]catalog.RankDefinition

	scoreHistory []catalog.ScoreHistoryEntry
	rankHistory  []catalog.RankHistoryEntry
}

// NewSnapshot indexes the build output into a queryable snapshot. Entity
// order is preserved; the last entity wins on a duplicate ID.
func NewSnapshot(data SnapshotData) *Snapshot {
	s := &Snapshot{
		buildID:      data.BuildID,
		builtAt:      time.Now().UTC(),
		entities:     data.Entities,
		entityByID:   make(map[string]int, len(data.Entities)),
		relations:    data.Relations,
		bySource:     make(map[string][]catalog.Relation),
		byTarget:     make(map[string][]catalog.Relation),
		scores:       make(map[string][]catalog.EntityScore),
		ranks:        make(map[string][]catalog.RankResult),
		scorecards:   data.Scorecards,
		scorecardIdx: make(map[string]int, len(data.Scorecards)),
		scoreDefs:    make(map[string]catalog.ScoreDefinition),
		rankDefs:     make(map[string]catalog.RankDefinition),
		scoreHistory: data.ScoreHistory,
		rankHistory:  data.RankHistory,
	}

	for i, e := range data.Entities {
		s.entityByID[e.ID()] = i
	}
	for _, r := range data.Relations {
		s.bySource[r.SourceID] = append(s.bySource[r.SourceID], r)
		s.byTarget[r.TargetID] = append(s.byTarget[r.TargetID], r)
	}
	for _, sc := range data.Scores {
		s.scores[sc.EntityID] = append(s.scores[sc.EntityID], sc)
	}
	for _, r := range data.Ranks {
		s.ranks[r.EntityID] = append(s.ranks[r.EntityID], r)
	}
	for i, card := range data.Scorecards {
		s.scorecardIdx[card.EffectiveID()] = i
		for _, def := range card.Scores {
			s.scoreDefs[def.ID] = def
		}
		for _, def := range card.Ranks {
			s.rankDefs[def.ID] = def
		}
	}
	return s
}

// BuildID returns the ingestion pass identifier this snapshot came from.
func (s *Snapshot) BuildID() string {
	return s.buildID
}

// BuiltAt returns when the snapshot was assembled.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Entities returns all entities in ingestion order. Callers must not modify
// the returned slice.
func (s *Snapshot) Entities() []catalog.Entity {
	return s.entities
}

// Entity looks up one entity by its canonical ID.
func (s *Snapshot) Entity(id string) (catalog.Entity, bool) {
	idx, ok := s.entityByID[id]
	if !ok {
		return catalog.Entity{}, false
	}
	return s.entities[idx], true
}

// EntitiesByKind returns entities of the given kind in ingestion order.
func (s *Snapshot) EntitiesByKind(kind catalog.Kind) []catalog.Entity {
	var out []catalog.Entity
	for _, e := range s.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Relations returns every edge in extraction order.
func (s *Snapshot) Relations() []catalog.Relation {
	return s.relations
}

// RelationsFrom returns the outgoing edges of an entity.
func (s *Snapshot) RelationsFrom(id string) []catalog.Relation {
	return s.bySource[id]
}

// RelationsTo returns the incoming edges of an entity.
func (s *Snapshot) RelationsTo(id string) []catalog.Relation {
	return s.byTarget[id]
}

// Scores returns the computed scores of an entity, or nil if it has none.
func (s *Snapshot) Scores(entityID string) []catalog.EntityScore {
	return s.scores[entityID]
}

// Score looks up a single score of an entity.
func (s *Snapshot) Score(entityID, scoreID string) (catalog.EntityScore, bool) {
	for _, sc := range s.scores[entityID] {
		if sc.ScoreID == scoreID {
			return sc, true
		}
	}
	return catalog.EntityScore{}, false
}

// Ranks returns the computed ranks of an entity, or nil if it has none.
func (s *Snapshot) Ranks(entityID string) []catalog.RankResult {
	return s.ranks[entityID]
}

// Rank looks up a single rank of an entity.
func (s *Snapshot) Rank(entityID, rankID string) (catalog.RankResult, bool) {
	for _, r := range s.ranks[entityID] {
		if r.RankID == rankID {
			return r, true
		}
	}
	return catalog.RankResult{}, false
}

// Scorecards returns the registered scorecard definitions in load order.
func (s *Snapshot) Scorecards() []catalog.ScorecardDefinition {
	return s.scorecards
}

// Scorecard looks up a scorecard by its effective ID.
func (s *Snapshot) Scorecard(id string) (catalog.ScorecardDefinition, bool) {
	idx, ok := s.scorecardIdx[id]
	if !ok {
		return catalog.ScorecardDefinition{}, false
	}
	return s.scorecards[idx], true
}

// ScoreDefinition resolves a score ID across all scorecards.
func (s *Snapshot) ScoreDefinition(scoreID string) (catalog.ScoreDefinition, bool) {
	def, ok := s.scoreDefs[scoreID]
	return def, ok
}

// RankDefinition resolves a rank ID across all scorecards.
func (s *Snapshot) RankDefinition(rankID string) (catalog.RankDefinition, bool) {
	def, ok := s.rankDefs[rankID]
	return def, ok
}

// ScoreHistory returns the recorded score history, oldest first.
func (s *Snapshot) ScoreHistory() []catalog.ScoreHistoryEntry {
	return s.scoreHistory
}

// RankHistory returns the recorded rank history, oldest first.
func (s *Snapshot) RankHistory() []catalog.RankHistoryEntry {
	return s.rankHistory
}

// Stats summarizes a snapshot for the stats endpoint.
type Stats struct {
	BuildID       string         `json:"build_id"`
	BuiltAt       time.Time      `json:"built_at"`
	EntityCount   int            `json:"entity_count"`
	RelationCount int            `json:"relation_count"`
	ScoreCount    int            `json:"score_count"`
	RankCount     int            `json:"rank_count"`
	Scorecards    int            `json:"scorecards"`
	ByKind        map[string]int `json:"by_kind"`
	ByRelation    map[string]int `json:"by_relation"`
}

// Stats counts the snapshot's contents.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		BuildID:       s.buildID,
		BuiltAt:       s.builtAt,
		EntityCount:   len(s.entities),
		RelationCount: len(s.relations),
		Scorecards:    len(s.scorecards),
		ByKind:        make(map[string]int),
		ByRelation:    make(map[string]int),
	}
	for _, e := range s.entities {
		st.ByKind[string(e.Kind)]++
	}
	for _, r := range s.relations {
		st.ByRelation[string(r.Type)]++
	}
	for _, scores := range s.scores {
		st.ScoreCount += len(scores)
	}
	for _, ranks := range s.ranks {
		st.RankCount += len(ranks)
	}
	return st
}
