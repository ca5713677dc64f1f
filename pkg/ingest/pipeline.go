// Package ingest rebuilds the catalog from its source. Every pass is a full
// rebuild: entities are re-read, relations re-extracted and all scores and
// ranks recomputed into a fresh snapshot that replaces the previous one in a
// single swap. Readers keep whatever snapshot they already hold.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"catalogd/pkg/catalog"
	"catalogd/pkg/formula"
	"catalogd/pkg/logger"
	"catalogd/pkg/rank"
	"catalogd/pkg/relation"
	"catalogd/pkg/store"
)

const defaultParallelRanks = 4

// Pipeline drives catalog rebuilds. It owns the compiled evaluator cache,
// keyed by "scorecardID:rankID" so the same rank ID may recur across
// scorecards; the cache survives rebuilds and is invalidated per scorecard
// when that scorecard's definition is reloaded.
type Pipeline struct {
	store         *store.Store
	source        Source
	parallelRanks int

	mu         sync.Mutex
	evaluators map[string]rank.Evaluator
	rankDefs   map[string]catalog.RankDefinition
	scorecards []catalog.ScorecardDefinition
}

// PipelineParams configures a Pipeline.
type PipelineParams struct {
	Store  *store.Store
	Source Source
	// ParallelRanks bounds concurrent per-entity rank computation.
	// Zero means the default of 4.
	ParallelRanks int
}

// NewPipeline builds a pipeline. The store starts empty until the first
// Reload.
func NewPipeline(params PipelineParams) *Pipeline {
	parallel := params.ParallelRanks
	if parallel <= 0 {
		parallel = defaultParallelRanks
	}
	return &Pipeline{
		store:         params.Store,
		source:        params.Source,
		parallelRanks: parallel,
		evaluators:    make(map[string]rank.Evaluator),
		rankDefs:      make(map[string]catalog.RankDefinition),
	}
}

// Reload re-reads everything from the source and swaps in a fresh snapshot.
// Only one rebuild runs at a time; concurrent calls queue up.
func (p *Pipeline) Reload(ctx context.Context) (*store.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entities, err := p.source.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	cards, err := p.source.Scorecards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scorecards: %w", err)
	}
	scoreHistory, rankHistory, err := p.source.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	p.loadScorecards(cards)
	return p.rebuild(ctx, entities, scoreHistory, rankHistory)
}

// ReloadScorecards re-reads only the scorecard definitions and recomputes
// scores and ranks against the entities of the current snapshot.
func (p *Pipeline) ReloadScorecards(ctx context.Context) (*store.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cards, err := p.source.Scorecards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scorecards: %w", err)
	}
	p.loadScorecards(cards)

	current := p.store.Snapshot()
	return p.rebuild(ctx, current.Entities(), current.ScoreHistory(), current.RankHistory())
}

// loadScorecards registers definitions and precompiles their evaluators.
// Stale cache entries for each reloaded scorecard are dropped first. A rank
// whose expression does not compile is logged and left without an evaluator,
// so it simply never produces a row.
func (p *Pipeline) loadScorecards(cards []catalog.ScorecardDefinition) {
	p.scorecards = cards

	for i := range cards {
		cardID := cards[i].EffectiveID()

		prefix := cardID + ":"
		for key := range p.evaluators {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				delete(p.evaluators, key)
				delete(p.rankDefs, key)
			}
		}

		for j := range cards[i].Scores {
			cards[i].Scores[j].ScorecardID = cardID
		}
		for j := range cards[i].Ranks {
			def := cards[i].Ranks[j]
			def.ScorecardID = cardID
			cards[i].Ranks[j] = def

			key := cardID + ":" + def.ID
			p.rankDefs[key] = def
			ev, err := rank.New(def)
			if err != nil {
				logger.Warn("[Ingest] Invalid rank definition", "scorecard", cardID, "rank", def.ID, "error", err)
				continue
			}
			p.evaluators[key] = ev
		}
	}
}

// rebuild runs the build steps and publishes the result. Caller holds p.mu.
func (p *Pipeline) rebuild(
	ctx context.Context,
	entities []catalog.Entity,
	scoreHistory []catalog.ScoreHistoryEntry,
	rankHistory []catalog.RankHistoryEntry,
) (*store.Snapshot, error) {
	buildID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate build id: %w", err)
	}

	logger.Info("[Ingest] Rebuild started", "build_id", buildID, "entities", len(entities), "scorecards", len(p.scorecards))

	relations := relation.ExtractAll(entities)

	scoreToCard := make(map[string]string)
	for _, card := range p.scorecards {
		cardID := card.EffectiveID()
		for _, def := range card.Scores {
			scoreToCard[def.ID] = cardID
		}
	}

	var scores []catalog.EntityScore
	// scoresByEntity groups raw values per entity and scorecard for the
	// rank stage.
	scoresByEntity := make(map[string]map[string]map[string]float64, len(entities))
	for _, e := range entities {
		entityID := e.ID()
		byCard := make(map[string]map[string]float64)
		for _, sv := range e.Metadata.Scores {
			cardID := sv.ScorecardID
			if cardID == "" {
				cardID = scoreToCard[sv.ScoreID]
			}
			scores = append(scores, catalog.EntityScore{
				EntityID:    entityID,
				ScoreID:     sv.ScoreID,
				Value:       sv.Value,
				Reason:      sv.Reason,
				UpdatedAt:   sv.UpdatedAt,
				ScorecardID: cardID,
			})
			if cardID != "" {
				if byCard[cardID] == nil {
					byCard[cardID] = make(map[string]float64)
				}
				byCard[cardID][sv.ScoreID] = sv.Value
			}
		}
		if len(byCard) > 0 {
			scoresByEntity[entityID] = byCard
		}
	}

	ranks, err := p.computeRanks(ctx, entities, scoresByEntity)
	if err != nil {
		return nil, err
	}

	snapshot := store.NewSnapshot(store.SnapshotData{
		BuildID:      buildID,
		Entities:     entities,
		Relations:    relations,
		Scores:       scores,
		Ranks:        ranks,
		Scorecards:   p.scorecards,
		ScoreHistory: scoreHistory,
		RankHistory:  rankHistory,
	})
	p.store.Swap(snapshot)

	logger.Info("[Ingest] Rebuild completed",
		"build_id", buildID,
		"entities", len(entities),
		"relations", len(relations),
		"scores", len(scores),
		"ranks", len(ranks),
	)
	return snapshot, nil
}

// computeRanks evaluates every applicable rank per entity and scorecard.
// Entities are processed in parallel; result order is restored afterwards so
// rebuilds stay deterministic.
func (p *Pipeline) computeRanks(
	ctx context.Context,
	entities []catalog.Entity,
	scoresByEntity map[string]map[string]map[string]float64,
) ([]catalog.RankResult, error) {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallelRanks)
	mutex := sync.Mutex{}

	perEntity := make([][]catalog.RankResult, len(entities))
	for i, entity := range entities {
		i, entity := i, entity
		byCard, ok := scoresByEntity[entity.ID()]
		if !ok {
			continue
		}
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}
			results := p.rankEntity(entity, byCard)
			mutex.Lock()
			perEntity[i] = results
			mutex.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute ranks: %w", err)
	}

	var out []catalog.RankResult
	for _, results := range perEntity {
		out = append(out, results...)
	}
	return out, nil
}

// rankEntity computes the ranks of one entity for every scorecard it holds
// scores in. A rank is skipped without a row when it does not target the
// entity's kind, when any referenced score is missing, or when evaluation
// fails; one bad formula never poisons the rest of the pass.
func (p *Pipeline) rankEntity(entity catalog.Entity, byCard map[string]map[string]float64) []catalog.RankResult {
	entityID := entity.ID()
	attrs := entityAttrs(entity)

	var out []catalog.RankResult
	for _, card := range p.scorecards {
		cardID := card.EffectiveID()
		cardScores, ok := byCard[cardID]
		if !ok {
			continue
		}
		for _, def := range card.Ranks {
			if !def.AppliesTo(entity.Kind) {
				continue
			}
			if !hasAllRefs(cardScores, def.ScoreRefs) {
				continue
			}
			key := cardID + ":" + def.ID
			ev, ok := p.evaluators[key]
			if !ok {
				continue
			}
			result, err := ev.Evaluate(cardScores, attrs)
			if err != nil {
				if errors.Is(err, rank.ErrNoRuleMatched) {
					logger.Debug("[Ingest] Rank not applicable", "entity", entityID, "rank", def.ID)
					continue
				}
				if formula.IsError(err) {
					logger.Debug("[Ingest] Rank evaluation skipped", "entity", entityID, "rank", def.ID, "error", err)
					continue
				}
				logger.Warn("[Ingest] Rank evaluation failed", "entity", entityID, "rank", def.ID, "error", err)
				continue
			}
			out = append(out, catalog.RankResult{
				EntityID:    entityID,
				RankID:      def.ID,
				Value:       result.Value,
				Label:       result.Label,
				ScorecardID: cardID,
			})
		}
	}
	return out
}

func hasAllRefs(scores map[string]float64, refs []string) bool {
	for _, ref := range refs {
		if _, ok := scores[ref]; !ok {
			return false
		}
	}
	return true
}

func entityAttrs(e catalog.Entity) *formula.EntityAttrs {
	ctx := e.Context()
	return &formula.EntityAttrs{
		Kind:        ctx.Kind,
		Type:        ctx.Type,
		Lifecycle:   ctx.Lifecycle,
		Owner:       ctx.Owner,
		System:      ctx.System,
		Domain:      ctx.Domain,
		Namespace:   ctx.Namespace,
		Name:        ctx.Name,
		Title:       ctx.Title,
		Description: ctx.Description,
		Tags:        ctx.Tags,
	}
}
