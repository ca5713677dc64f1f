// Package query is the read side of the engine: entity lookup and search,
// group hierarchy rollups, leaderboards, distributions and trends, all
// answered from the current snapshot. Every call reads one snapshot, so a
// response is internally consistent even while a rebuild runs.
package query

import (
	"sort"
	"strings"

	"catalogd/pkg/catalog"
	"catalogd/pkg/store"
)

const defaultLimit = 100

// Service answers read queries against the store's current snapshot.
type Service struct {
	store *store.Store
}

// New builds a query service on top of a store.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Snapshot exposes the snapshot a caller can pin for multi-call consistency.
func (s *Service) Snapshot() *store.Snapshot {
	return s.store.Snapshot()
}

// EntitySummary is the flattened entity view returned by listings.
type EntitySummary struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Namespace   string   `json:"namespace"`
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Type        string   `json:"type,omitempty"`
	Lifecycle   string   `json:"lifecycle,omitempty"`
	System      string   `json:"system,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func summarize(e catalog.Entity) EntitySummary {
	ctx := e.Context()
	return EntitySummary{
		ID:          e.ID(),
		Kind:        ctx.Kind,
		Namespace:   ctx.Namespace,
		Name:        ctx.Name,
		Title:       ctx.Title,
		Description: ctx.Description,
		Owner:       ctx.Owner,
		Type:        ctx.Type,
		Lifecycle:   ctx.Lifecycle,
		System:      ctx.System,
		Domain:      ctx.Domain,
		Tags:        ctx.Tags,
	}
}

// SearchParams filters entity search. An empty Query matches everything.
type SearchParams struct {
	Query string
	Kind  string
	Limit int
}

// Search matches the query case-insensitively against name, title and
// description, ordered by name.
func (s *Service) Search(params SearchParams) []EntitySummary {
	snap := s.store.Snapshot()
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	needle := strings.ToLower(params.Query)
	var kind catalog.Kind
	if params.Kind != "" {
		kind = catalog.KindFromString(params.Kind)
	}

	var out []EntitySummary
	for _, e := range snap.Entities() {
		if kind != "" && e.Kind != kind {
			continue
		}
		if needle != "" && !matches(e, needle) {
			continue
		}
		out = append(out, summarize(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matches(e catalog.Entity, needle string) bool {
	return strings.Contains(strings.ToLower(e.Metadata.Name), needle) ||
		strings.Contains(strings.ToLower(e.Metadata.Title), needle) ||
		strings.Contains(strings.ToLower(e.Metadata.Description), needle)
}

// All lists entities ordered by kind, then name.
func (s *Service) All(limit int) []EntitySummary {
	snap := s.store.Snapshot()
	if limit <= 0 {
		limit = 1000
	}
	out := make([]EntitySummary, 0, len(snap.Entities()))
	for _, e := range snap.Entities() {
		out = append(out, summarize(e))
	}
	sortByKindAndName(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// EntityDetail is one entity with its scores, ranks and relations.
type EntityDetail struct {
	EntitySummary
	Scores    []catalog.EntityScore `json:"scores"`
	Ranks     []catalog.RankResult  `json:"ranks"`
	Relations []EntityRelation      `json:"relations"`
}

// EntityRelation is one edge seen from an entity's perspective.
type EntityRelation struct {
	Type      string `json:"type"`
	EntityID  string `json:"entity_id"`
	Direction string `json:"direction"`
}

// Get returns the full view of one entity by ID.
func (s *Service) Get(id string) (EntityDetail, bool) {
	snap := s.store.Snapshot()
	e, ok := snap.Entity(id)
	if !ok {
		return EntityDetail{}, false
	}
	detail := EntityDetail{
		EntitySummary: summarize(e),
		Scores:        snap.Scores(id),
		Ranks:         snap.Ranks(id),
		Relations:     []EntityRelation{},
	}
	for _, r := range snap.RelationsFrom(id) {
		detail.Relations = append(detail.Relations, EntityRelation{
			Type: string(r.Type), EntityID: r.TargetID, Direction: "outgoing",
		})
	}
	for _, r := range snap.RelationsTo(id) {
		detail.Relations = append(detail.Relations, EntityRelation{
			Type: string(r.Type), EntityID: r.SourceID, Direction: "incoming",
		})
	}
	return detail, true
}

// ByOwner lists entities owned by a group or user, ordered by kind and name.
func (s *Service) ByOwner(owner string, limit int) []EntitySummary {
	return s.filtered(limit, func(e catalog.Entity) bool {
		return e.Spec.RelationFields().Owner == owner
	})
}

// ByTag lists entities carrying a tag, ordered by kind and name.
func (s *Service) ByTag(tag string, limit int) []EntitySummary {
	return s.filtered(limit, func(e catalog.Entity) bool {
		for _, t := range e.Metadata.Tags {
			if t == tag {
				return true
			}
		}
		return false
	})
}

// ByType lists entities of a kind and spec type.
func (s *Service) ByType(kind, entityType string, limit int) []EntitySummary {
	k := catalog.KindFromString(kind)
	return s.filtered(limit, func(e catalog.Entity) bool {
		return e.Kind == k && e.Spec.Attributes().Type == entityType
	})
}

// BySystem lists entities belonging to a system, ordered by kind and name.
func (s *Service) BySystem(system string, limit int) []EntitySummary {
	return s.filtered(limit, func(e catalog.Entity) bool {
		return e.Spec.RelationFields().System == system
	})
}

func (s *Service) filtered(limit int, keep func(catalog.Entity) bool) []EntitySummary {
	snap := s.store.Snapshot()
	if limit <= 0 {
		limit = defaultLimit
	}
	var out []EntitySummary
	for _, e := range snap.Entities() {
		if keep(e) {
			out = append(out, summarize(e))
		}
	}
	sortByKindAndName(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByKindAndName(out []EntitySummary) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
}

// CountByKind counts entities per kind.
func (s *Service) CountByKind() map[string]int {
	counts := make(map[string]int)
	for _, e := range s.store.Snapshot().Entities() {
		counts[string(e.Kind)]++
	}
	return counts
}

// OwnerCount is one row of the per-owner rollup.
type OwnerCount struct {
	Owner string `json:"owner"`
	Count int    `json:"count"`
}

// CountByOwner counts entities per owner, largest first, ties by owner name.
func (s *Service) CountByOwner() []OwnerCount {
	counts := make(map[string]int)
	for _, e := range s.store.Snapshot().Entities() {
		if owner := e.Spec.RelationFields().Owner; owner != "" {
			counts[owner]++
		}
	}
	out := make([]OwnerCount, 0, len(counts))
	for owner, count := range counts {
		out = append(out, OwnerCount{Owner: owner, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Owner < out[j].Owner
	})
	return out
}
