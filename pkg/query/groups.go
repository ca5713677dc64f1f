package query

import (
	"sort"

	"catalogd/pkg/catalog"
	"catalogd/pkg/store"
)

const maxHierarchyDepth = 10

// GroupInfo is the slim group view used by hierarchy listings.
type GroupInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// GroupNode is a group with its resolved children, for the hierarchy tree.
type GroupNode struct {
	GroupInfo
	Children []GroupNode `json:"children"`
}

func groupInfo(e catalog.Entity) GroupInfo {
	return GroupInfo{
		ID:          e.ID(),
		Name:        e.Metadata.Name,
		Title:       e.Metadata.Title,
		Description: e.Metadata.Description,
		Type:        e.Spec.Attributes().Type,
	}
}

// RootGroups lists groups with no parent, ordered by name.
func (s *Service) RootGroups() []GroupInfo {
	snap := s.store.Snapshot()
	var out []GroupInfo
	for _, e := range snap.EntitiesByKind(catalog.KindGroup) {
		if !hasParent(snap, e.ID()) {
			out = append(out, groupInfo(e))
		}
	}
	sortGroups(out)
	return out
}

func hasParent(snap *store.Snapshot, groupID string) bool {
	for _, r := range snap.RelationsFrom(groupID) {
		if r.Type == catalog.RelationChildOf {
			return true
		}
	}
	return false
}

// ChildGroups lists the direct children of a group, ordered by name.
func (s *Service) ChildGroups(groupID string) []GroupInfo {
	return childGroups(s.store.Snapshot(), groupID)
}

func childGroups(snap *store.Snapshot, groupID string) []GroupInfo {
	var out []GroupInfo
	for _, r := range snap.RelationsTo(groupID) {
		if r.Type != catalog.RelationChildOf {
			continue
		}
		if e, ok := snap.Entity(r.SourceID); ok {
			out = append(out, groupInfo(e))
		}
	}
	sortGroups(out)
	return out
}

// GroupDescendant is a descendant group with its hierarchy depth.
type GroupDescendant struct {
	GroupInfo
	Depth int `json:"depth"`
}

// Descendants walks the group hierarchy downward up to maxHierarchyDepth,
// each group at its minimum depth, ordered by depth then name.
func (s *Service) Descendants(groupID string) []GroupDescendant {
	snap := s.store.Snapshot()
	nodes := snap.TransitiveDependents(groupID, catalog.RelationChildOf, maxHierarchyDepth)
	var out []GroupDescendant
	for _, n := range nodes {
		e, ok := snap.Entity(n.EntityID)
		if !ok {
			continue
		}
		out = append(out, GroupDescendant{GroupInfo: groupInfo(e), Depth: n.Depth})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// groupAndDescendantIDs returns the group plus every descendant group ID.
func (s *Service) groupAndDescendantIDs(snap *store.Snapshot, groupID string, includeDescendants bool) []string {
	ids := []string{groupID}
	if !includeDescendants {
		return ids
	}
	for _, n := range snap.TransitiveDependents(groupID, catalog.RelationChildOf, maxHierarchyDepth) {
		ids = append(ids, n.EntityID)
	}
	return ids
}

// OwnedEntities lists the non-group entities owned by a group, optionally
// including everything owned by its descendant groups.
func (s *Service) OwnedEntities(groupID string, includeDescendants bool) []EntitySummary {
	snap := s.store.Snapshot()
	var out []EntitySummary
	for _, id := range s.groupAndDescendantIDs(snap, groupID, includeDescendants) {
		for _, r := range snap.RelationsTo(id) {
			if r.Type != catalog.RelationOwnedBy {
				continue
			}
			e, ok := snap.Entity(r.SourceID)
			if !ok || e.Kind == catalog.KindGroup {
				continue
			}
			out = append(out, summarize(e))
		}
	}
	sortByKindAndName(out)
	return out
}

// EntityCounts counts a group's owned entities by kind.
func (s *Service) EntityCounts(groupID string, includeDescendants bool) map[string]int {
	counts := make(map[string]int)
	for _, e := range s.OwnedEntities(groupID, includeDescendants) {
		counts[e.Kind]++
	}
	return counts
}

// ScoreAggregate is a per-score rollup over a set of entities. N/A scores
// are excluded from every figure.
type ScoreAggregate struct {
	ScoreID string  `json:"score_id"`
	Name    string  `json:"name"`
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
}

// ScoreAggregation rolls up scores across a group's owned entities,
// ordered by score name.
func (s *Service) ScoreAggregation(groupID string, includeDescendants bool) []ScoreAggregate {
	snap := s.store.Snapshot()
	owned := s.OwnedEntities(groupID, includeDescendants)

	var all []catalog.EntityScore
	for _, e := range owned {
		all = append(all, snap.Scores(e.ID)...)
	}
	return aggregateScores(snap, all)
}

func aggregateScores(snap *store.Snapshot, scores []catalog.EntityScore) []ScoreAggregate {
	type acc struct {
		sum   float64
		min   float64
		max   float64
		count int
	}
	accs := make(map[string]*acc)
	for _, sc := range scores {
		if sc.Value == catalog.ScoreNA {
			continue
		}
		a, ok := accs[sc.ScoreID]
		if !ok {
			a = &acc{min: sc.Value, max: sc.Value}
			accs[sc.ScoreID] = a
		}
		a.sum += sc.Value
		if sc.Value < a.min {
			a.min = sc.Value
		}
		if sc.Value > a.max {
			a.max = sc.Value
		}
		a.count++
	}

	out := make([]ScoreAggregate, 0, len(accs))
	for scoreID, a := range accs {
		name := scoreID
		if def, ok := snap.ScoreDefinition(scoreID); ok && def.Name != "" {
			name = def.Name
		}
		out = append(out, ScoreAggregate{
			ScoreID: scoreID,
			Name:    name,
			Avg:     a.sum / float64(a.count),
			Min:     a.min,
			Max:     a.max,
			Count:   a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ScoreID < out[j].ScoreID
	})
	return out
}

// GroupRankDistribution counts rank labels across a group's owned entities,
// in S-to-F label order.
func (s *Service) GroupRankDistribution(groupID, rankID string, includeDescendants bool) []LabelCount {
	snap := s.store.Snapshot()
	counts := make(map[string]int)
	for _, e := range s.OwnedEntities(groupID, includeDescendants) {
		for _, r := range snap.Ranks(e.ID) {
			if r.RankID == rankID {
				counts[r.Label]++
			}
		}
	}
	return labelCounts(counts)
}

// GroupAverageRank averages a rank's value across a group's owned entities.
// The second return is false when no entity carries the rank.
type RankAverage struct {
	AvgValue    float64 `json:"avg_value"`
	EntityCount int     `json:"entity_count"`
}

func (s *Service) GroupAverageRank(groupID, rankID string, includeDescendants bool) (RankAverage, bool) {
	snap := s.store.Snapshot()
	sum := 0.0
	count := 0
	for _, e := range s.OwnedEntities(groupID, includeDescendants) {
		for _, r := range snap.Ranks(e.ID) {
			if r.RankID == rankID {
				sum += r.Value
				count++
			}
		}
	}
	if count == 0 {
		return RankAverage{}, false
	}
	return RankAverage{AvgValue: sum / float64(count), EntityCount: count}, true
}

// GroupComparison is one group's rollup in a side-by-side comparison.
type GroupComparison struct {
	GroupInfo
	EntityCount        int              `json:"entity_count"`
	EntityCountsByKind map[string]int   `json:"entity_counts_by_kind"`
	ScoreAggregations  []ScoreAggregate `json:"score_aggregations"`
}

// CompareGroups rolls up several groups for comparison. Unknown group IDs
// are skipped.
func (s *Service) CompareGroups(groupIDs []string, includeDescendants bool) []GroupComparison {
	snap := s.store.Snapshot()
	var out []GroupComparison
	for _, id := range groupIDs {
		e, ok := snap.Entity(id)
		if !ok {
			continue
		}
		counts := s.EntityCounts(id, includeDescendants)
		total := 0
		for _, c := range counts {
			total += c
		}
		out = append(out, GroupComparison{
			GroupInfo:          groupInfo(e),
			EntityCount:        total,
			EntityCountsByKind: counts,
			ScoreAggregations:  s.ScoreAggregation(id, includeDescendants),
		})
	}
	return out
}

// HierarchyTree builds the nested group tree. With an empty rootID every
// root group becomes a top-level node.
func (s *Service) HierarchyTree(rootID string) []GroupNode {
	snap := s.store.Snapshot()
	if rootID != "" {
		e, ok := snap.Entity(rootID)
		if !ok || e.Kind != catalog.KindGroup {
			return []GroupNode{}
		}
		return []GroupNode{{
			GroupInfo: groupInfo(e),
			Children:  s.childTree(snap, rootID, 1),
		}}
	}
	roots := s.RootGroups()
	out := make([]GroupNode, 0, len(roots))
	for _, root := range roots {
		out = append(out, GroupNode{
			GroupInfo: root,
			Children:  s.childTree(snap, root.ID, 1),
		})
	}
	return out
}

func (s *Service) childTree(snap *store.Snapshot, groupID string, depth int) []GroupNode {
	if depth >= maxHierarchyDepth {
		return []GroupNode{}
	}
	children := childGroups(snap, groupID)
	out := make([]GroupNode, 0, len(children))
	for _, child := range children {
		out = append(out, GroupNode{
			GroupInfo: child,
			Children:  s.childTree(snap, child.ID, depth+1),
		})
	}
	return out
}

func sortGroups(out []GroupInfo) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
}
