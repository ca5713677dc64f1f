package store

import (
	"sort"
	"strings"

	"catalogd/pkg/catalog"
)

const (
	// defaultTraversalDepth bounds transitive walks.
	defaultTraversalDepth = 10
	// maxCyclePathNodes bounds cycle search paths, endpoint included.
	maxCyclePathNodes = 20
)

// defaultGraphRelations is the edge set used for graph projections when the
// caller does not name one.
var defaultGraphRelations = []catalog.RelationType{
	catalog.RelationDependsOn,
	catalog.RelationProvidesAPI,
	catalog.RelationConsumesAPI,
}

// DependencyNode is one hop of a transitive traversal. Depth is the minimum
// number of edges from the origin.
type DependencyNode struct {
	EntityID string `json:"entity_id"`
	Depth    int    `json:"depth"`
}

// Dependencies returns the direct targets of an entity's edges of the given
// type, in lexicographic order. Unknown entities yield an empty result.
func (s *Snapshot) Dependencies(entityID string, relType catalog.RelationType) []string {
	var out []string
	for _, r := range s.bySource[entityID] {
		if r.Type == relType {
			out = append(out, r.TargetID)
		}
	}
	sort.Strings(out)
	return out
}

// Dependents returns the entities pointing at the given one with the given
// edge type, in lexicographic order.
func (s *Snapshot) Dependents(entityID string, relType catalog.RelationType) []string {
	var out []string
	for _, r := range s.byTarget[entityID] {
		if r.Type == relType {
			out = append(out, r.SourceID)
		}
	}
	sort.Strings(out)
	return out
}

// TransitiveDependencies walks outgoing edges of the given type up to
// maxDepth hops (0 means the default of 10). Each reachable entity appears
// once at its minimum depth; results are ordered by depth, then ID.
func (s *Snapshot) TransitiveDependencies(entityID string, relType catalog.RelationType, maxDepth int) []DependencyNode {
	return s.traverse(entityID, relType, maxDepth, func(id string) []catalog.Relation {
		return s.bySource[id]
	}, func(r catalog.Relation) string {
		return r.TargetID
	})
}

// TransitiveDependents walks incoming edges of the given type, mirroring
// TransitiveDependencies.
func (s *Snapshot) TransitiveDependents(entityID string, relType catalog.RelationType, maxDepth int) []DependencyNode {
	return s.traverse(entityID, relType, maxDepth, func(id string) []catalog.Relation {
		return s.byTarget[id]
	}, func(r catalog.Relation) string {
		return r.SourceID
	})
}

func (s *Snapshot) traverse(
	origin string,
	relType catalog.RelationType,
	maxDepth int,
	edges func(string) []catalog.Relation,
	next func(catalog.Relation) string,
) []DependencyNode {
	if maxDepth <= 0 {
		maxDepth = defaultTraversalDepth
	}

	depths := make(map[string]int)
	frontier := []string{origin}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var nextFrontier []string
		for _, id := range frontier {
			for _, r := range edges(id) {
				if r.Type != relType {
					continue
				}
				n := next(r)
				if _, seen := depths[n]; seen {
					continue
				}
				depths[n] = depth
				nextFrontier = append(nextFrontier, n)
			}
		}
		frontier = nextFrontier
	}

	out := make([]DependencyNode, 0, len(depths))
	for id, depth := range depths {
		out = append(out, DependencyNode{EntityID: id, Depth: depth})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// DetectCycles finds every elementary cycle over edges of the given type.
// Each cycle is reported once, rotated so its lexicographically smallest
// node comes first, with the start node repeated at the end. Results are
// ordered by length, then path. Search paths are capped at 20 nodes.
func (s *Snapshot) DetectCycles(relType catalog.RelationType) [][]string {
	adj := make(map[string][]string)
	nodeSet := make(map[string]struct{})
	for _, r := range s.relations {
		if r.Type != relType {
			continue
		}
		adj[r.SourceID] = append(adj[r.SourceID], r.TargetID)
		nodeSet[r.SourceID] = struct{}{}
		nodeSet[r.TargetID] = struct{}{}
	}
	// Parallel edges collapse here so a cycle is found once per distinct
	// neighbor, not once per duplicate edge.
	for id, targets := range adj {
		sort.Strings(targets)
		uniq := targets[:0]
		var prev string
		for i, t := range targets {
			if i > 0 && t == prev {
				continue
			}
			uniq = append(uniq, t)
			prev = t
		}
		adj[id] = uniq
	}
	nodes := make([]string, 0, len(nodeSet))
	for id := range nodeSet {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	var cycles [][]string
	var path []string
	onPath := make(map[string]bool)

	// Only cycles whose smallest node is the start are recorded, so each
	// cycle surfaces exactly once in canonical rotation.
	var dfs func(start, cur string)
	dfs = func(start, cur string) {
		if len(path) >= maxCyclePathNodes {
			return
		}
		for _, n := range adj[cur] {
			if n == start {
				cycle := make([]string, 0, len(path)+1)
				cycle = append(cycle, path...)
				cycle = append(cycle, start)
				cycles = append(cycles, cycle)
				continue
			}
			if n < start || onPath[n] {
				continue
			}
			onPath[n] = true
			path = append(path, n)
			dfs(start, n)
			path = path[:len(path)-1]
			delete(onPath, n)
		}
	}

	for _, start := range nodes {
		path = append(path[:0], start)
		onPath = map[string]bool{start: true}
		dfs(start, start)
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i]) != len(cycles[j]) {
			return len(cycles[i]) < len(cycles[j])
		}
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// Impact summarizes who is affected when an entity changes.
type Impact struct {
	EntityID             string   `json:"entity_id"`
	DirectDependents     []string `json:"direct_dependents"`
	DirectCount          int      `json:"direct_count"`
	TransitiveDependents []string `json:"transitive_dependents"`
	TransitiveCount      int      `json:"transitive_count"`
	ImpactDepth          int      `json:"impact_depth"`
}

// ImpactAnalysis reports the direct and transitive dependents of an entity
// over edges of the given type.
func (s *Snapshot) ImpactAnalysis(entityID string, relType catalog.RelationType) Impact {
	direct := s.Dependents(entityID, relType)
	all := s.TransitiveDependents(entityID, relType, 0)

	transitive := make([]string, 0, len(all))
	depth := 0
	for _, n := range all {
		transitive = append(transitive, n.EntityID)
		if n.Depth > depth {
			depth = n.Depth
		}
	}
	return Impact{
		EntityID:             entityID,
		DirectDependents:     direct,
		DirectCount:          len(direct),
		TransitiveDependents: transitive,
		TransitiveCount:      len(all),
		ImpactDepth:          depth,
	}
}

// GraphNode is one vertex of a graph projection.
type GraphNode struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// GraphEdge is one edge of a graph projection.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// GraphView is a projection of the catalog for visualization.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// DependencyGraph projects the catalog onto the given relation types and
// entity kinds. Nil relation types default to dependsOn, providesApi and
// consumesApi; nil kinds include everything. Edges between excluded nodes
// are dropped.
func (s *Snapshot) DependencyGraph(relTypes []catalog.RelationType, kinds []catalog.Kind) GraphView {
	return s.project(relTypes, kinds, nil)
}

// ReachableGraph projects the subgraph reachable from a center entity in
// either direction, up to maxDepth hops (0 means unlimited).
func (s *Snapshot) ReachableGraph(centerID string, maxDepth int, relTypes []catalog.RelationType, kinds []catalog.Kind) GraphView {
	if len(relTypes) == 0 {
		relTypes = defaultGraphRelations
	}
	if maxDepth <= 0 {
		maxDepth = 100
	}

	reachable := map[string]struct{}{centerID: {}}
	for _, rt := range relTypes {
		for _, n := range s.TransitiveDependencies(centerID, rt, maxDepth) {
			reachable[n.EntityID] = struct{}{}
		}
		for _, n := range s.TransitiveDependents(centerID, rt, maxDepth) {
			reachable[n.EntityID] = struct{}{}
		}
	}
	return s.project(relTypes, kinds, reachable)
}

func (s *Snapshot) project(relTypes []catalog.RelationType, kinds []catalog.Kind, within map[string]struct{}) GraphView {
	if len(relTypes) == 0 {
		relTypes = defaultGraphRelations
	}
	typeSet := make(map[catalog.RelationType]struct{}, len(relTypes))
	for _, rt := range relTypes {
		typeSet[rt] = struct{}{}
	}
	var kindSet map[catalog.Kind]struct{}
	if len(kinds) > 0 {
		kindSet = make(map[catalog.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			kindSet[k] = struct{}{}
		}
	}

	view := GraphView{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	nodeIDs := make(map[string]struct{})
	for _, e := range s.entities {
		if kindSet != nil {
			if _, ok := kindSet[e.Kind]; !ok {
				continue
			}
		}
		id := e.ID()
		if within != nil {
			if _, ok := within[id]; !ok {
				continue
			}
		}
		nodeIDs[id] = struct{}{}
		view.Nodes = append(view.Nodes, GraphNode{
			ID:    id,
			Kind:  string(e.Kind),
			Name:  e.Metadata.Name,
			Title: e.Metadata.Title,
		})
	}
	for _, r := range s.relations {
		if _, ok := typeSet[r.Type]; !ok {
			continue
		}
		if _, ok := nodeIDs[r.SourceID]; !ok {
			continue
		}
		if _, ok := nodeIDs[r.TargetID]; !ok {
			continue
		}
		view.Edges = append(view.Edges, GraphEdge{
			Source: r.SourceID,
			Target: r.TargetID,
			Type:   string(r.Type),
		})
	}
	return view
}
