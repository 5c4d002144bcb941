// Package selection implements the next-task selector of spec.md §4.4:
// the consistency gate, filter/actionability/readiness pipeline, and the
// fixed (priority_rank_desc, status_rank_asc, created_at_asc) ordering.
// Adapted from a DefaultTaskSelector/CycleDetector/DependencyGraph trio,
// replacing their generic pluggable-strategy scoring with the single
// fixed algorithm spec.md §4.4 names.
package selection

import (
	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

// Graph is a directed "depends-on" adjacency built from TaskDependency
// edges, used for cycle detection (§4.3 "Dependency integrity") and for
// readiness checks (§4.4 step 6). node -> the tasks it depends on.
type Graph struct {
	edges map[uuid.UUID][]uuid.UUID
}

// NewGraph builds a Graph from the user's full dependency set.
func NewGraph(deps []types.TaskDependency) *Graph {
	g := &Graph{edges: make(map[uuid.UUID][]uuid.UUID, len(deps))}
	for _, d := range deps {
		g.edges[d.TaskID] = append(g.edges[d.TaskID], d.DependsOnTaskID)
	}
	return g
}

// DependsOn returns the tasks that taskID directly depends on.
func (g *Graph) DependsOn(taskID uuid.UUID) []uuid.UUID {
	return g.edges[taskID]
}

// WouldCycle reports whether adding the edge taskID -> dependsOnID (taskID
// depends on dependsOnID) would create a cycle: true iff dependsOnID can
// already reach taskID by following existing depends-on edges. Reachability
// is a DFS over a single visited set.
func (g *Graph) WouldCycle(taskID, dependsOnID uuid.UUID) bool {
	if taskID == dependsOnID {
		return true
	}
	visited := make(map[uuid.UUID]bool)
	var reaches func(from uuid.UUID) bool
	reaches = func(from uuid.UUID) bool {
		if from == taskID {
			return true
		}
		if visited[from] {
			return false
		}
		visited[from] = true
		for _, next := range g.edges[from] {
			if reaches(next) {
				return true
			}
		}
		return false
	}
	return reaches(dependsOnID)
}

// Readiness reports whether every task taskID depends on is done, given a
// status lookup over all of the user's tasks (blockers may live on a
// different branch, §4.3 "cross-branch dependencies are allowed").
func (g *Graph) Readiness(taskID uuid.UUID, statusOf func(uuid.UUID) (types.Status, bool)) (ready bool, blockers []uuid.UUID) {
	for _, depID := range g.edges[taskID] {
		status, ok := statusOf(depID)
		if !ok || status != types.StatusDone {
			blockers = append(blockers, depID)
		}
	}
	return len(blockers) == 0, blockers
}
