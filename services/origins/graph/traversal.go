// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "context"

// VisitFunc receives one node from a traversal. Returning false stops the
// traversal early.
type VisitFunc func(id NodeID) bool

// ReachableFrom walks the full transitive closure reachable from roots,
// calling visit exactly once per reachable node (roots included). Traversal
// is breadth-first with internal deduplication; no ordering is promised
// beyond "each node once".
//
// The context is checked between levels, so cancellation stops a long
// traversal at the next level boundary.
//
// Outputs:
//
//	error - ctx.Err() if cancelled, nil otherwise. Early termination via
//	        the callback is not an error.
func ReachableFrom(ctx context.Context, g Accessor, roots []NodeID, visit VisitFunc) error {
	visited := make(map[NodeID]bool, len(roots))
	level := make([]NodeID, 0, len(roots))
	for _, root := range roots {
		if !visited[root] {
			visited[root] = true
			level = append(level, root)
		}
	}

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next []NodeID
		for _, node := range level {
			if !visit(node) {
				return nil
			}
			for _, succ := range g.Successors(node) {
				if !visited[succ] {
					visited[succ] = true
					next = append(next, succ)
				}
			}
		}
		level = next
	}
	return nil
}

// CountReachable counts reachable nodes matching the given type.
func CountReachable(ctx context.Context, g Accessor, roots []NodeID, t NodeType) (uint64, error) {
	var count uint64
	err := ReachableFrom(ctx, g, roots, func(id NodeID) bool {
		if g.NodeType(id) == t {
			count++
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
