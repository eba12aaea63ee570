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

// memNode holds everything the in-memory graph knows about one node.
type memNode struct {
	typ         NodeType
	successors  []NodeID
	message     []byte
	committerID *uint64
	committerTS *int64
	swhid       string
	visits      []NodeID
}

// MemoryGraph is an in-memory Accessor. It backs unit tests and the dataset
// importer; it is not meant for production-scale graphs.
//
// Mutation (AddNode/AddEdge/AddVisit/Set*) is only valid before the graph is
// shared; afterwards MemoryGraph must be treated as immutable like any other
// Accessor.
type MemoryGraph struct {
	nodes []memNode
	arcs  uint64
}

// NewMemoryGraph creates an empty in-memory graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{}
}

// AddNode appends a node of the given type and returns its ID.
func (g *MemoryGraph) AddNode(t NodeType) NodeID {
	g.nodes = append(g.nodes, memNode{typ: t})
	return NodeID(len(g.nodes) - 1)
}

// AddEdge records a directed arc src -> dst. Both nodes must exist.
func (g *MemoryGraph) AddEdge(src, dst NodeID) {
	g.nodes[src].successors = append(g.nodes[src].successors, dst)
	g.arcs++
}

// AddVisit appends a snapshot to an origin's visit history. The latest
// snapshot of the origin is the most recently added visit.
func (g *MemoryGraph) AddVisit(origin, snapshot NodeID) {
	g.nodes[origin].visits = append(g.nodes[origin].visits, snapshot)
}

// SetMessage sets the message bytes of a node. For origins this is the URL.
func (g *MemoryGraph) SetMessage(id NodeID, message []byte) {
	g.nodes[id].message = message
}

// SetCommitter sets the committer identifier and timestamp of a revision.
func (g *MemoryGraph) SetCommitter(id NodeID, committer uint64, timestamp int64) {
	g.nodes[id].committerID = &committer
	g.nodes[id].committerTS = &timestamp
}

// SetCommitterID sets only the committer identifier of a revision.
func (g *MemoryGraph) SetCommitterID(id NodeID, committer uint64) {
	g.nodes[id].committerID = &committer
}

// SetCommitterTimestamp sets only the committer timestamp of a revision.
func (g *MemoryGraph) SetCommitterTimestamp(id NodeID, timestamp int64) {
	g.nodes[id].committerTS = &timestamp
}

// SetSWHID overrides the synthetic SWHID of a node.
func (g *MemoryGraph) SetSWHID(id NodeID, swhid string) {
	g.nodes[id].swhid = swhid
}

// NodeCount returns the number of nodes.
func (g *MemoryGraph) NodeCount() uint64 {
	return uint64(len(g.nodes))
}

// ArcCount returns the number of arcs.
func (g *MemoryGraph) ArcCount() uint64 {
	return g.arcs
}

// NodeType returns the type of the node, or NodeTypeUnknown if out of range.
func (g *MemoryGraph) NodeType(id NodeID) NodeType {
	if id >= uint64(len(g.nodes)) {
		return NodeTypeUnknown
	}
	return g.nodes[id].typ
}

// Successors returns the direct out-neighbors of the node.
func (g *MemoryGraph) Successors(id NodeID) []NodeID {
	if id >= uint64(len(g.nodes)) {
		return nil
	}
	return g.nodes[id].successors
}

// Message returns the message bytes of the node, if set.
func (g *MemoryGraph) Message(id NodeID) ([]byte, bool) {
	if id >= uint64(len(g.nodes)) || g.nodes[id].message == nil {
		return nil, false
	}
	return g.nodes[id].message, true
}

// CommitterID returns the committer identifier of the node, if set.
func (g *MemoryGraph) CommitterID(id NodeID) (uint64, bool) {
	if id >= uint64(len(g.nodes)) || g.nodes[id].committerID == nil {
		return 0, false
	}
	return *g.nodes[id].committerID, true
}

// CommitterTimestamp returns the committer timestamp of the node, if set.
func (g *MemoryGraph) CommitterTimestamp(id NodeID) (int64, bool) {
	if id >= uint64(len(g.nodes)) || g.nodes[id].committerTS == nil {
		return 0, false
	}
	return *g.nodes[id].committerTS, true
}

// SWHID returns the stored SWHID, or a synthetic one derived from the node
// type and ID.
func (g *MemoryGraph) SWHID(id NodeID) string {
	if id < uint64(len(g.nodes)) && g.nodes[id].swhid != "" {
		return g.nodes[id].swhid
	}
	return fallbackSWHID(g.NodeType(id), id)
}

// FindLatestSnapshot resolves the latest snapshot of an origin from its
// visit history. Returns ok=false for non-origins and unvisited origins.
func (g *MemoryGraph) FindLatestSnapshot(originID NodeID) (Visit, bool) {
	if g.NodeType(originID) != NodeTypeOrigin {
		return Visit{}, false
	}
	return latestVisit(g.nodes[originID].visits)
}

// visits exposes the raw visit history for the dataset importer.
func (g *MemoryGraph) visitHistory(id NodeID) []NodeID {
	return g.nodes[id].visits
}
