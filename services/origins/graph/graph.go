// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph defines the read-only capability surface over the provenance
// graph, one production implementation backed by a BadgerDB dataset, and an
// in-memory implementation for tests and imports.
//
// The graph is immutable and append-only by construction: once an Accessor
// is built, every method is a pure read and safe for unsynchronized
// concurrent use from any number of goroutines.
package graph

import "fmt"

// Accessor is the capability set the statistics engine needs from a graph
// engine. Implementations must be safe for concurrent use without locking;
// the engine shares one Accessor across all workers and request handlers.
type Accessor interface {
	// NodeCount returns the number of nodes. Node IDs are 0..NodeCount-1.
	NodeCount() uint64

	// ArcCount returns the number of arcs (directed edges).
	ArcCount() uint64

	// NodeType returns the type of the node, or NodeTypeUnknown for
	// out-of-range IDs.
	NodeType(id NodeID) NodeType

	// Successors returns the direct out-neighbors of the node. The returned
	// slice must not be mutated by callers.
	Successors(id NodeID) []NodeID

	// Message returns the message bytes of the node, if any. For origin
	// nodes the message holds the origin URL.
	Message(id NodeID) ([]byte, bool)

	// CommitterID returns the opaque committer identifier of a revision,
	// if any.
	CommitterID(id NodeID) (uint64, bool)

	// CommitterTimestamp returns the committer timestamp of a revision in
	// seconds since the epoch, if any.
	CommitterTimestamp(id NodeID) (int64, bool)

	// SWHID returns the stable external identifier of the node.
	SWHID(id NodeID) string

	// FindLatestSnapshot resolves the most recent snapshot of an origin.
	// Returns ok=false when id is not an origin or has no visit history.
	FindLatestSnapshot(originID NodeID) (Visit, bool)
}

// fallbackSWHID formats a synthetic SWHID for nodes without a stored one.
func fallbackSWHID(t NodeType, id NodeID) string {
	return fmt.Sprintf("swh:1:%s:%040x", t.swhidTag(), id)
}

// latestVisit applies the delegated latest-snapshot rule to a visit history:
// the last visited snapshot wins and its generation is its position.
func latestVisit(visits []NodeID) (Visit, bool) {
	if len(visits) == 0 {
		return Visit{}, false
	}
	return Visit{
		Snapshot:   visits[len(visits)-1],
		Generation: uint64(len(visits) - 1),
	}, true
}
