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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/originstats/services/origins/storage/badger"
)

// importedDataset round-trips a MemoryGraph through an in-memory Badger
// database and returns the resulting Dataset.
func importedDataset(t *testing.T, g *MemoryGraph) *Dataset {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, ImportDataset(db, g))
	ds, err := NewDataset(db)
	require.NoError(t, err)
	return ds
}

func TestDatasetRoundTrip(t *testing.T) {
	g := NewMemoryGraph()
	origin := g.AddNode(NodeTypeOrigin)
	oldSnap := g.AddNode(NodeTypeSnapshot)
	snap := g.AddNode(NodeTypeSnapshot)
	rev := g.AddNode(NodeTypeRevision)
	rel := g.AddNode(NodeTypeRelease)
	tagged := g.AddNode(NodeTypeRevision)

	g.AddEdge(snap, rev)
	g.AddEdge(snap, rel)
	g.AddEdge(rel, tagged)
	g.AddEdge(oldSnap, rev)
	g.SetMessage(origin, []byte("https://example.org/repo"))
	g.SetCommitter(rev, 11, 1700000000)
	g.SetCommitter(tagged, 12, 1700000100)
	g.SetSWHID(rev, "swh:1:rev:cafe")
	g.AddVisit(origin, oldSnap)
	g.AddVisit(origin, snap)

	ds := importedDataset(t, g)

	require.Equal(t, g.NodeCount(), ds.NodeCount())
	require.Equal(t, g.ArcCount(), ds.ArcCount())

	for id := uint64(0); id < g.NodeCount(); id++ {
		require.Equal(t, g.NodeType(id), ds.NodeType(id), "node %d type", id)
		require.Equal(t, g.Successors(id), ds.Successors(id), "node %d successors", id)
		require.Equal(t, g.SWHID(id), ds.SWHID(id), "node %d swhid", id)
	}

	msg, ok := ds.Message(origin)
	require.True(t, ok)
	require.Equal(t, "https://example.org/repo", string(msg))
	_, ok = ds.Message(snap)
	require.False(t, ok)

	cid, ok := ds.CommitterID(rev)
	require.True(t, ok)
	require.Equal(t, uint64(11), cid)
	cts, ok := ds.CommitterTimestamp(tagged)
	require.True(t, ok)
	require.Equal(t, int64(1700000100), cts)
	_, ok = ds.CommitterID(rel)
	require.False(t, ok)

	visit, ok := ds.FindLatestSnapshot(origin)
	require.True(t, ok)
	require.Equal(t, snap, visit.Snapshot)
	require.Equal(t, uint64(1), visit.Generation)

	_, ok = ds.FindLatestSnapshot(rev)
	require.False(t, ok)
}

func TestDatasetNegativeTimestamp(t *testing.T) {
	// Pre-epoch commits appear in real archives; the two's complement
	// encoding must survive the round trip.
	g := NewMemoryGraph()
	rev := g.AddNode(NodeTypeRevision)
	g.SetCommitter(rev, 1, -86400)

	ds := importedDataset(t, g)
	ts, ok := ds.CommitterTimestamp(rev)
	require.True(t, ok)
	require.Equal(t, int64(-86400), ts)
}

func TestDatasetOutOfRange(t *testing.T) {
	g := NewMemoryGraph()
	g.AddNode(NodeTypeOrigin)
	ds := importedDataset(t, g)

	require.Equal(t, NodeTypeUnknown, ds.NodeType(99))
	require.Nil(t, ds.Successors(99))
}

func TestDatasetMissingMetadata(t *testing.T) {
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewDataset(db)
	require.ErrorIs(t, err, ErrDatasetCorrupt)
}
