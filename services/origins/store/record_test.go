// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/AleutianAI/originstats/services/origins/graph"
)

// archiveFixture names the node IDs of the fixture graph so assertions can
// refer to nodes by role.
type archiveFixture struct {
	originA   graph.NodeID // origin with two visits
	originB   graph.NodeID // origin with no visits
	snap      graph.NodeID // latest snapshot of A
	oldSnap   graph.NodeID // earlier snapshot of A
	headRev   graph.NodeID // branch head, committer 100 @ 1700000000
	release   graph.NodeID // release pointing at taggedRev
	taggedRev graph.NodeID // head via release, committer 101 @ 1700000100
	parentRev graph.NodeID // ancestor of headRev, committer 100 @ 1800000000
}

// buildArchiveGraph constructs a small archive: one origin with a two-visit
// history and a three-revision current history, one origin never visited.
// The ancestor revision deliberately carries the newest timestamp in the
// graph; only head timestamps may surface as the latest commit date.
func buildArchiveGraph(t *testing.T) (*graph.MemoryGraph, archiveFixture) {
	t.Helper()
	g := graph.NewMemoryGraph()

	fx := archiveFixture{
		originA:   g.AddNode(graph.NodeTypeOrigin),
		snap:      g.AddNode(graph.NodeTypeSnapshot),
		headRev:   g.AddNode(graph.NodeTypeRevision),
		release:   g.AddNode(graph.NodeTypeRelease),
		taggedRev: g.AddNode(graph.NodeTypeRevision),
		parentRev: g.AddNode(graph.NodeTypeRevision),
		oldSnap:   g.AddNode(graph.NodeTypeSnapshot),
		originB:   g.AddNode(graph.NodeTypeOrigin),
	}
	dir := g.AddNode(graph.NodeTypeDirectory)

	g.SetMessage(fx.originA, []byte("https://example.org/a"))
	g.SetMessage(fx.originB, []byte("https://example.org/b"))

	g.AddEdge(fx.snap, fx.headRev)
	g.AddEdge(fx.snap, fx.release)
	g.AddEdge(fx.release, fx.taggedRev)
	g.AddEdge(fx.headRev, fx.parentRev)
	g.AddEdge(fx.taggedRev, dir)
	g.AddEdge(fx.oldSnap, fx.parentRev)

	g.SetCommitter(fx.headRev, 100, 1700000000)
	g.SetCommitter(fx.taggedRev, 101, 1700000100)
	g.SetCommitter(fx.parentRev, 100, 1800000000)

	g.AddVisit(fx.originA, fx.oldSnap)
	g.AddVisit(fx.originA, fx.snap)

	return g, fx
}

func TestRecordStatistics(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	ctx := context.Background()
	r := NewRecord(fx.originA)

	if url := r.ResolveURL(g); url == nil || *url != "https://example.org/a" {
		t.Fatalf("unexpected url: %v", url)
	}

	visit, ok := r.LatestSnapshot(g)
	if !ok || visit.Snapshot != fx.snap {
		t.Fatalf("latest snapshot: got %+v ok=%v, want %d", visit, ok, fx.snap)
	}

	heads := r.HeadRevisions(g)
	if len(heads) != 2 {
		t.Fatalf("expected 2 head revisions, got %v", heads)
	}
	wantHeads := map[graph.NodeID]bool{fx.headRev: true, fx.taggedRev: true}
	for _, h := range heads {
		if !wantHeads[h] {
			t.Errorf("unexpected head revision %d", h)
		}
	}

	if count := r.CommitCount(ctx, g); count == nil || *count != 3 {
		t.Errorf("commit count: got %v, want 3", count)
	}
	if count := r.CommitterCount(ctx, g); count == nil || *count != 2 {
		t.Errorf("committer count: got %v, want 2", count)
	}

	// The ancestor revision has the newest timestamp in the whole history,
	// but the latest commit date reads head revisions only.
	if date := r.LatestCommitDate(g); date == nil || *date != 1700000100 {
		t.Errorf("latest commit date: got %v, want 1700000100", date)
	}

	// Distinct committers can never exceed reachable commits.
	if *r.CommitterCountCached() > *r.CommitCountCached() {
		t.Errorf("committer count %d exceeds commit count %d",
			*r.CommitterCountCached(), *r.CommitCountCached())
	}

	// Head revisions are contained in the reachable revision set.
	if uint64(len(heads)) > *r.CommitCountCached() {
		t.Errorf("%d heads exceed commit count %d", len(heads), *r.CommitCountCached())
	}
}

func TestRecordNoSnapshot(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	ctx := context.Background()
	r := NewRecord(fx.originB)
	r.ComputeAll(ctx, g)

	if r.CommitCountCached() != nil {
		t.Error("commit count should stay nil without a snapshot")
	}
	if r.CommitterCountCached() != nil {
		t.Error("committer count should stay nil without a snapshot")
	}
	if r.LatestCommitDateCached() != nil {
		t.Error("latest commit date should stay nil without a snapshot")
	}
	if r.HeadRevisions(g) != nil {
		t.Error("head revisions should be nil without a snapshot")
	}
	// The URL is independent of visit history.
	if url := r.ResolveURL(g); url == nil || *url != "https://example.org/b" {
		t.Errorf("unexpected url: %v", url)
	}
}

// countingGraph counts successor lookups to observe memoization. The
// counter is atomic so the bulk-pass tests can share one instance across
// workers.
type countingGraph struct {
	*graph.MemoryGraph
	succCalls atomic.Int64
}

func (c *countingGraph) Successors(id graph.NodeID) []graph.NodeID {
	c.succCalls.Add(1)
	return c.MemoryGraph.Successors(id)
}

func TestRecordMemoization(t *testing.T) {
	mg, fx := buildArchiveGraph(t)
	g := &countingGraph{MemoryGraph: mg}
	ctx := context.Background()

	r := NewRecord(fx.originA)
	r.ComputeAll(ctx, g)
	first := r.Data()
	calls := g.succCalls.Load()
	if calls == 0 {
		t.Fatal("first pass should traverse the graph")
	}

	r.ComputeAll(ctx, g)
	if g.succCalls.Load() != calls {
		t.Errorf("second pass touched the graph: %d calls, want %d", g.succCalls.Load(), calls)
	}
	second := r.Data()
	if *first.CommitCount != *second.CommitCount ||
		*first.CommitterCount != *second.CommitterCount ||
		*first.LatestCommitDate != *second.LatestCommitDate {
		t.Error("recomputation changed memoized values")
	}
}

func TestRecordCancelledTraversalDoesNotMemoize(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRecord(fx.originA)
	if count := r.CommitCount(ctx, g); count != nil {
		t.Errorf("cancelled traversal should yield nil, got %v", count)
	}
	if r.CommitCountCached() != nil {
		t.Error("cancelled traversal must not memoize")
	}

	// A later call with a live context succeeds.
	if count := r.CommitCount(context.Background(), g); count == nil || *count != 3 {
		t.Errorf("retry after cancellation: got %v, want 3", count)
	}
}

func TestRecordDataRoundTrip(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	r := NewRecord(fx.originA)
	r.ResolveURL(g)
	r.ComputeAll(context.Background(), g)

	restored := FromData(r.Data())
	if restored.ID() != r.ID() {
		t.Errorf("id: got %d, want %d", restored.ID(), r.ID())
	}
	if *restored.URLCached() != *r.URLCached() {
		t.Errorf("url: got %q, want %q", *restored.URLCached(), *r.URLCached())
	}
	if *restored.CommitCountCached() != *r.CommitCountCached() {
		t.Error("commit count lost in round trip")
	}
	if *restored.CommitterCountCached() != *r.CommitterCountCached() {
		t.Error("committer count lost in round trip")
	}
	if *restored.LatestCommitDateCached() != *r.LatestCommitDateCached() {
		t.Error("latest commit date lost in round trip")
	}
}
