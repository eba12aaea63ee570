// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store implements the per-origin statistics records, the ordered
// record store with its cache persistence, and the bulk parallel
// computation pass.
package store

import (
	"context"

	"github.com/AleutianAI/originstats/services/origins/graph"
)

// Record holds the derived statistics of one origin node.
//
// Every statistic is memoized with a one-way transition: nil until first
// computed, then fixed for the record's lifetime. The accessor methods are
// read-or-compute operations — they MUTATE the record on first call. Callers
// sharing records across goroutines must serialize access (the server holds
// its write lock for exactly this reason); the bulk pass instead assigns
// each record to a single worker.
//
// Computation failures degrade to "field stays nil". Absence of data is the
// designed failure signal here, not an error.
type Record struct {
	id               uint64
	url              *string
	latestCommitDate *int64
	commitCount      *uint64
	committerCount   *uint64
}

// NewRecord creates a fresh record with no statistics computed.
func NewRecord(id graph.NodeID) *Record {
	return &Record{id: id}
}

// ID returns the origin's node ID, the record's only lookup key.
func (r *Record) ID() uint64 {
	return r.id
}

// ResolveURL returns the origin's URL, deriving and memoizing it from the
// node's message property on first call. Returns nil for nodes that are not
// origins or have no message.
func (r *Record) ResolveURL(g graph.Accessor) *string {
	if r.url != nil {
		return r.url
	}
	if g.NodeType(r.id) != graph.NodeTypeOrigin {
		return nil
	}
	msg, ok := g.Message(r.id)
	if !ok {
		return nil
	}
	url := string(msg)
	r.url = &url
	return r.url
}

// SWHID returns the origin's stable external identifier.
func (r *Record) SWHID(g graph.Accessor) string {
	return g.SWHID(r.id)
}

// LatestSnapshot resolves the origin's most recent snapshot via the graph
// engine. Selection of "latest" is delegated entirely to the engine.
func (r *Record) LatestSnapshot(g graph.Accessor) (graph.Visit, bool) {
	return g.FindLatestSnapshot(r.id)
}

// HeadRevisions returns the revisions at the tip of the latest snapshot:
// direct successors of type Revision, plus — for successors of type
// Release — the revisions those releases point at directly. This is a
// shallow view, at most two hops; a release pointing at another release
// contributes nothing. Returns nil when no snapshot is resolvable.
func (r *Record) HeadRevisions(g graph.Accessor) []graph.NodeID {
	visit, ok := r.LatestSnapshot(g)
	if !ok {
		return nil
	}
	var heads []graph.NodeID
	for _, succ := range g.Successors(visit.Snapshot) {
		switch g.NodeType(succ) {
		case graph.NodeTypeRevision:
			heads = append(heads, succ)
		case graph.NodeTypeRelease:
			for _, relSucc := range g.Successors(succ) {
				if g.NodeType(relSucc) == graph.NodeTypeRevision {
					heads = append(heads, relSucc)
				}
			}
		}
	}
	return heads
}

// CommitCount returns the number of revisions transitively reachable from
// the latest snapshot — the size of the origin's entire current history,
// not just its heads.
//
// Read-or-compute: the first successful call traverses the graph and
// memoizes the result; later calls return the cached value without graph
// access. Returns nil without mutating the record when no snapshot is
// resolvable or the traversal is cancelled.
func (r *Record) CommitCount(ctx context.Context, g graph.Accessor) *uint64 {
	if r.commitCount != nil {
		return r.commitCount
	}
	visit, ok := r.LatestSnapshot(g)
	if !ok {
		return nil
	}
	count, err := graph.CountReachable(ctx, g, []graph.NodeID{visit.Snapshot}, graph.NodeTypeRevision)
	if err != nil {
		return nil
	}
	r.commitCount = &count
	return r.commitCount
}

// CommitterCount returns the number of distinct committer identifiers among
// the same reachable revision set CommitCount uses. Revisions without a
// committer identifier are skipped. Memoized identically to CommitCount.
func (r *Record) CommitterCount(ctx context.Context, g graph.Accessor) *uint64 {
	if r.committerCount != nil {
		return r.committerCount
	}
	visit, ok := r.LatestSnapshot(g)
	if !ok {
		return nil
	}
	committers := make(map[uint64]struct{})
	err := graph.ReachableFrom(ctx, g, []graph.NodeID{visit.Snapshot}, func(id graph.NodeID) bool {
		if g.NodeType(id) == graph.NodeTypeRevision {
			if committer, ok := g.CommitterID(id); ok {
				committers[committer] = struct{}{}
			}
		}
		return true
	})
	if err != nil {
		return nil
	}
	count := uint64(len(committers))
	r.committerCount = &count
	return r.committerCount
}

// LatestCommitDate returns the maximum committer timestamp among the HEAD
// revisions only. Commit and committer totals summarize the entire
// reachable history; the date deliberately reflects just the current tip.
// Do not widen this to the full closure without revisiting that contract.
// Revisions without a timestamp are skipped; memoized on first success.
func (r *Record) LatestCommitDate(g graph.Accessor) *int64 {
	if r.latestCommitDate != nil {
		return r.latestCommitDate
	}
	var maxDate *int64
	for _, rev := range r.HeadRevisions(g) {
		if date, ok := g.CommitterTimestamp(rev); ok {
			if maxDate == nil || date > *maxDate {
				d := date
				maxDate = &d
			}
		}
	}
	if maxDate != nil {
		r.latestCommitDate = maxDate
	}
	return r.latestCommitDate
}

// ComputeAll fills in the latest commit date, commit count, and committer
// count, in that order. Idempotent: a second call performs no graph access
// because all three fields are memoized.
func (r *Record) ComputeAll(ctx context.Context, g graph.Accessor) {
	r.LatestCommitDate(g)
	r.CommitCount(ctx, g)
	r.CommitterCount(ctx, g)
}

// Cached peeks: read-only accessors that never touch the graph and never
// mutate. The /origins filter depends on these staying cheap.

// URLCached returns the memoized URL, or nil if not yet resolved.
func (r *Record) URLCached() *string { return r.url }

// CommitCountCached returns the memoized commit count, or nil.
func (r *Record) CommitCountCached() *uint64 { return r.commitCount }

// CommitterCountCached returns the memoized committer count, or nil.
func (r *Record) CommitterCountCached() *uint64 { return r.committerCount }

// LatestCommitDateCached returns the memoized latest commit date, or nil.
func (r *Record) LatestCommitDateCached() *int64 { return r.latestCommitDate }

// Data snapshots the record into its serializable form.
func (r *Record) Data() RecordData {
	return RecordData{
		ID:               r.id,
		URL:              r.url,
		LatestCommitDate: r.latestCommitDate,
		CommitCount:      r.commitCount,
		CommitterCount:   r.committerCount,
	}
}

// FromData rehydrates a record from its serialized form. The graph handle
// is never serialized; records reattach to the store's shared Accessor.
func FromData(data RecordData) *Record {
	return &Record{
		id:               data.ID,
		url:              data.URL,
		latestCommitDate: data.LatestCommitDate,
		commitCount:      data.CommitCount,
		committerCount:   data.CommitterCount,
	}
}
