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
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/AleutianAI/originstats/services/origins/graph"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, g graph.Accessor, codec Codec) *Store {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	if codec != nil {
		cfg.Codec = codec
	}
	cfg.Logger = quietLogger()
	return New(g, cfg)
}

func TestComputeFindsOriginsInOrder(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	s := newTestStore(t, g, nil)

	if err := s.Compute(context.Background()); err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 origins, got %d", s.Len())
	}

	records, err := s.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if records[0].ID() != fx.originA || records[1].ID() != fx.originB {
		t.Errorf("records out of ascending-ID order: %d, %d",
			records[0].ID(), records[1].ID())
	}
}

func TestComputeDropNoSnapshot(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	cfg := DefaultConfig(t.TempDir())
	cfg.DropNoSnapshot = true
	cfg.Logger = quietLogger()
	s := New(g, cfg)

	if err := s.Compute(context.Background()); err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 origin after drop, got %d", s.Len())
	}
	records, _ := s.Records(context.Background())
	if records[0].ID() != fx.originA {
		t.Errorf("wrong survivor: %d", records[0].ID())
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "binary"} {
		t.Run(format, func(t *testing.T) {
			g, fx := buildArchiveGraph(t)
			ctx := context.Background()
			s := newTestStore(t, g, CodecFor(format))

			if err := s.LoadOrCompute(ctx); err != nil {
				t.Fatalf("initial load: %v", err)
			}
			if err := s.ComputeAllRecords(ctx); err != nil {
				t.Fatalf("bulk compute: %v", err)
			}
			if err := s.Persist(); err != nil {
				t.Fatalf("persist: %v", err)
			}

			// A second store over the same directory loads from the cache
			// without touching the graph scan.
			cfg := DefaultConfig(s.dataDir)
			cfg.Codec = CodecFor(format)
			cfg.Logger = quietLogger()
			fresh := New(g, cfg)
			if err := fresh.LoadOrCompute(ctx); err != nil {
				t.Fatalf("reload: %v", err)
			}

			stats := fresh.Stats()
			if stats.CacheLoads != 1 || stats.Computes != 0 {
				t.Errorf("expected pure cache load, got %+v", stats)
			}
			if fresh.Len() != s.Len() {
				t.Fatalf("record count changed: %d -> %d", s.Len(), fresh.Len())
			}

			records, _ := fresh.Records(ctx)
			var restored *Record
			for _, r := range records {
				if r.ID() == fx.originA {
					restored = r
				}
			}
			if restored == nil {
				t.Fatal("origin A missing after reload")
			}
			if restored.CommitCountCached() == nil || *restored.CommitCountCached() != 3 {
				t.Errorf("commit count lost: %v", restored.CommitCountCached())
			}
			if restored.LatestCommitDateCached() == nil || *restored.LatestCommitDateCached() != 1700000100 {
				t.Errorf("latest commit date lost: %v", restored.LatestCommitDateCached())
			}
		})
	}
}

func TestLoadOrComputeRecoversFromCorruption(t *testing.T) {
	g, _ := buildArchiveGraph(t)
	ctx := context.Background()
	s := newTestStore(t, g, nil)

	if err := os.MkdirAll(s.dataDir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.CacheFile(), []byte("{not json"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := s.LoadOrCompute(ctx); err != nil {
		t.Fatalf("recovery load failed: %v", err)
	}
	stats := s.Stats()
	if stats.CacheCorruption != 1 {
		t.Errorf("corruption counter: got %d, want 1", stats.CacheCorruption)
	}
	if stats.Computes != 1 {
		t.Errorf("computes counter: got %d, want 1", stats.Computes)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 recomputed origins, got %d", s.Len())
	}

	// The rebuilt cache must be decodable.
	data, err := s.readCache(s.CacheFile())
	if err != nil {
		t.Fatalf("rebuilt cache unreadable: %v", err)
	}
	if len(data) != 2 {
		t.Errorf("rebuilt cache has %d records, want 2", len(data))
	}
}

func TestLoadOrComputeIsSticky(t *testing.T) {
	g, _ := buildArchiveGraph(t)
	ctx := context.Background()
	s := newTestStore(t, g, nil)

	if err := s.LoadOrCompute(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadOrCompute(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Stats().Computes; got != 1 {
		t.Errorf("expected exactly one compute, got %d", got)
	}
}

func TestTruncate(t *testing.T) {
	g, fx := buildArchiveGraph(t)
	s := newTestStore(t, g, nil)
	if err := s.Compute(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Truncate(1)
	if s.Len() != 1 {
		t.Fatalf("expected 1 record after truncate, got %d", s.Len())
	}
	records, _ := s.Records(context.Background())
	if records[0].ID() != fx.originA {
		t.Errorf("truncate should keep the prefix, got id %d", records[0].ID())
	}

	// Truncating to a larger size is a no-op.
	s.Truncate(10)
	if s.Len() != 1 {
		t.Errorf("enlarging truncate changed length: %d", s.Len())
	}
}

func TestSample(t *testing.T) {
	g, _ := buildArchiveGraph(t)
	ctx := context.Background()
	s := newTestStore(t, g, nil)
	if err := s.LoadOrCompute(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.Sample(1); err != nil {
		t.Fatalf("sample: %v", err)
	}
	data, err := s.readCache(s.SampleFile())
	if err != nil {
		t.Fatalf("sample file unreadable: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("expected 1 sampled record, got %d", len(data))
	}

	known := make(map[uint64]bool)
	records, _ := s.Records(ctx)
	for _, r := range records {
		known[r.ID()] = true
	}
	if !known[data[0].ID] {
		t.Errorf("sampled unknown origin %d", data[0].ID)
	}

	// Oversized requests clamp to the store size, each record at most once.
	if err := s.Sample(100); err != nil {
		t.Fatal(err)
	}
	data, err = s.readCache(s.SampleFile())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != s.Len() {
		t.Errorf("clamped sample has %d records, want %d", len(data), s.Len())
	}
	seen := make(map[uint64]bool)
	for _, d := range data {
		if seen[d.ID] {
			t.Errorf("origin %d sampled twice", d.ID)
		}
		seen[d.ID] = true
	}

	// Sampling never disturbs the primary collection or cache.
	if s.Len() != len(records) {
		t.Error("sample mutated the record collection")
	}
}
