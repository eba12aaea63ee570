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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/originstats/services/origins/graph"
)

// scanCheckInterval is how many node IDs the origin scan covers between
// context cancellation checks.
const scanCheckInterval = 4096

// Config holds construction-time options for a Store.
type Config struct {
	// DataDir is the directory holding the cache files.
	DataDir string

	// Codec chooses the cache file format. Defaults to JSONCodec.
	Codec Codec

	// DropNoSnapshot discards origins whose latest snapshot is unresolvable
	// during Compute. Such origins can never produce statistics; dropping
	// them shrinks the store. Surviving records keep ascending-ID order.
	DropNoSnapshot bool

	// Logger receives load/recovery events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the JSON codec and default logger.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		Codec:   JSONCodec{},
	}
}

// Stats counts store lifecycle events. Counters only ever increase.
type Stats struct {
	cacheLoads      atomic.Int64
	cacheCorruption atomic.Int64
	computes        atomic.Int64
	persists        atomic.Int64
	persistFailures atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the store counters.
type StatsSnapshot struct {
	CacheLoads      int64
	CacheCorruption int64
	Computes        int64
	Persists        int64
	PersistFailures int64
}

// Store owns the ordered collection of origin records, one shared read-only
// graph handle, and the chosen cache codec.
//
// The record collection is populated exactly once per process — from the
// cache file when it decodes, otherwise by a full graph scan — and then
// mutated in place by per-record memoization, Truncate, and nothing else.
//
// Thread Safety: Store performs NO internal locking. The record accessors
// hand out records whose read-or-compute methods mutate; the serving layer
// serializes all access behind one exclusive lock.
type Store struct {
	graph          graph.Accessor
	codec          Codec
	dataDir        string
	dropNoSnapshot bool
	logger         *slog.Logger

	records []*Record
	loaded  bool
	stats   Stats
}

// New creates a store over the given graph. The graph handle is shared and
// immutable; it is never serialized with the records.
func New(g graph.Accessor, cfg Config) *Store {
	codec := cfg.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		graph:          g,
		codec:          codec,
		dataDir:        cfg.DataDir,
		dropNoSnapshot: cfg.DropNoSnapshot,
		logger:         logger,
	}
}

// Graph returns the shared graph handle.
func (s *Store) Graph() graph.Accessor {
	return s.graph
}

// CacheFile returns the path of the primary cache file.
func (s *Store) CacheFile() string {
	return filepath.Join(s.dataDir, "origins."+s.codec.Ext())
}

// SampleFile returns the path of the sample cache file. The primary load
// path never reads this file.
func (s *Store) SampleFile() string {
	return filepath.Join(s.dataDir, "origins.sample."+s.codec.Ext())
}

// Len returns the number of records currently in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Loaded reports whether the record collection has been populated.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Stats returns a snapshot of the lifecycle counters.
func (s *Store) Stats() StatsSnapshot {
	return StatsSnapshot{
		CacheLoads:      s.stats.cacheLoads.Load(),
		CacheCorruption: s.stats.cacheCorruption.Load(),
		Computes:        s.stats.computes.Load(),
		Persists:        s.stats.persists.Load(),
		PersistFailures: s.stats.persistFailures.Load(),
	}
}

// Records returns the full record collection, loading it first if needed.
// Loaded state is sticky: after the first successful call, subsequent calls
// never touch the cache file or the graph scan again.
func (s *Store) Records(ctx context.Context) ([]*Record, error) {
	if !s.loaded {
		if err := s.LoadOrCompute(ctx); err != nil {
			return nil, err
		}
	}
	return s.records, nil
}

// LoadOrCompute populates the record collection.
//
// If a cache file exists and decodes, its records are rehydrated as-is.
// Any read or decode failure is treated uniformly as corruption: the file
// is deleted, the collection is recomputed from the graph, and a fresh
// cache is written. That fallback runs at most once per load — it never
// loops. A failure to write the fresh cache is logged and swallowed; the
// in-memory store stays usable without persistence.
func (s *Store) LoadOrCompute(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	ctx, span := tracer.Start(ctx, "store.LoadOrCompute")
	defer span.End()

	path := s.CacheFile()
	if data, err := s.readCache(path); err == nil {
		s.records = make([]*Record, len(data))
		for i, d := range data {
			s.records[i] = FromData(d)
		}
		s.loaded = true
		s.stats.cacheLoads.Add(1)
		addCounter(ctx, cacheLoadsTotal, 1)
		s.logger.Info("loaded origins from cache",
			slog.String("path", path),
			slog.Int("records", len(s.records)))
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.stats.cacheCorruption.Add(1)
		addCounter(ctx, cacheCorruptionTotal, 1)
		s.logger.Warn("origin cache unusable, recomputing",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("failed to remove stale cache",
				slog.String("path", path),
				slog.String("error", rmErr.Error()))
		}
	} else {
		s.logger.Info("no origin cache, computing",
			slog.String("path", path))
	}

	if err := s.Compute(ctx); err != nil {
		return err
	}
	if err := s.Persist(); err != nil {
		s.logger.Warn("failed to persist origin cache",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return nil
}

// readCache opens and decodes the cache file.
func (s *Store) readCache(path string) ([]RecordData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.codec.Decode(f)
}

// Compute rebuilds the record collection by a linear sweep over the node ID
// space, keeping origin-typed nodes in ascending-ID order. All memoized
// fields start nil; previously loaded records are discarded wholesale.
func (s *Store) Compute(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "store.Compute")
	defer span.End()

	count := s.graph.NodeCount()
	var records []*Record
	for id := uint64(0); id < count; id++ {
		if id%scanCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if s.graph.NodeType(id) != graph.NodeTypeOrigin {
			continue
		}
		if s.dropNoSnapshot {
			if _, ok := s.graph.FindLatestSnapshot(id); !ok {
				continue
			}
		}
		records = append(records, NewRecord(id))
	}

	s.records = records
	s.loaded = true
	s.stats.computes.Add(1)
	addCounter(ctx, computesTotal, 1)
	span.SetAttributes(attribute.Int("records", len(records)))
	s.logger.Info("computed origins from graph scan",
		slog.Uint64("nodes_scanned", count),
		slog.Int("origins", len(records)))
	return nil
}

// Persist serializes the current full in-memory collection — including
// every memoized field set so far — to the primary cache file, overwriting
// it wholesale. There are no incremental writes: a file either fully
// succeeds or is treated as corrupt on the next load.
func (s *Store) Persist() error {
	if err := s.writeRecords(s.CacheFile(), s.records); err != nil {
		s.stats.persistFailures.Add(1)
		return err
	}
	s.stats.persists.Add(1)
	return nil
}

// Truncate keeps only the first max records in their current order,
// dropping the rest. Irreversible in memory; the cache file is unchanged
// until the next Persist.
func (s *Store) Truncate(max int) {
	if max < 0 {
		max = 0
	}
	if len(s.records) > max {
		s.logger.Info("truncating origin store",
			slog.Int("from", len(s.records)),
			slog.Int("to", max))
		s.records = s.records[:max]
	}
}

// Sample writes min(n, Len()) records chosen uniformly at random without
// replacement to the sample cache file. Neither the in-memory collection
// nor the primary cache file is touched.
func (s *Store) Sample(n int) error {
	if n < 0 {
		n = 0
	}
	if n > len(s.records) {
		n = len(s.records)
	}

	data := make([]RecordData, 0, n)
	for _, i := range rand.Perm(len(s.records))[:n] {
		data = append(data, s.records[i].Data())
	}

	path := s.SampleFile()
	if err := s.writeData(path, data); err != nil {
		return err
	}
	s.logger.Info("wrote origin sample",
		slog.String("path", path),
		slog.Int("records", n))
	return nil
}

func (s *Store) writeRecords(path string, records []*Record) error {
	data := make([]RecordData, len(records))
	for i, r := range records {
		data[i] = r.Data()
	}
	return s.writeData(path, data)
}

func (s *Store) writeData(path string, data []RecordData) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache file %s: %w", path, err)
	}
	if err := s.codec.Encode(f, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close cache file %s: %w", path, err)
	}
	return nil
}
