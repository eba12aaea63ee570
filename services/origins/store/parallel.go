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
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Bulk compute configuration constants.
const (
	// maxComputeWorkers caps the number of goroutines regardless of CPU
	// count. The pass is memory-bound graph traversal and does not benefit
	// from excessive parallelism.
	maxComputeWorkers = 8

	// progressInterval is how often the bulk pass logs its progress
	// counter. The counter is observability only; it must never be used to
	// infer completion.
	progressInterval = 10 * time.Second
)

// computeWorkers returns the worker count for the bulk pass.
func computeWorkers() int {
	workers := runtime.NumCPU()
	if workers > maxComputeWorkers {
		workers = maxComputeWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// ComputeAllRecords runs ComputeAll across every record using a bounded
// worker pool.
//
// Each record's computation touches only that record's own fields plus the
// shared read-only graph, so records are distributed to workers with no
// cross-record synchronization and no defined completion order. A panic
// while computing one record is recovered and logged; it leaves that
// record's remaining fields nil and never corrupts sibling records.
//
// A monotonically increasing progress counter is sampled on a timer for
// logging. The only error returned is ctx.Err() on cancellation; records
// not yet processed simply keep their nil fields.
func (s *Store) ComputeAllRecords(ctx context.Context) error {
	records, err := s.Records(ctx)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "store.ComputeAllRecords")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	start := time.Now()
	var progress atomic.Uint64

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.logger.Info("bulk compute progress",
					slog.Uint64("processed", progress.Load()),
					slog.Int("total", len(records)))
			}
		}
	}()
	defer close(done)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(computeWorkers())

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("record computation panicked",
						slog.Uint64("origin_id", record.ID()),
						slog.Any("panic", r))
				}
				progress.Add(1)
				addCounter(ctx, recordsComputedTotal, 1)
			}()
			record.ComputeAll(ctx, s.graph)
			return nil
		})
	}

	// Workers never return errors; Wait only flushes the pool.
	_ = g.Wait()
	recordHistogram(ctx, computePassSeconds, time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("bulk compute finished",
		slog.Uint64("processed", progress.Load()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
