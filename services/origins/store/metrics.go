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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for store operations.
var (
	tracer = otel.Tracer("originstats.store")
	meter  = otel.Meter("originstats.store")
)

// Metrics for store lifecycle and the bulk compute pass.
var (
	cacheLoadsTotal      metric.Int64Counter
	cacheCorruptionTotal metric.Int64Counter
	computesTotal        metric.Int64Counter
	recordsComputedTotal metric.Int64Counter
	computePassSeconds   metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheLoadsTotal, err = meter.Int64Counter(
			"origin_cache_loads_total",
			metric.WithDescription("Times the record collection was loaded from cache"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheCorruptionTotal, err = meter.Int64Counter(
			"origin_cache_corruption_total",
			metric.WithDescription("Cache files discarded as unreadable or undecodable"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		computesTotal, err = meter.Int64Counter(
			"origin_computes_total",
			metric.WithDescription("Full graph scans rebuilding the record collection"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsComputedTotal, err = meter.Int64Counter(
			"origin_records_computed_total",
			metric.WithDescription("Records processed by the bulk compute pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		computePassSeconds, err = meter.Float64Histogram(
			"origin_compute_pass_seconds",
			metric.WithDescription("Duration of bulk compute passes"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// addCounter records a counter increment, tolerating uninitialized metrics.
func addCounter(ctx context.Context, counter metric.Int64Counter, n int64) {
	if initMetrics() != nil || counter == nil {
		return
	}
	counter.Add(ctx, n)
}

// recordHistogram records a histogram sample, tolerating uninitialized
// metrics.
func recordHistogram(ctx context.Context, hist metric.Float64Histogram, v float64) {
	if initMetrics() != nil || hist == nil {
		return
	}
	hist.Record(ctx, v)
}
