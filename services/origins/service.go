// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package origins serves origin statistics over HTTP.
//
// The service wraps the record store behind one process-wide reader-writer
// lock. Every request path — including ones that look like pure reads —
// takes the WRITE lock, because resolving most fields lazily memoizes onto
// the record, which is a mutation. All requests therefore serialize at the
// store boundary regardless of transport concurrency, giving linearizable
// semantics across requests; a slow computation for one request delays all
// others. That is a deliberate simplicity/throughput tradeoff, not an
// oversight. Keep it unless the external contract changes.
package origins

import (
	"context"
	"strconv"
	"sync"

	"github.com/AleutianAI/originstats/services/origins/store"
)

// ServiceVersion is the origins service version.
const ServiceVersion = "0.1.0"

// ServiceConfig holds construction-time options for the Service.
type ServiceConfig struct {
	// ServiceName is reported by the health endpoint.
	ServiceName string

	// FilterActive makes GET /origins return only origins with a memoized
	// positive commit count and a memoized latest commit date. Filtering
	// reads cached values only — it never triggers computation, so the
	// endpoint stays cheap and reflects whatever has been computed so far.
	FilterActive bool
}

// DefaultServiceConfig returns the standard service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ServiceName:  "origin-stats-api",
		FilterActive: true,
	}
}

// Service exposes store operations to the HTTP handlers.
type Service struct {
	mu    sync.RWMutex
	store *store.Store
	cfg   ServiceConfig
}

// NewService creates a service over the given store.
func NewService(st *store.Store, cfg ServiceConfig) *Service {
	return &Service{store: st, cfg: cfg}
}

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// findRecord locates a record by ID with a linear scan over the collection.
// O(n) per request by contract: the collection is small relative to the
// graph and kept in discovery order. Callers must hold the lock.
func (s *Service) findRecord(ctx context.Context, id uint64) (*store.Record, error) {
	if s.store == nil {
		return nil, ErrNilStore
	}
	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, ErrOriginNotFound
}

// Health reports service liveness. Lock-free: touches no shared state.
func (s *Service) Health() HealthResponse {
	return HealthResponse{Status: "healthy", Service: s.cfg.ServiceName}
}

// OriginIDs returns the IDs of all origins, or — when FilterActive is set —
// only the origins whose cached statistics show at least one commit and a
// known latest commit date.
func (s *Service) OriginIDs(ctx context.Context) (OriginsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Records(ctx)
	if err != nil {
		return OriginsResponse{}, err
	}

	ids := make([]uint64, 0, len(records))
	for _, r := range records {
		if s.cfg.FilterActive {
			count := r.CommitCountCached()
			if count == nil || *count == 0 || r.LatestCommitDateCached() == nil {
				continue
			}
		}
		ids = append(ids, r.ID())
	}
	return OriginsResponse{OriginIDs: ids, Count: len(ids)}, nil
}

// OriginURL resolves (and memoizes) the URL of one origin.
func (s *Service) OriginURL(ctx context.Context, id uint64) (OriginURLResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.findRecord(ctx, id)
	if err != nil {
		return OriginURLResponse{}, err
	}
	return OriginURLResponse{OriginID: id, URL: r.ResolveURL(s.store.Graph())}, nil
}

// LatestCommitDate resolves (and memoizes) the latest commit date of one
// origin.
func (s *Service) LatestCommitDate(ctx context.Context, id uint64) (LatestCommitDateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.findRecord(ctx, id)
	if err != nil {
		return LatestCommitDateResponse{}, err
	}
	return LatestCommitDateResponse{
		OriginID:         id,
		LatestCommitDate: r.LatestCommitDate(s.store.Graph()),
	}, nil
}

// CommitterCount resolves (and memoizes) the distinct committer count of
// one origin. May traverse the full reachable history on first call.
func (s *Service) CommitterCount(ctx context.Context, id uint64) (CommitterCountResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.findRecord(ctx, id)
	if err != nil {
		return CommitterCountResponse{}, err
	}
	return CommitterCountResponse{
		OriginID:       id,
		CommitterCount: r.CommitterCount(ctx, s.store.Graph()),
	}, nil
}

// CommitCount resolves (and memoizes) the total commit count of one origin.
// May traverse the full reachable history on first call.
func (s *Service) CommitCount(ctx context.Context, id uint64) (CommitCountResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.findRecord(ctx, id)
	if err != nil {
		return CommitCountResponse{}, err
	}
	return CommitCountResponse{
		OriginID:    id,
		CommitCount: r.CommitCount(ctx, s.store.Graph()),
	}, nil
}

// AllLatestCommitDates resolves the latest commit date for every origin and
// returns the ones that have one, keyed and valued as decimal strings.
func (s *Service) AllLatestCommitDates(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, r := range records {
		if date := r.LatestCommitDate(s.store.Graph()); date != nil {
			result[strconv.FormatUint(r.ID(), 10)] = strconv.FormatInt(*date, 10)
		}
	}
	return result, nil
}

// AllCommitCounts resolves the commit count for every origin and returns
// the ones that have one, keyed and valued as decimal strings.
func (s *Service) AllCommitCounts(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, r := range records {
		if count := r.CommitCount(ctx, s.store.Graph()); count != nil {
			result[strconv.FormatUint(r.ID(), 10)] = strconv.FormatUint(*count, 10)
		}
	}
	return result, nil
}
