// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package origins

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// OriginsResponse is returned by GET /origins.
type OriginsResponse struct {
	OriginIDs []uint64 `json:"origin_ids"`
	Count     int      `json:"count"`
}

// OriginURLResponse is returned by GET /origins/:id/url.
type OriginURLResponse struct {
	OriginID uint64  `json:"origin_id"`
	URL      *string `json:"url"`
}

// LatestCommitDateResponse is returned by GET /origins/:id/latest-commit-date.
type LatestCommitDateResponse struct {
	OriginID         uint64 `json:"origin_id"`
	LatestCommitDate *int64 `json:"latest_commit_date"`
}

// CommitterCountResponse is returned by GET /origins/:id/committer-count.
type CommitterCountResponse struct {
	OriginID       uint64  `json:"origin_id"`
	CommitterCount *uint64 `json:"committer_count"`
}

// CommitCountResponse is returned by GET /origins/:id/commit-count.
type CommitCountResponse struct {
	OriginID    uint64  `json:"origin_id"`
	CommitCount *uint64 `json:"commit_count"`
}

// ErrorResponse is the body of 4xx/5xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
