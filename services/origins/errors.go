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

import "errors"

// Sentinel errors for the origins service.
var (
	// ErrOriginNotFound indicates no record exists for the requested ID.
	// Surfaced as a 404; shared state is never mutated on this path.
	ErrOriginNotFound = errors.New("origin not found")

	// ErrNilStore indicates the service was constructed without a store.
	ErrNilStore = errors.New("store must not be nil")
)
