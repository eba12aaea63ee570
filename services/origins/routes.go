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

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all origins routes with the router.
//
// Endpoints:
//
//	GET /health                              - Health check
//	GET /origins                             - Origin IDs (filtered when configured)
//	GET /origins/latest-commit-dates         - id -> latest commit date, all origins
//	GET /origins/commit-counts               - id -> commit count, all origins
//	GET /origins/:id/url                     - Origin URL
//	GET /origins/:id/latest-commit-date      - Latest commit date
//	GET /origins/:id/committer-count         - Distinct committer count
//	GET /origins/:id/commit-count            - Total commit count
func RegisterRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/health", handlers.HandleHealth)

	router.GET("/origins", handlers.HandleOrigins)
	router.GET("/origins/latest-commit-dates", handlers.HandleAllLatestCommitDates)
	router.GET("/origins/commit-counts", handlers.HandleAllCommitCounts)

	router.GET("/origins/:id/url", handlers.HandleOriginURL)
	router.GET("/origins/:id/latest-commit-date", handlers.HandleLatestCommitDate)
	router.GET("/origins/:id/committer-count", handlers.HandleCommitterCount)
	router.GET("/origins/:id/commit-count", handlers.HandleCommitCount)
}
