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
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handlers contains the HTTP handlers for the origins service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// HandleOrigins handles GET /origins.
func (h *Handlers) HandleOrigins(c *gin.Context) {
	resp, err := h.svc.OriginIDs(c.Request.Context())
	if err != nil {
		h.fail(c, "origins", 0, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleOriginURL handles GET /origins/:id/url.
func (h *Handlers) HandleOriginURL(c *gin.Context) {
	id, ok := h.originID(c)
	if !ok {
		return
	}
	resp, err := h.svc.OriginURL(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "url", id, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleLatestCommitDate handles GET /origins/:id/latest-commit-date.
func (h *Handlers) HandleLatestCommitDate(c *gin.Context) {
	id, ok := h.originID(c)
	if !ok {
		return
	}
	resp, err := h.svc.LatestCommitDate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "latest-commit-date", id, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCommitterCount handles GET /origins/:id/committer-count.
func (h *Handlers) HandleCommitterCount(c *gin.Context) {
	id, ok := h.originID(c)
	if !ok {
		return
	}
	resp, err := h.svc.CommitterCount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "committer-count", id, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCommitCount handles GET /origins/:id/commit-count.
func (h *Handlers) HandleCommitCount(c *gin.Context) {
	id, ok := h.originID(c)
	if !ok {
		return
	}
	resp, err := h.svc.CommitCount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "commit-count", id, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleAllLatestCommitDates handles GET /origins/latest-commit-dates.
func (h *Handlers) HandleAllLatestCommitDates(c *gin.Context) {
	result, err := h.svc.AllLatestCommitDates(c.Request.Context())
	if err != nil {
		h.fail(c, "latest-commit-dates", 0, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleAllCommitCounts handles GET /origins/commit-counts.
func (h *Handlers) HandleAllCommitCounts(c *gin.Context) {
	result, err := h.svc.AllCommitCounts(c.Request.Context())
	if err != nil {
		h.fail(c, "commit-counts", 0, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// originID parses the :id path parameter. Responds 400 and returns ok=false
// on malformed IDs.
func (h *Handlers) originID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid origin id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors onto HTTP status codes: unknown origin is 404,
// anything else is a 500 logged with the origin ID and operation name.
func (h *Handlers) fail(c *gin.Context, op string, id uint64, err error) {
	if errors.Is(err, ErrOriginNotFound) {
		slog.Warn("origin not found",
			slog.String("operation", op),
			slog.Uint64("origin_id", id))
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrOriginNotFound.Error()})
		return
	}
	slog.Error("request failed",
		slog.String("operation", op),
		slog.Uint64("origin_id", id),
		slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
