package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/rumorpulse/internal/app"
	apperrors "github.com/pscheid92/rumorpulse/internal/platform/errors"
)

// handleListAudit pages through the audit log, newest first. Pass the
// returned next_before as before to fetch the following page.
func (s *Server) handleListAudit(c echo.Context) error {
	var (
		limit  int
		before time.Time
	)
	err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Time("before", &before, time.RFC3339Nano).
		BindError()
	if err != nil {
		return apperrors.ValidationError("limit must be an integer and before an RFC 3339 timestamp")
	}

	entries, err := s.app.ListAudit(c.Request().Context(), limit, before)
	if err != nil {
		return err
	}

	resp := auditPageResponse{Entries: make([]auditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, newAuditEntryResponse(e))
	}
	if n := len(entries); n > 0 && n == app.PageSize(limit) {
		next := entries[n-1].CreatedAt
		resp.NextBefore = &next
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
