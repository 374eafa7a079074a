// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"net/http"
	"strings"

	"grimm.is/firewatch/internal/conntrack"
)

// handleConnections serves a decorated snapshot of the connection tracking
// table, longest remaining lifetime first. An empty table is an empty
// array; a failed dump is an explicit error.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if s.conns == nil {
		writeError(w, http.StatusServiceUnavailable, "connection table source not configured")
		return
	}
	q := r.URL.Query()
	f := conntrack.Filter{
		Zones:    splitList(q.Get("zones")),
		IP:       strings.TrimSpace(q.Get("ip")),
		Port:     strings.TrimSpace(q.Get("port")),
		Protocol: strings.TrimSpace(q.Get("protocol")),
	}

	records, err := s.conns.Snapshot(r.Context(), f)
	if err != nil {
		s.logger.Warn("connection snapshot failed", "error", err)
		writeKindError(w, err)
		return
	}
	if records == nil {
		records = []conntrack.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
