// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"net/http"

	"grimm.is/firewatch/internal/zones"
)

type zoneInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type zonesResponse struct {
	Zones    []zoneInfo      `json:"zones"`
	Bindings []zones.Binding `json:"bindings"`
	Stats    zones.Stats     `json:"stats"`
}

// handleZones serves the zone legend plus the live binding table with each
// binding's source, for debugging misclassification.
func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeError(w, http.StatusServiceUnavailable, "zone classifier not configured")
		return
	}

	ids := zones.Identities()
	infos := make([]zoneInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, zoneInfo{Name: string(id), Color: zones.ColorFor(id)})
	}

	writeJSON(w, http.StatusOK, zonesResponse{
		Zones:    infos,
		Bindings: s.classifier.Bindings(),
		Stats:    s.classifier.Stats(),
	})
}
