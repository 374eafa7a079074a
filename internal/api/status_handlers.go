// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"net/http"
	"time"

	"grimm.is/firewatch/internal/brand"
	"grimm.is/firewatch/internal/conntrack"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/metrics"
	"grimm.is/firewatch/internal/zones"
)

type statusResponse struct {
	Version       string    `json:"version"`
	Started       time.Time `json:"started"`
	UptimeSeconds int64     `json:"uptime_seconds"`

	Zones     *zones.Stats     `json:"zones,omitempty"`
	Log       *fwlog.Stats     `json:"log,omitempty"`
	Snapshots *conntrack.Stats `json:"snapshots,omitempty"`
	DNSCache  int              `json:"dns_cache_entries"`

	Conntrack  *metrics.ConntrackStats            `json:"conntrack,omitempty"`
	Interfaces map[string]*metrics.InterfaceStats `json:"interfaces,omitempty"`
	System     *metrics.SystemStats               `json:"system,omitempty"`
	LastSample *time.Time                         `json:"last_sample,omitempty"`
}

// handleStatus reports daemon identity, per-component diagnostic counters,
// and the collector's latest kernel samples.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Version:       brand.Version,
		Started:       s.startTime,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if s.classifier != nil {
		st := s.classifier.Stats()
		resp.Zones = &st
	}
	if s.reader != nil {
		st := s.reader.Stats()
		resp.Log = &st
	}
	if s.snapshots != nil {
		st := s.snapshots.Stats()
		resp.Snapshots = &st
	}
	if s.names != nil {
		resp.DNSCache = s.names.CacheSize()
	}
	if s.collector != nil {
		resp.Conntrack = s.collector.GetConntrackStats()
		resp.Interfaces = s.collector.GetInterfaceStats()
		resp.System = s.collector.GetSystemStats()
		if t := s.collector.GetLastUpdate(); !t.IsZero() {
			resp.LastSample = &t
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
