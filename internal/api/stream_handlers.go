// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/firewatch/internal/fwlog"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPollPeriod = time.Second
	streamPollMin    = 250 * time.Millisecond
	streamPollMax    = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleLogStream upgrades to a websocket and pushes firewall log records
// as they are appended. The first poll sends the newest records already in
// the file and pins the cursor to its end; later polls send only new
// complete lines. Filters match the raw endpoint's.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "firewall log not configured")
		return
	}
	q := r.URL.Query()
	filter := queryFilter(q)
	zoneNames := splitList(q.Get("zones"))
	limit := parseLimit(q.Get("limit"), s.tailLimit())
	interval := parsePoll(q.Get("interval"))

	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()

	// Read pump to detect close and cleanup
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var cur fwlog.Cursor
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		records, next, err := s.reader.Tail(cur, limit, 0)
		if err != nil {
			// The file may be mid-rotation; keep polling.
			s.logger.Debug("stream poll failed", "error", err)
		} else {
			cur = next
			records = filter.Apply(records)
			records = s.filterZones(records, zoneNames)
			fwlog.Decorate(records, s.classifier, s.geo)
			for _, rec := range records {
				c.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := c.WriteJSON(rec); err != nil {
					return
				}
			}
		}

		select {
		case <-done:
			return
		case <-r.Context().Done():
			c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

// parsePoll bounds the client's poll interval.
func parsePoll(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < streamPollMin || d > streamPollMax {
		return streamPollPeriod
	}
	return d
}
