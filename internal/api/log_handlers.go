// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"grimm.is/firewatch/internal/aggregate"
	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/zones"
)

// handleLogGrouped serves the ranked firewall log tables: top source
// addresses, top destination ports, or top source countries for one day or
// for a filtered search of the whole file.
func (s *Server) handleLogGrouped(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "firewall log not configured")
		return
	}
	q := r.URL.Query()
	group := aggregate.ParseGroupBy(mux.Vars(r)["group"])
	limit := parseLimit(q.Get("limit"), aggregate.DefaultLimit)

	records, err := s.logRecords(q)
	if err != nil {
		writeLegacyError(w, err)
		return
	}
	records = s.filterZones(records, splitList(q.Get("zones")))

	samples := aggregate.LogSamples(records, group, s.geo)
	rows, err := aggregate.Aggregate(samples, limit)
	if err != nil {
		writeLegacyError(w, err)
		return
	}
	aggregate.Decorate(rows, samples, group, s.classifier, s.geo, s.names)
	writeJSON(w, http.StatusOK, rows)
}

// rawResponse carries raw records plus the cursor to pass back on the next
// tail poll. Search responses omit the cursor.
type rawResponse struct {
	Records []fwlog.Record `json:"records"`
	Cursor  string         `json:"cursor,omitempty"`
}

// handleLogRaw serves individual log records. With searchEnabled it scans
// the whole file under the field filters; otherwise it tails from the
// client's cursor, returning only lines appended since the last poll.
func (s *Server) handleLogRaw(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "firewall log not configured")
		return
	}
	q := r.URL.Query()

	if parseBool(q.Get("searchEnabled")) {
		records, err := s.reader.Search(queryFilter(q))
		if err != nil {
			writeLegacyError(w, err)
			return
		}
		records = s.filterZones(records, splitList(q.Get("zones")))
		fwlog.Decorate(records, s.classifier, s.geo)
		writeJSON(w, http.StatusOK, rawResponse{Records: nonNil(records)})
		return
	}

	cur := fwlog.ParseCursor(q.Get("cursor"))
	limit := parseLimit(q.Get("limit"), s.tailLimit())
	records, next, err := s.reader.Tail(cur, limit, parseAge(q.Get("max_age")))
	if err != nil {
		writeLegacyError(w, err)
		return
	}
	records = queryFilter(q).Apply(records)
	records = s.filterZones(records, splitList(q.Get("zones")))
	fwlog.Decorate(records, s.classifier, s.geo)
	writeJSON(w, http.StatusOK, rawResponse{Records: nonNil(records), Cursor: next.String()})
}

// logRecords reads the day or search window the query asks for.
func (s *Server) logRecords(q url.Values) ([]fwlog.Record, error) {
	if parseBool(q.Get("searchEnabled")) {
		return s.reader.Search(queryFilter(q))
	}
	return s.reader.Day(parseDate(q, clock.Now()))
}

// filterZones keeps records with either endpoint in one of the named
// zones. Names match the zone identity or its color, ignoring case.
func (s *Server) filterZones(records []fwlog.Record, names []string) []fwlog.Record {
	if len(names) == 0 || s.classifier == nil {
		return records
	}
	var keep []fwlog.Record
	for _, rec := range records {
		if zoneNameMatch(names, s.classifier.Classify(rec.SrcIP)) ||
			zoneNameMatch(names, s.classifier.Classify(rec.DstIP)) {
			keep = append(keep, rec)
		}
	}
	return keep
}

func zoneNameMatch(names []string, res zones.Result) bool {
	for _, n := range names {
		if n == "" {
			continue
		}
		if strings.EqualFold(n, string(res.Identity)) || strings.EqualFold(n, res.Color) {
			return true
		}
	}
	return false
}

func queryFilter(q url.Values) fwlog.Filter {
	return fwlog.ParseFilter(q.Get("ip"), q.Get("port"), q.Get("protocol"), q.Get("interface"), q.Get("action"))
}

func (s *Server) tailLimit() int {
	if s.Config != nil && s.Config.Log != nil && s.Config.Log.TailLimit > 0 {
		return s.Config.Log.TailLimit
	}
	return fwlog.DefaultTailLimit
}

// parseDate assembles the requested day from day/month/year fields,
// filling anything missing or out of range from the current date.
func parseDate(q url.Values, now time.Time) time.Time {
	day, month, year := now.Day(), int(now.Month()), now.Year()
	if v, err := strconv.Atoi(q.Get("day")); err == nil && v >= 1 && v <= 31 {
		day = v
	}
	if v, err := strconv.Atoi(q.Get("month")); err == nil && v >= 1 && v <= 12 {
		month = v
	}
	if v, err := strconv.Atoi(q.Get("year")); err == nil && v >= 1970 && v <= now.Year()+1 {
		year = v
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
}

// parseLimit returns the requested row cap, or def when the value is
// missing or not a positive integer.
func parseLimit(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// parseAge parses a record age bound. Missing or invalid disables it.
func parseAge(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// splitList splits a comma-separated parameter, dropping empty entries.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNil(records []fwlog.Record) []fwlog.Record {
	if records == nil {
		return []fwlog.Record{}
	}
	return records
}
