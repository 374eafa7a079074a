// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"grimm.is/firewatch/internal/aggregate"
)

const todayQuery = "day=25&month=8&year=2026"

func TestGroupedByIP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, wanLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/ip?"+todayQuery)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var rows []aggregate.Row
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, row := range rows {
		if row.Count != 1 {
			t.Errorf("row %q count = %d, want 1", row.Key, row.Count)
		}
	}
	// One sample per address, so first-seen order decides the ranking.
	if rows[0].Key != "203.0.113.50" {
		t.Errorf("first row = %q, want 203.0.113.50", rows[0].Key)
	}
	if rows[0].Zone != "INTERNET" || rows[0].Color != "red" {
		t.Errorf("decoration = (%q, %q), want (INTERNET, red)", rows[0].Zone, rows[0].Color)
	}
}

func TestGroupedByPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, tcpLine, udpLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/port?"+todayQuery)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var rows []aggregate.Row
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Key != "22" || rows[0].Count != 2 {
		t.Errorf("first row = %q x%d, want 22 x2", rows[0].Key, rows[0].Count)
	}
	if rows[0].Percent != 66.7 {
		t.Errorf("percent = %v, want 66.7", rows[0].Percent)
	}
}

func TestGroupedLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, wanLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/ip?"+todayQuery+"&limit=2")
	var rows []aggregate.Row
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestGroupedNoDataLegacyShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/ip?day=20&month=8&year=2026")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with the legacy error shape", rr.Code)
	}
	var body []map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0]["error"] == "" {
		t.Fatalf("body = %v, want a single-element error array", body)
	}
}

func TestGroupedMissingLogLegacyShape(t *testing.T) {
	s := testServer(t, filepath.Join(t.TempDir(), "no-such-log"))

	rr := doGet(t, s, "/api/v1/log/firewall/ip?"+todayQuery)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with the legacy error shape", rr.Code)
	}
	var body []map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0]["error"] == "" {
		t.Fatalf("body = %v, want a single-element error array", body)
	}
}

func TestGroupedZoneFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, wanLine)
	s := testServer(t, path)

	// tcpLine's destination and udpLine's source sit in the LAN binding;
	// wanLine touches it on neither side.
	rr := doGet(t, s, "/api/v1/log/firewall/ip?"+todayQuery+"&zones=lan")
	var rows []aggregate.Row
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Key == "198.51.100.9" {
			t.Errorf("zone filter leaked %q", row.Key)
		}
	}

	// The zone color is as good as its identity.
	rr = doGet(t, s, "/api/v1/log/firewall/ip?"+todayQuery+"&zones=GREEN")
	rows = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("color form: got %d rows, want 2", len(rows))
	}
}

func TestRawTailCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/raw")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var first rawResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(first.Records) != 1 || first.Cursor == "" {
		t.Fatalf("first poll: %d records, cursor %q", len(first.Records), first.Cursor)
	}

	// Nothing new yet.
	rr = doGet(t, s, "/api/v1/log/firewall/raw?cursor="+url.QueryEscape(first.Cursor))
	var second rawResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(second.Records) != 0 {
		t.Fatalf("unmodified file returned %d records", len(second.Records))
	}

	appendLog(t, path, udpLine+"\n")
	rr = doGet(t, s, "/api/v1/log/firewall/raw?cursor="+url.QueryEscape(second.Cursor))
	var third rawResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &third); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(third.Records) != 1 || third.Records[0].SrcIP != "192.168.1.50" {
		t.Fatalf("new lines poll: %+v", third.Records)
	}
	if third.Records[0].SrcZone != "LAN" {
		t.Errorf("src zone = %q, want LAN", third.Records[0].SrcZone)
	}
}

func TestRawSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, wanLine)
	s := testServer(t, path)

	rr := doGet(t, s, "/api/v1/log/firewall/raw?searchEnabled=true&ip=203.0.113")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp rawResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].SrcIP != "203.0.113.50" {
		t.Fatalf("search results: %+v", resp.Records)
	}
	if resp.Cursor != "" {
		t.Errorf("search response carries cursor %q", resp.Cursor)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.Local)
	tests := []struct {
		name  string
		query string
		want  time.Time
	}{
		{"all defaults", "", time.Date(2026, time.August, 25, 0, 0, 0, 0, time.Local)},
		{"explicit", "day=3&month=1&year=2025", time.Date(2025, time.January, 3, 0, 0, 0, 0, time.Local)},
		{"day only", "day=4", time.Date(2026, time.August, 4, 0, 0, 0, 0, time.Local)},
		{"garbage falls back", "day=banana&month=44&year=12", time.Date(2026, time.August, 25, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got := parseDate(q, now)
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" lan, wan ,,GREEN ")
	want := []string{"lan", "wan", "GREEN"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
	if splitList("  ") != nil {
		t.Error("blank input should yield nil")
	}
}
