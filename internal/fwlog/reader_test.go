// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package fwlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/errors"
)

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func appendLog(t *testing.T, path, chunk string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(chunk); err != nil {
		t.Fatal(err)
	}
}

func testReader(t *testing.T, path string) (*Reader, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(parserNow())
	return NewReader(path, clk, nil), clk
}

func TestDayFiltersByDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path,
		"Aug 24 09:00:00 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=1.1.1.1 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=2",
		tcpLine,
		udpLine,
		"Aug 25 11:00:00 fw sshd[9]: not a firewall line",
	)
	r, _ := testReader(t, path)

	records, err := r.Day(time.Date(2026, time.August, 25, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SrcIP != "203.0.113.50" || records[1].SrcIP != "192.168.1.50" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestDayYearMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path,
		"Dec 31 23:59:58 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=1.1.1.1 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=2",
	)
	r, clk := testReader(t, path)
	clk.Set(time.Date(2026, time.January, 2, 8, 0, 0, 0, time.Local))

	// The line is inferred as Dec 31 2025.
	records, err := r.Day(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("previous-year query: got %d records, want 1", len(records))
	}

	records, err = r.Day(time.Date(2026, time.December, 31, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("wrong-year query: got %d records, want 0", len(records))
	}
}

func TestDayMissingFileIsUnavailable(t *testing.T) {
	r, _ := testReader(t, filepath.Join(t.TempDir(), "nope"))

	_, err := r.Day(parserNow())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.IsKind(err, errors.KindUnavailable) {
		t.Errorf("error kind = %v, want KindUnavailable", errors.GetKind(err))
	}
}

func TestWholeFileCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine)
	r, _ := testReader(t, path)

	day := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.Local)
	if _, err := r.Day(day); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Day(day); err != nil {
		t.Fatal(err)
	}

	stats := r.Stats()
	if stats.FileReads != 1 {
		t.Errorf("file reads = %d, want 1", stats.FileReads)
	}
	if stats.CacheHits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.CacheHits)
	}

	// Growth invalidates the cached generation.
	appendLog(t, path, udpLine+"\n")
	records, err := r.Day(day)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("after append: got %d records, want 2", len(records))
	}
	if r.Stats().FileReads != 2 {
		t.Errorf("file reads = %d, want 2", r.Stats().FileReads)
	}
}

func TestSearchFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, icmpLine)
	r, _ := testReader(t, path)

	records, err := r.Search(Filter{IP: "203.0.113"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].DstPort != 22 {
		t.Errorf("ip filter: %+v", records)
	}

	records, err = r.Search(Filter{Port: 53})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Protocol != "udp" {
		t.Errorf("port filter: %+v", records)
	}

	records, err = r.Search(Filter{Protocol: "IC"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Protocol != "icmp" {
		t.Errorf("protocol prefix filter: %+v", records)
	}

	records, err = r.Search(Filter{Interface: "eth1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Action != "FORWARDFW" {
		t.Errorf("interface filter: %+v", records)
	}

	records, err = r.Search(Filter{Action: "DROP_INPUT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("action filter: got %d, want 2", len(records))
	}

	records, err = r.Search(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("empty filter: got %d, want 3", len(records))
	}
}

func TestTailSequentialNoDuplication(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine)
	r, _ := testReader(t, path)

	first, cur, err := r.Tail(Cursor{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("first poll: got %d records, want 2", len(first))
	}

	// Nothing appended: no records, cursor stable.
	second, cur2, err := r.Tail(cur, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("idle poll returned %d records, want 0", len(second))
	}
	if cur2 != cur {
		t.Errorf("idle poll moved cursor: %v -> %v", cur, cur2)
	}

	appendLog(t, path, icmpLine+"\n")
	third, _, err := r.Tail(cur2, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(third) != 1 || third[0].Protocol != "icmp" {
		t.Errorf("append poll: %+v", third)
	}
}

func TestTailPartialLineStaysPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine)
	r, _ := testReader(t, path)

	_, cur, err := r.Tail(Cursor{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// A write without the trailing newline is not consumed yet.
	appendLog(t, path, udpLine)
	records, cur2, err := r.Tail(cur, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("partial line produced %d records, want 0", len(records))
	}
	if cur2.Offset != cur.Offset {
		t.Errorf("partial line moved offset: %d -> %d", cur.Offset, cur2.Offset)
	}

	appendLog(t, path, "\n")
	records, _, err = r.Tail(cur2, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Protocol != "udp" {
		t.Errorf("completed line: %+v", records)
	}
}

func TestTailTruncationResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path, tcpLine, udpLine, icmpLine)
	r, _ := testReader(t, path)

	_, cur, err := r.Tail(Cursor{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Rotation replaced the file with a shorter one.
	writeLog(t, path, tcpLine)
	records, cur2, err := r.Tail(cur, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("post-rotation poll: got %d records, want 1", len(records))
	}
	if cur2.Offset == cur.Offset {
		t.Error("cursor did not reset after truncation")
	}
}

func TestTailLimitKeepsNewest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path,
		"Aug 25 10:00:01 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=10.0.0.1 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=80",
		"Aug 25 10:00:02 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=10.0.0.2 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=80",
		"Aug 25 10:00:03 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=10.0.0.3 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=80",
	)
	r, _ := testReader(t, path)

	records, _, err := r.Tail(Cursor{}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SrcIP != "10.0.0.2" || records[1].SrcIP != "10.0.0.3" {
		t.Errorf("limit kept wrong records: %+v", records)
	}
}

func TestTailFreshnessWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path,
		"Aug 25 08:00:00 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=10.0.0.1 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=80",
		"Aug 25 11:59:00 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=m SRC=10.0.0.2 DST=2.2.2.2 PROTO=TCP SPT=1 DPT=80",
	)
	r, _ := testReader(t, path) // clock frozen at 12:00

	records, _, err := r.Tail(Cursor{}, 0, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].SrcIP != "10.0.0.2" {
		t.Errorf("freshness window: %+v", records)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cur := Cursor{Offset: 4096, Inode: 123456}
	if got := ParseCursor(cur.String()); got != cur {
		t.Errorf("round trip: %v -> %q -> %v", cur, cur.String(), got)
	}

	for _, s := range []string{"", "junk", "1:", ":2", "a:b", "5:-3"} {
		if got := ParseCursor(s); got != (Cursor{}) {
			t.Errorf("ParseCursor(%q) = %v, want zero cursor", s, got)
		}
	}
}

func TestParseSkipsCounted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	writeLog(t, path,
		tcpLine,
		"Aug 25 10:20:00 fw kernel: IN=eth0 SRC=broken but structural",
	)
	r, _ := testReader(t, path)

	if _, err := r.Search(Filter{}); err != nil {
		t.Fatal(err)
	}
	if got := r.Stats().ParseSkips; got != 1 {
		t.Errorf("parse skips = %d, want 1", got)
	}
}
