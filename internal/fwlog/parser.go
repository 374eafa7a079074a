// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package fwlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// logLine matches one kernel netfilter log line as syslog writes it:
//
//	Jan  2 15:04:05 fw kernel: DROP_INPUT IN=eth0 OUT= MAC=00:.. SRC=1.2.3.4 DST=5.6.7.8 ... PROTO=TCP SPT=49152 DPT=443 ...
//
// The action token is the netfilter log prefix. Ports are absent for
// protocols without them.
var logLine = regexp.MustCompile(
	`^(?P<time>\w{3}\s+\d+\s+[\d:]+)\s+(?P<host>\S+)\s+kernel:\s+(?P<action>\S+)\s+` +
		`IN=(?P<in>\S*)\s+OUT=(?P<out>\S*)\s*(?:MAC=(?P<mac>\S*)\s+)?` +
		`.*?SRC=(?P<src>\S+)\s+DST=(?P<dst>\S+)` +
		`.*?PROTO=(?P<proto>\S+)` +
		`(?:.*?SPT=(?P<spt>\d+))?(?:.*?DPT=(?P<dpt>\d+))?`,
)

var logLineGroups = buildGroupIndex(logLine)

func buildGroupIndex(re *regexp.Regexp) map[string]int {
	idx := make(map[string]int)
	for _, name := range re.SubexpNames() {
		if name != "" {
			idx[name] = re.SubexpIndex(name)
		}
	}
	return idx
}

// looksLikeFirewallLine is the cheap structural prefilter applied before
// the full pattern. Anything failing it cannot be a netfilter log line.
func looksLikeFirewallLine(line string) bool {
	return strings.Contains(line, " kernel: ") &&
		strings.Contains(line, "IN=") &&
		strings.Contains(line, "SRC=")
}

// parseLine parses one log line. The second return is false for lines that
// do not match the structural pattern; callers count those, nothing more.
// now anchors the year inference for the year-less syslog timestamp.
func parseLine(line string, now time.Time) (Record, bool) {
	m := logLine.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	group := func(name string) string { return m[logLineGroups[name]] }

	ts, ok := parseSyslogTime(group("time"), now)
	if !ok {
		return Record{}, false
	}

	r := Record{
		Time:     ts,
		Action:   group("action"),
		In:       group("in"),
		Out:      group("out"),
		MAC:      group("mac"),
		SrcIP:    group("src"),
		DstIP:    group("dst"),
		Protocol: strings.ToLower(group("proto")),
	}
	if spt := group("spt"); spt != "" {
		r.SrcPort, _ = strconv.Atoi(spt)
	}
	if dpt := group("dpt"); dpt != "" {
		r.DstPort, _ = strconv.Atoi(dpt)
	}
	return r, true
}

// parseSyslogTime parses "Jan  2 15:04:05" and infers the year, which the
// syslog timestamp does not carry. A timestamp that would land more than a
// day in the future belongs to the previous year (December lines read in
// January).
func parseSyslogTime(s string, now time.Time) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	t, err := time.Parse("Jan 2 15:04:05", s)
	if err != nil {
		return time.Time{}, false
	}
	ts := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	if ts.After(now.Add(24 * time.Hour)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, true
}

// dayPrefix renders the month-day form syslog uses, with the day padded to
// two columns ("Jan  2", "Jan 12"). Lines are prefiltered on this text
// before full parsing.
func dayPrefix(t time.Time) string {
	day := strconv.Itoa(t.Day())
	if len(day) == 1 {
		day = " " + day
	}
	return t.Format("Jan") + " " + day
}
