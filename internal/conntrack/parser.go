// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package conntrack

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/zones"
)

// connLine matches the header of one table entry as /proc/net/nf_conntrack
// and `conntrack -L -o extended` print it:
//
//	ipv4     2 tcp      6 431999 ESTABLISHED src=... dst=... sport=... dport=... src=... dst=... sport=... dport=... [ASSURED] mark=0 use=2
//
// The state token is absent for protocols without one.
var connLine = regexp.MustCompile(
	`^(?P<family>ipv[46])\s+\d+\s+(?P<proto>[a-z0-9-]+)\s+\d+\s+(?P<ttl>\d+)(?:\s+(?P<state>[A-Z][A-Z_0-9]*))?`,
)

// tupleGroup matches one directional field group. A valid entry carries two,
// the original direction and the reply. ICMP entries have type and code in
// place of ports.
var tupleGroup = regexp.MustCompile(
	`src=(?P<src>\S+)\s+dst=(?P<dst>\S+)\s+(?:sport=(?P<sport>\d+)\s+dport=(?P<dport>\d+)|type=(?P<type>\d+)\s+code=(?P<code>\d+))`,
)

var bytesField = regexp.MustCompile(`bytes=(\d+)`)

var (
	connLineGroups = buildGroupIndex(connLine)
	tupleGroups    = buildGroupIndex(tupleGroup)
)

func buildGroupIndex(re *regexp.Regexp) map[string]int {
	idx := make(map[string]int)
	for _, name := range re.SubexpNames() {
		if name != "" {
			idx[name] = re.SubexpIndex(name)
		}
	}
	return idx
}

// Parser turns textual table dumps into decorated records. One instance is
// shared across requests; the decorators and skip counters are instance
// state.
type Parser struct {
	zones *zones.Classifier
	geo   *geoip.Resolver

	parsed     atomic.Uint64
	parseSkips atomic.Uint64
}

// Stats are the parser's diagnostic counters.
type Stats struct {
	Parsed     uint64 `json:"parsed"`
	ParseSkips uint64 `json:"parse_skips"`
}

// NewParser returns a parser decorating records through the given
// classifier and geo resolver. Either may be nil.
func NewParser(classifier *zones.Classifier, geo *geoip.Resolver) *Parser {
	return &Parser{zones: classifier, geo: geo}
}

// Stats returns a snapshot of the diagnostic counters.
func (p *Parser) Stats() Stats {
	return Stats{
		Parsed:     p.parsed.Load(),
		ParseSkips: p.parseSkips.Load(),
	}
}

// Parse converts a table dump into decorated records, applying the filter
// in the same pass. Lines are ordered by remaining lifetime, longest
// lived first, before parsing; entries that do not carry both directional
// field groups are dropped and counted.
func (p *Parser) Parse(lines []string, f Filter) []Record {
	sorted := sortByTTL(lines)
	records := make([]Record, 0, len(sorted))
	for _, line := range sorted {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, ok := parseEntry(line)
		if !ok {
			p.parseSkips.Add(1)
			continue
		}
		if rec, keep := p.finish(rec, f); keep {
			records = append(records, rec)
		}
	}
	return records
}

// finish decorates a structurally parsed record and applies the filter.
// Every source funnels its records through here so the pipeline behaves
// the same regardless of where the entry came from.
func (p *Parser) finish(r Record, f Filter) (Record, bool) {
	p.parsed.Add(1)
	decorate(&r, p.zones, p.geo)
	if !f.matches(&r) {
		return Record{}, false
	}
	return r, true
}

// parseEntry parses one dump line. The second return is false for lines
// missing the header or either directional group.
func parseEntry(line string) (Record, bool) {
	m := connLine.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	group := func(name string) string { return m[connLineGroups[name]] }

	tuples := tupleGroup.FindAllStringSubmatchIndex(line, -1)
	if len(tuples) < 2 {
		return Record{}, false
	}
	fwd, rep := tuples[0], tuples[1]

	r := Record{
		Protocol: group("proto"),
		State:    group("state"),
		SrcIP:    tupleField(line, fwd, "src"),
		DstIP:    tupleField(line, fwd, "dst"),
	}
	if r.State == "" {
		r.State = StateNone
	}
	r.TTLSeconds, _ = strconv.Atoi(group("ttl"))
	r.SrcPort, r.DstPort = tuplePorts(line, fwd)

	// The counters trail their tuple, so the original direction's sit
	// between the two groups and the reply's after the second.
	r.BytesOut = byteCount(line[fwd[1]:rep[0]])
	r.BytesIn = byteCount(line[rep[1]:])
	return r, true
}

// tupleField returns one named capture of a directional group match, or ""
// when the branch it belongs to did not participate.
func tupleField(line string, m []int, name string) string {
	idx := tupleGroups[name]
	if 2*idx+1 >= len(m) || m[2*idx] < 0 {
		return ""
	}
	return line[m[2*idx]:m[2*idx+1]]
}

// tuplePorts returns the port pair of one directional group. ICMP entries
// render their type and code as "type/code" in both port fields.
func tuplePorts(line string, m []int) (string, string) {
	sport := tupleField(line, m, "sport")
	dport := tupleField(line, m, "dport")
	if sport != "" || dport != "" {
		return sport, dport
	}
	tc := tupleField(line, m, "type") + "/" + tupleField(line, m, "code")
	return tc, tc
}

// byteCount extracts the accounting counter from one tuple's trailing
// segment. Zero when the kernel has accounting disabled.
func byteCount(segment string) uint64 {
	m := bytesField.FindStringSubmatch(segment)
	if m == nil {
		return 0
	}
	n, _ := strconv.ParseUint(m[1], 10, 64)
	return n
}

// sortByTTL orders dump lines by the remaining-lifetime column, longest
// first, keeping dump order for ties. Lines without a recognizable header
// sink to the end, where the structural pass discards them.
func sortByTTL(lines []string) []string {
	type keyed struct {
		line string
		ttl  int
	}
	ks := make([]keyed, 0, len(lines))
	for _, l := range lines {
		ks = append(ks, keyed{line: l, ttl: ttlOf(l)})
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].ttl > ks[j].ttl })
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.line
	}
	return out
}

// ttlOf extracts the remaining-lifetime column, the first integer in the
// header that is not glued to a name token. Returns -1 for lines without
// one.
func ttlOf(line string) int {
	m := connLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return -1
	}
	ttl, err := strconv.Atoi(m[connLineGroups["ttl"]])
	if err != nil {
		return -1
	}
	return ttl
}

// sortRecords orders records the way the text pipeline emits them, by
// remaining lifetime descending.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TTLSeconds > records[j].TTLSeconds
	})
}
