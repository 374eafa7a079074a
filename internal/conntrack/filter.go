// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package conntrack

import "strings"

// Filter narrows a snapshot. Zero-valued clauses are off; a record must
// satisfy every active clause. Matching happens after decoration so the
// zone clause can see the classifier's verdict.
type Filter struct {
	// Zones keeps records where either endpoint sits in one of the named
	// zones. Entries match the zone identity or its color, ignoring case.
	Zones []string
	// IP is a substring match on either address.
	IP string
	// Port is an exact match on either port field. ICMP records compare
	// against their "type/code" form.
	Port string
	// Protocol is a case-insensitive substring match.
	Protocol string
}

// Empty reports whether no clause is active.
func (f Filter) Empty() bool {
	return len(f.Zones) == 0 && f.IP == "" && f.Port == "" && f.Protocol == ""
}

func (f Filter) matches(r *Record) bool {
	if len(f.Zones) > 0 && !f.zoneMatch(r) {
		return false
	}
	if f.IP != "" && !strings.Contains(r.SrcIP, f.IP) && !strings.Contains(r.DstIP, f.IP) {
		return false
	}
	if f.Port != "" && r.SrcPort != f.Port && r.DstPort != f.Port {
		return false
	}
	if f.Protocol != "" && !strings.Contains(strings.ToLower(r.Protocol), strings.ToLower(f.Protocol)) {
		return false
	}
	return true
}

func (f Filter) zoneMatch(r *Record) bool {
	for _, z := range f.Zones {
		z = strings.ToLower(strings.TrimSpace(z))
		if z == "" {
			continue
		}
		if z == strings.ToLower(r.SrcZone) || z == strings.ToLower(r.DstZone) {
			return true
		}
		if z == r.SrcZoneColor || z == r.DstZoneColor {
			return true
		}
	}
	return false
}
