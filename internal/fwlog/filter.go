// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package fwlog

import (
	"strconv"
	"strings"
)

// Filter is the field-level predicate applied in search mode. Zero values
// disable their clause; an all-zero filter passes everything.
type Filter struct {
	// IP is matched as a substring against source and destination.
	IP string
	// Port matches either endpoint exactly. Zero disables.
	Port int
	// Protocol is a case-insensitive prefix match ("tc" matches tcp).
	Protocol string
	// Interface matches the in or out interface exactly.
	Interface string
	// Action matches the netfilter log prefix exactly.
	Action string
}

// Empty reports whether no clause is active.
func (f Filter) Empty() bool {
	return f.IP == "" && f.Port == 0 && f.Protocol == "" && f.Interface == "" && f.Action == ""
}

func (f Filter) matches(r Record) bool {
	if f.IP != "" && !strings.Contains(r.SrcIP, f.IP) && !strings.Contains(r.DstIP, f.IP) {
		return false
	}
	if f.Port != 0 && r.SrcPort != f.Port && r.DstPort != f.Port {
		return false
	}
	if f.Protocol != "" && !strings.HasPrefix(r.Protocol, strings.ToLower(f.Protocol)) {
		return false
	}
	if f.Interface != "" && r.In != f.Interface && r.Out != f.Interface {
		return false
	}
	if f.Action != "" && r.Action != f.Action {
		return false
	}
	return true
}

// Apply returns the records passing the filter. An empty filter returns
// the input unchanged.
func (f Filter) Apply(records []Record) []Record {
	if f.Empty() {
		return records
	}
	var keep []Record
	for _, r := range records {
		if f.matches(r) {
			keep = append(keep, r)
		}
	}
	return keep
}

// ParseFilter builds a Filter from raw query values. Invalid values
// disable their clause rather than failing the request.
func ParseFilter(ip, port, protocol, iface, action string) Filter {
	f := Filter{
		IP:        strings.TrimSpace(ip),
		Protocol:  strings.TrimSpace(protocol),
		Interface: strings.TrimSpace(iface),
		Action:    strings.TrimSpace(action),
	}
	if p, err := strconv.Atoi(strings.TrimSpace(port)); err == nil && p > 0 && p <= 65535 {
		f.Port = p
	}
	return f
}
