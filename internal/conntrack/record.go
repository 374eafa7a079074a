// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package conntrack reads the kernel connection tracking table and turns it
// into decorated per-connection records.
//
// Three sources feed the same record pipeline: the netlink dump (preferred),
// /proc/net/nf_conntrack, and an external dump command. The text sources
// share one parser; the netlink source converts flow structs directly and
// joins the pipeline at the decoration step. Records come back sorted by
// remaining lifetime, newest first, so the busiest live connections lead.
package conntrack

import (
	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/zones"
)

// StateNone is reported for entries without a protocol state, such as UDP
// and ICMP flows.
const StateNone = "NONE"

// Record is one tracked connection. Endpoints are the original direction of
// the flow; BytesOut counts traffic sent by the originator and BytesIn the
// reply direction. For ICMP the port fields carry "type/code" instead of a
// port number.
type Record struct {
	Protocol   string `json:"protocol"`
	State      string `json:"state"`
	TTLSeconds int    `json:"ttl_seconds"`

	SrcIP   string `json:"src_ip"`
	SrcPort string `json:"src_port"`
	DstIP   string `json:"dst_ip"`
	DstPort string `json:"dst_port"`

	BytesIn  uint64 `json:"bytes_in"`
	BytesOut uint64 `json:"bytes_out"`

	SrcZone      string `json:"src_zone,omitempty"`
	SrcZoneColor string `json:"src_zone_color,omitempty"`
	DstZone      string `json:"dst_zone,omitempty"`
	DstZoneColor string `json:"dst_zone_color,omitempty"`
	SrcCountry   string `json:"src_country,omitempty"`
	DstCountry   string `json:"dst_country,omitempty"`
	SrcFlagIcon  string `json:"src_flag_icon,omitempty"`
	DstFlagIcon  string `json:"dst_flag_icon,omitempty"`
}

// decorate fills the zone and country fields in place. Either decorator may
// be nil.
func decorate(r *Record, classifier *zones.Classifier, geo *geoip.Resolver) {
	if classifier != nil {
		src := classifier.Classify(r.SrcIP)
		dst := classifier.Classify(r.DstIP)
		r.SrcZone, r.SrcZoneColor = string(src.Identity), src.Color
		r.DstZone, r.DstZoneColor = string(dst.Identity), dst.Color
	}
	if geo != nil {
		r.SrcCountry = geo.Country(r.SrcIP)
		r.DstCountry = geo.Country(r.DstIP)
		r.SrcFlagIcon = geoip.FlagIconPath(r.SrcCountry)
		r.DstFlagIcon = geoip.FlagIconPath(r.DstCountry)
	}
}
