// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package fwlog reads and parses the kernel-sourced firewall log.
//
// The same append-only, externally rotated file is read in two modes: a
// whole-file mode that feeds grouped statistics, cached by mtime so tight
// polling loops do not re-read an unchanged file, and an incremental tail
// mode driven by a caller-owned byte cursor. Lines that do not look like
// netfilter log output are skipped and counted, never surfaced as errors.
package fwlog

import (
	"time"

	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/zones"
)

// Record is one parsed firewall log line plus its zone and country
// decoration.
type Record struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	In       string    `json:"in_interface"`
	Out      string    `json:"out_interface"`
	MAC      string    `json:"mac,omitempty"`
	SrcIP    string    `json:"src_ip"`
	DstIP    string    `json:"dst_ip"`
	Protocol string    `json:"protocol"`
	SrcPort  int       `json:"src_port,omitempty"`
	DstPort  int       `json:"dst_port,omitempty"`

	SrcZone      string `json:"src_zone,omitempty"`
	SrcZoneColor string `json:"src_zone_color,omitempty"`
	DstZone      string `json:"dst_zone,omitempty"`
	DstZoneColor string `json:"dst_zone_color,omitempty"`
	SrcCountry   string `json:"src_country,omitempty"`
	DstCountry   string `json:"dst_country,omitempty"`
	SrcFlagIcon  string `json:"src_flag_icon,omitempty"`
	DstFlagIcon  string `json:"dst_flag_icon,omitempty"`
	SrcInfoURL   string `json:"src_info_url,omitempty"`
	DstInfoURL   string `json:"dst_info_url,omitempty"`
}

// Decorate fills the zone and country fields of each record in place.
// Either decorator may be nil.
func Decorate(records []Record, classifier *zones.Classifier, geo *geoip.Resolver) {
	for i := range records {
		r := &records[i]
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
			r.SrcInfoURL = geoip.InfoURL(r.SrcIP)
			r.DstInfoURL = geoip.InfoURL(r.DstIP)
		}
	}
}
