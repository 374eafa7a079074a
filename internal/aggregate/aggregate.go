// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package aggregate groups typed records by a key, ranks groups by count,
// and annotates the surviving rows with percentages and zone/geo/host
// decoration for the UI tables.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	"grimm.is/firewatch/internal/errors"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/revdns"
	"grimm.is/firewatch/internal/zones"
)

// DefaultLimit is the row cap when the caller does not choose one.
const DefaultLimit = 10

// GroupBy selects the aggregation key.
type GroupBy string

const (
	ByIP      GroupBy = "ip"
	ByPort    GroupBy = "port"
	ByCountry GroupBy = "country"
)

// ParseGroupBy maps a request parameter to a grouping. Unknown values fall
// back to grouping by IP.
func ParseGroupBy(s string) GroupBy {
	switch GroupBy(s) {
	case ByIP, ByPort, ByCountry:
		return GroupBy(s)
	default:
		return ByIP
	}
}

// Sample is one record reduced to its group key plus the address used to
// decorate that key. Samples with an empty key are skipped entirely.
type Sample struct {
	Key string
	IP  string
}

// Row is one ranked group.
type Row struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`

	Zone     string `json:"zone,omitempty"`
	Color    string `json:"color,omitempty"`
	Label    string `json:"label,omitempty"`
	FlagIcon string `json:"flag_icon,omitempty"`
	InfoURL  string `json:"info_url,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// Aggregate counts samples per key, sorts keys by count descending with
// first-seen order as the tie-break, truncates to limit, and computes each
// row's percentage of the accepted total. Zero accepted samples is a
// no-data error, distinct from any I/O failure on the way here.
func Aggregate(samples []Sample, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	counts := make(map[string]int)
	var order []string
	total := 0
	for _, s := range samples {
		if s.Key == "" {
			continue
		}
		if _, seen := counts[s.Key]; !seen {
			order = append(order, s.Key)
		}
		counts[s.Key]++
		total++
	}

	if total == 0 {
		return nil, errors.New(errors.KindNoData, "no data found for the specified parameters")
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		count := counts[key]
		rows = append(rows, Row{
			Key:     key,
			Count:   count,
			Percent: math.Round(1000*float64(count)/float64(total)) / 10,
		})
	}
	return rows, nil
}

// decorationIPs maps each surviving key back to the address that decorates
// it. First sample wins per key.
func decorationIPs(samples []Sample) map[string]string {
	ips := make(map[string]string)
	for _, s := range samples {
		if s.Key == "" {
			continue
		}
		if _, ok := ips[s.Key]; !ok {
			ips[s.Key] = s.IP
		}
	}
	return ips
}

// Decorate fills zone, flag, and hostname fields according to the
// grouping. Any decorator may be nil. Port rows carry only the zone color
// of the address behind them; country rows carry the flag and display
// name; IP rows carry everything.
func Decorate(rows []Row, samples []Sample, group GroupBy, classifier *zones.Classifier, geo *geoip.Resolver, names *revdns.Resolver) {
	ips := decorationIPs(samples)

	for i := range rows {
		row := &rows[i]
		ip := ips[row.Key]

		switch group {
		case ByCountry:
			row.Label = geoip.CountryName(row.Key)
			row.FlagIcon = geoip.FlagIconPath(row.Key)

		case ByPort:
			if classifier != nil && ip != "" {
				res := classifier.Classify(ip)
				row.Zone, row.Color = string(res.Identity), res.Color
			}

		default: // ByIP
			if classifier != nil {
				res := classifier.Classify(row.Key)
				row.Zone, row.Color = string(res.Identity), res.Color
			}
			if geo != nil {
				country := geo.Country(row.Key)
				row.FlagIcon = geoip.FlagIconPath(country)
			}
			row.InfoURL = geoip.InfoURL(row.Key)
			if names != nil {
				row.Hostname = names.Lookup(row.Key)
			}
		}
	}
}

// LogSamples reduces firewall log records to samples for the requested
// grouping. Port grouping keys on the destination port and keeps the
// source address for decoration; country grouping keys on the source
// country, with failed lookups pooled in the unknown bucket.
func LogSamples(records []fwlog.Record, group GroupBy, geo *geoip.Resolver) []Sample {
	samples := make([]Sample, 0, len(records))
	for _, r := range records {
		switch group {
		case ByPort:
			key := ""
			if r.DstPort > 0 {
				key = strconv.Itoa(r.DstPort)
			}
			samples = append(samples, Sample{Key: key, IP: r.SrcIP})
		case ByCountry:
			key := geoip.UnknownCountry
			if geo != nil {
				key = geo.Country(r.SrcIP)
			}
			samples = append(samples, Sample{Key: key, IP: r.SrcIP})
		default:
			samples = append(samples, Sample{Key: r.SrcIP, IP: r.SrcIP})
		}
	}
	return samples
}
