// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the daemon's Prometheus registry and a periodic
// collector sampling the kernel and the request-path components.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics. One instance is created at startup
// and handed to the collector and the API server.
type Registry struct {
	prom *prometheus.Registry

	// Kernel connection tracking table
	ConntrackEntries prometheus.Gauge
	ConntrackLimit   prometheus.Gauge

	// Zone classifier
	ZoneBindings     prometheus.Gauge
	ZoneCacheEntries prometheus.Gauge
	ZoneLookups      prometheus.Gauge
	ZoneCacheHits    prometheus.Gauge

	// Firewall log reader
	LogFileReads  prometheus.Gauge
	LogCacheHits  prometheus.Gauge
	LogParseSkips prometheus.Gauge

	// Connection snapshot parser
	SnapshotRecords    prometheus.Gauge
	SnapshotParseSkips prometheus.Gauge

	// Reverse DNS cache
	DNSCacheEntries prometheus.Gauge

	// Interface traffic
	InterfaceRxBytes   *prometheus.GaugeVec
	InterfaceTxBytes   *prometheus.GaugeVec
	InterfaceRxPackets *prometheus.GaugeVec
	InterfaceTxPackets *prometheus.GaugeVec
	InterfaceErrors    *prometheus.GaugeVec

	// Daemon
	Uptime       prometheus.Gauge
	HTTPRequests *prometheus.CounterVec
	ConfigReload *prometheus.CounterVec
}

// NewRegistry creates and registers all metrics on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		prom: prometheus.NewRegistry(),

		ConntrackEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_conntrack_entries",
			Help: "Connections currently tracked by the kernel",
		}),
		ConntrackLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_conntrack_entries_limit",
			Help: "Size limit of the kernel connection tracking table",
		}),

		ZoneBindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_zone_bindings",
			Help: "Network-to-zone bindings in the active table",
		}),
		ZoneCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_zone_cache_entries",
			Help: "Addresses held in the zone lookup cache",
		}),
		ZoneLookups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_zone_lookups",
			Help: "Zone classifications performed since start",
		}),
		ZoneCacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_zone_cache_hits",
			Help: "Zone classifications answered from the cache",
		}),

		LogFileReads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_log_file_reads",
			Help: "Full reads of the firewall log file",
		}),
		LogCacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_log_cache_hits",
			Help: "Log requests served from the whole-file cache",
		}),
		LogParseSkips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_log_parse_skips",
			Help: "Log lines that failed structural parsing",
		}),

		SnapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_conntrack_records_parsed",
			Help: "Connection records parsed since start",
		}),
		SnapshotParseSkips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_conntrack_parse_skips",
			Help: "Connection table entries that failed structural parsing",
		}),

		DNSCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_reverse_dns_cache_entries",
			Help: "Reverse DNS answers held in the cache",
		}),

		InterfaceRxBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "firewatch_interface_rx_bytes",
			Help: "Bytes received per interface",
		}, []string{"interface", "zone"}),
		InterfaceTxBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "firewatch_interface_tx_bytes",
			Help: "Bytes transmitted per interface",
		}, []string{"interface", "zone"}),
		InterfaceRxPackets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "firewatch_interface_rx_packets",
			Help: "Packets received per interface",
		}, []string{"interface", "zone"}),
		InterfaceTxPackets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "firewatch_interface_tx_packets",
			Help: "Packets transmitted per interface",
		}, []string{"interface", "zone"}),
		InterfaceErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "firewatch_interface_errors",
			Help: "Interface error counters by direction",
		}, []string{"interface", "direction"}),

		Uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "firewatch_uptime_seconds",
			Help: "Seconds since the daemon started",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firewatch_http_requests_total",
			Help: "API requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		ConfigReload: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firewatch_config_reloads_total",
			Help: "Configuration reloads by outcome",
		}, []string{"status"}),
	}

	r.prom.MustRegister(
		r.ConntrackEntries, r.ConntrackLimit,
		r.ZoneBindings, r.ZoneCacheEntries, r.ZoneLookups, r.ZoneCacheHits,
		r.LogFileReads, r.LogCacheHits, r.LogParseSkips,
		r.SnapshotRecords, r.SnapshotParseSkips,
		r.DNSCacheEntries,
		r.InterfaceRxBytes, r.InterfaceTxBytes,
		r.InterfaceRxPackets, r.InterfaceTxPackets, r.InterfaceErrors,
		r.Uptime, r.HTTPRequests, r.ConfigReload,
	)
	r.prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
