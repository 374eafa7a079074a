// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/conntrack"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/revdns"
	"grimm.is/firewatch/internal/zones"
)

// Collector samples the kernel and the request-path components on a fixed
// interval and publishes into the Prometheus registry.
type Collector struct {
	registry *Registry
	logger   *logging.Logger
	cfg      *config.Config
	interval time.Duration
	stopCh   chan struct{}

	// Sampled components, registered via SetSources. Any may be nil.
	classifier *zones.Classifier
	reader     *fwlog.Reader
	snapshots  *conntrack.Parser
	resolver   *revdns.Resolver

	// Latest samples, served to the status handlers.
	mu             sync.RWMutex
	lastUpdate     time.Time
	started        time.Time
	interfaceStats map[string]*InterfaceStats
	systemStats    *SystemStats
	conntrackStats *ConntrackStats

	// Kernel file locations, narrowed in tests.
	conntrackCountPath string
	conntrackMaxPath   string
	conntrackStatPath  string
	sysNetPath         string
}

// InterfaceStats is one interface's counter snapshot together with the
// rates derived from the previous sample.
type InterfaceStats struct {
	Name      string  `json:"name"`
	Zone      string  `json:"zone,omitempty"`
	RxBytes   uint64  `json:"rx_bytes"`
	TxBytes   uint64  `json:"tx_bytes"`
	RxPackets uint64  `json:"rx_packets"`
	TxPackets uint64  `json:"tx_packets"`
	RxErrors  uint64  `json:"rx_errors"`
	TxErrors  uint64  `json:"tx_errors"`
	RxDropped uint64  `json:"rx_dropped"`
	TxDropped uint64  `json:"tx_dropped"`
	RxBytesPS float64 `json:"rx_bytes_per_sec"`
	TxBytesPS float64 `json:"tx_bytes_per_sec"`
	LinkUp    bool    `json:"link_up"`
	Speed     uint64  `json:"speed_mbps,omitempty"`

	// Rate bookkeeping between samples.
	lastRx   uint64
	lastTx   uint64
	lastSeen time.Time
}

// SystemStats is the host overview reported on the status endpoint.
type SystemStats struct {
	Uptime       int64   `json:"uptime_seconds"`
	LoadAvg1     float64 `json:"load_avg_1"`
	LoadAvg5     float64 `json:"load_avg_5"`
	LoadAvg15    float64 `json:"load_avg_15"`
	MemTotal     uint64  `json:"mem_total_bytes"`
	MemFree      uint64  `json:"mem_free_bytes"`
	MemAvailable uint64  `json:"mem_available_bytes"`
}

// ConntrackStats mirrors the kernel's connection tracking counters.
type ConntrackStats struct {
	Current      int     `json:"current"`
	Max          int     `json:"max"`
	Searched     uint64  `json:"searched"`
	Found        uint64  `json:"found"`
	New          uint64  `json:"new"`
	Invalid      uint64  `json:"invalid"`
	Ignore       uint64  `json:"ignore"`
	Delete       uint64  `json:"delete"`
	Insert       uint64  `json:"insert"`
	InsertFailed uint64  `json:"insert_failed"`
	Drop         uint64  `json:"drop"`
	EarlyDrop    uint64  `json:"early_drop"`
	InsertsPS    float64 `json:"inserts_per_sec"`
	DropsPS      float64 `json:"drops_per_sec"`

	// Rate bookkeeping between samples.
	lastInsert uint64
	lastDrop   uint64
	lastSeen   time.Time
}

// NewCollector creates a metrics collector publishing into the registry.
// The config supplies interface-to-zone labels.
func NewCollector(registry *Registry, cfg *config.Config, logger *logging.Logger, interval time.Duration) *Collector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Collector{
		registry:       registry,
		cfg:            cfg,
		logger:         logger.WithComponent("metrics"),
		interval:       interval,
		stopCh:         make(chan struct{}),
		started:        clock.Now(),
		interfaceStats: make(map[string]*InterfaceStats),
		systemStats:    &SystemStats{},
		conntrackStats: &ConntrackStats{},

		conntrackCountPath: "/proc/sys/net/netfilter/nf_conntrack_count",
		conntrackMaxPath:   "/proc/sys/net/netfilter/nf_conntrack_max",
		conntrackStatPath:  "/proc/net/stat/nf_conntrack",
		sysNetPath:         "/sys/class/net",
	}
}

// SetSources registers the request-path components to sample. Call before
// Start; any component may be nil.
func (c *Collector) SetSources(classifier *zones.Classifier, reader *fwlog.Reader, snapshots *conntrack.Parser, resolver *revdns.Resolver) {
	c.classifier = classifier
	c.reader = reader
	c.snapshots = snapshots
	c.resolver = resolver
}

// Start begins the sampling loop and blocks until Stop is called.
func (c *Collector) Start() {
	c.logger.Info("metrics collector started", "interval", c.interval)
	c.sample()

	tick := time.NewTicker(c.interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			c.sample()
		case <-c.stopCh:
			c.logger.Info("metrics collector stopped")
			return
		}
	}
}

// Stop ends the sampling loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) sample() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sampleConntrack(); err != nil {
		c.logger.Warn("conntrack sampling failed", "error", err)
	}
	if err := c.sampleInterfaces(); err != nil {
		c.logger.Warn("interface sampling failed", "error", err)
	}
	c.sampleSystem()
	c.sampleComponents()

	c.registry.Uptime.Set(clock.Now().Sub(c.started).Seconds())
	c.lastUpdate = clock.Now()
}

// sampleConntrack reads the tracking table usage and the cumulative
// counters. The stat file fields are hexadecimal; the first CPU line
// carries the table-wide totals.
func (c *Collector) sampleConntrack() error {
	raw, err := os.ReadFile(c.conntrackCountPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.conntrackCountPath, err)
	}
	s := c.conntrackStats
	s.Current, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
	c.registry.ConntrackEntries.Set(float64(s.Current))

	if raw, err := os.ReadFile(c.conntrackMaxPath); err == nil {
		s.Max, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
		c.registry.ConntrackLimit.Set(float64(s.Max))
	}

	if f, err := os.Open(c.conntrackStatPath); err == nil {
		defer f.Close()
		sc := bufio.NewScanner(f)
		sc.Scan() // header
		for sc.Scan() {
			fields := strings.Fields(sc.Text())
			if len(fields) < 17 {
				continue
			}
			hex := func(i int) uint64 {
				v, _ := strconv.ParseUint(fields[i], 16, 64)
				return v
			}
			s.Searched = hex(1)
			s.Found = hex(2)
			s.New = hex(3)
			s.Invalid = hex(4)
			s.Ignore = hex(5)
			s.Delete = hex(6)
			s.Insert = hex(8)
			s.InsertFailed = hex(9)
			s.Drop = hex(10)
			s.EarlyDrop = hex(11)
			break // first CPU line holds the cumulative totals
		}
	}

	now := clock.Now()
	if !s.lastSeen.IsZero() {
		if dt := now.Sub(s.lastSeen).Seconds(); dt > 0 {
			s.InsertsPS = c.rate(s.Insert, s.lastInsert, dt)
			s.DropsPS = c.rate(s.Drop, s.lastDrop, dt)
		}
	}
	s.lastInsert, s.lastDrop, s.lastSeen = s.Insert, s.Drop, now
	return nil
}

// sampleInterfaces reads per-interface counters from sysfs and derives
// transfer rates between samples.
func (c *Collector) sampleInterfaces() error {
	entries, err := os.ReadDir(c.sysNetPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.sysNetPath, err)
	}

	now := clock.Now()
	for _, entry := range entries {
		name := entry.Name()
		if name == "lo" {
			continue
		}

		st, ok := c.interfaceStats[name]
		if !ok {
			st = &InterfaceStats{Name: name}
			if c.cfg != nil {
				if zone := c.cfg.ZoneForInterface(name); zone != nil {
					st.Zone = zone.Name
				}
			}
			c.interfaceStats[name] = st
		}

		statDir := filepath.Join(c.sysNetPath, name, "statistics")
		counter := func(file string) uint64 {
			return sysfsUint(filepath.Join(statDir, file))
		}

		rx, tx := counter("rx_bytes"), counter("tx_bytes")
		if !st.lastSeen.IsZero() {
			if dt := now.Sub(st.lastSeen).Seconds(); dt > 0 {
				st.RxBytesPS = c.rate(rx, st.lastRx, dt)
				st.TxBytesPS = c.rate(tx, st.lastTx, dt)
			}
		}
		st.lastRx, st.lastTx, st.lastSeen = rx, tx, now

		st.RxBytes = rx
		st.TxBytes = tx
		st.RxPackets = counter("rx_packets")
		st.TxPackets = counter("tx_packets")
		st.RxErrors = counter("rx_errors")
		st.TxErrors = counter("tx_errors")
		st.RxDropped = counter("rx_dropped")
		st.TxDropped = counter("tx_dropped")

		operstate, _ := os.ReadFile(filepath.Join(c.sysNetPath, name, "operstate"))
		st.LinkUp = strings.TrimSpace(string(operstate)) == "up"

		// Virtual devices report bogus speeds; down links report -1,
		// which fails the unsigned parse and stays zero.
		if speed := sysfsUint(filepath.Join(c.sysNetPath, name, "speed")); speed > 0 && speed < 100000 {
			st.Speed = speed
		}

		c.registry.InterfaceRxBytes.WithLabelValues(name, st.Zone).Set(float64(st.RxBytes))
		c.registry.InterfaceTxBytes.WithLabelValues(name, st.Zone).Set(float64(st.TxBytes))
		c.registry.InterfaceRxPackets.WithLabelValues(name, st.Zone).Set(float64(st.RxPackets))
		c.registry.InterfaceTxPackets.WithLabelValues(name, st.Zone).Set(float64(st.TxPackets))
		c.registry.InterfaceErrors.WithLabelValues(name, "rx").Set(float64(st.RxErrors))
		c.registry.InterfaceErrors.WithLabelValues(name, "tx").Set(float64(st.TxErrors))
	}

	return nil
}

// sampleSystem gathers host statistics. Best effort; missing proc files
// leave their fields at the last sampled value.
func (c *Collector) sampleSystem() {
	if raw, err := os.ReadFile("/proc/uptime"); err == nil {
		if fields := strings.Fields(string(raw)); len(fields) > 0 {
			secs, _ := strconv.ParseFloat(fields[0], 64)
			c.systemStats.Uptime = int64(secs)
		}
	}

	if raw, err := os.ReadFile("/proc/loadavg"); err == nil {
		if fields := strings.Fields(string(raw)); len(fields) >= 3 {
			c.systemStats.LoadAvg1, _ = strconv.ParseFloat(fields[0], 64)
			c.systemStats.LoadAvg5, _ = strconv.ParseFloat(fields[1], 64)
			c.systemStats.LoadAvg15, _ = strconv.ParseFloat(fields[2], 64)
		}
	}

	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		kb, _ := strconv.ParseUint(fields[1], 10, 64)
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			c.systemStats.MemTotal = kb * 1024
		case "MemFree":
			c.systemStats.MemFree = kb * 1024
		case "MemAvailable":
			c.systemStats.MemAvailable = kb * 1024
		}
	}
}

// sampleComponents copies the request-path component counters into their
// gauges.
func (c *Collector) sampleComponents() {
	if c.classifier != nil {
		zs := c.classifier.Stats()
		c.registry.ZoneBindings.Set(float64(zs.Bindings))
		c.registry.ZoneCacheEntries.Set(float64(zs.CacheSize))
		c.registry.ZoneLookups.Set(float64(zs.Lookups))
		c.registry.ZoneCacheHits.Set(float64(zs.Hits))
	}
	if c.reader != nil {
		rs := c.reader.Stats()
		c.registry.LogFileReads.Set(float64(rs.FileReads))
		c.registry.LogCacheHits.Set(float64(rs.CacheHits))
		c.registry.LogParseSkips.Set(float64(rs.ParseSkips))
	}
	if c.snapshots != nil {
		ss := c.snapshots.Stats()
		c.registry.SnapshotRecords.Set(float64(ss.Parsed))
		c.registry.SnapshotParseSkips.Set(float64(ss.ParseSkips))
	}
	if c.resolver != nil {
		c.registry.DNSCacheEntries.Set(float64(c.resolver.CacheSize()))
	}
}

// rate converts two counter samples into a per-second figure. A counter
// that went backwards restarted, so the current value is the whole delta.
func (c *Collector) rate(cur, last uint64, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	if cur < last {
		c.logger.Debug("counter went backwards", "current", cur, "previous", last)
		return float64(cur) / elapsed
	}
	return float64(cur-last) / elapsed
}

// sysfsUint reads a single decimal value, zero on any failure.
func sysfsUint(path string) uint64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, _ := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	return v
}

// IncrementConfigReload counts a configuration reload attempt.
func (c *Collector) IncrementConfigReload(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.registry.ConfigReload.WithLabelValues(status).Inc()
}

// GetInterfaceStats returns the latest per-interface samples, copied so
// callers never see a half-written update.
func (c *Collector) GetInterfaceStats() map[string]*InterfaceStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*InterfaceStats, len(c.interfaceStats))
	for name, st := range c.interfaceStats {
		cp := *st
		out[name] = &cp
	}
	return out
}

// GetSystemStats returns the latest host sample.
func (c *Collector) GetSystemStats() *SystemStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := *c.systemStats
	return &cp
}

// GetConntrackStats returns the latest tracking table sample.
func (c *Collector) GetConntrackStats() *ConntrackStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := *c.conntrackStats
	return &cp
}

// GetLastUpdate returns the timestamp of the last sample.
func (c *Collector) GetLastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}
