// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/conntrack"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/zones"
)

func testCollector(cfg *config.Config) (*Collector, *Registry) {
	logger := logging.New(logging.DefaultConfig())
	reg := NewRegistry()
	return NewCollector(reg, cfg, logger, time.Second), reg
}

func TestRate(t *testing.T) {
	c, _ := testCollector(nil)

	if got := c.rate(1000, 500, 1.0); got != 500.0 {
		t.Errorf("rate = %v, want 500", got)
	}
	if got := c.rate(1000, 500, 2.0); got != 250.0 {
		t.Errorf("rate over 2s = %v, want 250", got)
	}
}

func TestRateCounterReset(t *testing.T) {
	c, _ := testCollector(nil)

	// The counter wrapped or the subsystem restarted. The current value
	// is the whole delta.
	if got := c.rate(100, 1000, 1.0); got != 100.0 {
		t.Errorf("rate after reset = %v, want 100", got)
	}
}

func TestRateBadElapsed(t *testing.T) {
	c, _ := testCollector(nil)

	if got := c.rate(1000, 500, 0.0); got != 0.0 {
		t.Errorf("rate with zero elapsed = %v, want 0", got)
	}
	if got := c.rate(1000, 500, -1.0); got != 0.0 {
		t.Errorf("rate with negative elapsed = %v, want 0", got)
	}
}

const conntrackStatHeader = "entries  searched found new invalid ignore delete delete_list insert insert_failed drop early_drop icmp_error  expect_new expect_create expect_delete search_restart"

func TestSampleConntrack(t *testing.T) {
	c, reg := testCollector(nil)
	dir := t.TempDir()
	c.conntrackCountPath = filepath.Join(dir, "count")
	c.conntrackMaxPath = filepath.Join(dir, "max")
	c.conntrackStatPath = filepath.Join(dir, "stat")

	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(c.conntrackCountPath, "1234\n")
	write(c.conntrackMaxPath, "65536\n")
	statLine := "000004d2 0000000a 00000014 0000001e 00000028 00000032 0000003c 00000046 00000050 0000005a 00000064 0000006e 00000000 00000000 00000000 00000000 00000000"
	write(c.conntrackStatPath, conntrackStatHeader+"\n"+statLine+"\n")

	if err := c.sampleConntrack(); err != nil {
		t.Fatalf("sampleConntrack: %v", err)
	}

	stats := c.GetConntrackStats()
	if stats.Current != 1234 {
		t.Errorf("Current = %d, want 1234", stats.Current)
	}
	if stats.Max != 65536 {
		t.Errorf("Max = %d, want 65536", stats.Max)
	}
	// Stat file fields are hex.
	if stats.Insert != 0x50 {
		t.Errorf("Insert = %d, want %d", stats.Insert, 0x50)
	}
	if stats.Drop != 0x64 {
		t.Errorf("Drop = %d, want %d", stats.Drop, 0x64)
	}
	if stats.EarlyDrop != 0x6e {
		t.Errorf("EarlyDrop = %d, want %d", stats.EarlyDrop, 0x6e)
	}

	if got := testutil.ToFloat64(reg.ConntrackEntries); got != 1234 {
		t.Errorf("conntrack entries gauge = %v, want 1234", got)
	}
	if got := testutil.ToFloat64(reg.ConntrackLimit); got != 65536 {
		t.Errorf("conntrack limit gauge = %v, want 65536", got)
	}
}

func TestSampleConntrackMissingProc(t *testing.T) {
	c, _ := testCollector(nil)
	c.conntrackCountPath = filepath.Join(t.TempDir(), "absent")

	if err := c.sampleConntrack(); err == nil {
		t.Error("expected an error for a missing count file")
	}
}

func TestSampleInterfaces(t *testing.T) {
	cfg := &config.Config{
		Zones: []config.Zone{{Name: "lan", Color: config.ColorGreen, Interface: "eth0"}},
	}
	c, reg := testCollector(cfg)
	sysNet := t.TempDir()
	c.sysNetPath = sysNet

	writeIface := func(name string, counters map[string]string) {
		t.Helper()
		statDir := filepath.Join(sysNet, name, "statistics")
		if err := os.MkdirAll(statDir, 0o755); err != nil {
			t.Fatal(err)
		}
		for file, value := range counters {
			if err := os.WriteFile(filepath.Join(statDir, file), []byte(value+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.WriteFile(filepath.Join(sysNet, name, "operstate"), []byte("up\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeIface("eth0", map[string]string{
		"rx_bytes": "1000", "tx_bytes": "2000",
		"rx_packets": "10", "tx_packets": "20",
		"rx_errors": "1", "tx_errors": "2",
		"rx_dropped": "0", "tx_dropped": "0",
	})
	writeIface("lo", map[string]string{"rx_bytes": "9", "tx_bytes": "9"})

	if err := c.sampleInterfaces(); err != nil {
		t.Fatalf("sampleInterfaces: %v", err)
	}

	stats := c.GetInterfaceStats()
	eth, ok := stats["eth0"]
	if !ok {
		t.Fatal("eth0 not collected")
	}
	if eth.RxBytes != 1000 || eth.TxBytes != 2000 {
		t.Errorf("bytes = rx %d tx %d, want 1000/2000", eth.RxBytes, eth.TxBytes)
	}
	if eth.Zone != "lan" {
		t.Errorf("zone = %q, want lan", eth.Zone)
	}
	if !eth.LinkUp {
		t.Error("link not reported up")
	}
	if _, ok := stats["lo"]; ok {
		t.Error("loopback must be skipped")
	}

	if got := testutil.ToFloat64(reg.InterfaceRxBytes.WithLabelValues("eth0", "lan")); got != 1000 {
		t.Errorf("rx bytes gauge = %v, want 1000", got)
	}
}

func TestSampleComponents(t *testing.T) {
	cfg := &config.Config{
		Zones: []config.Zone{{Name: "lan", Color: config.ColorGreen, Networks: []string{"192.168.1.0/24"}}},
	}
	classifier := zones.NewWithSource(cfg, nil, logging.Default())
	classifier.Classify("192.168.1.5")

	parser := conntrack.NewParser(nil, nil)
	parser.Parse([]string{
		"ipv4     2 udp      17 30 src=10.0.0.1 dst=10.0.0.2 sport=1 dport=2 src=10.0.0.2 dst=10.0.0.1 sport=2 dport=1 mark=0 use=1",
	}, conntrack.Filter{})

	c, reg := testCollector(cfg)
	c.SetSources(classifier, nil, parser, nil)
	c.sampleComponents()

	if got := testutil.ToFloat64(reg.ZoneBindings); got < 1 {
		t.Errorf("zone bindings gauge = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(reg.ZoneLookups); got != 1 {
		t.Errorf("zone lookups gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.SnapshotRecords); got != 1 {
		t.Errorf("snapshot records gauge = %v, want 1", got)
	}
}

func TestIncrementConfigReload(t *testing.T) {
	c, reg := testCollector(nil)

	c.IncrementConfigReload(true)
	c.IncrementConfigReload(true)
	c.IncrementConfigReload(false)

	if got := testutil.ToFloat64(reg.ConfigReload.WithLabelValues("success")); got != 2 {
		t.Errorf("success reloads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.ConfigReload.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure reloads = %v, want 1", got)
	}
}
