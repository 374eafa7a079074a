// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command firewatchd serves the Firewatch JSON API: ranked firewall log
// statistics, raw and streaming log records, live connection table
// snapshots, and zone diagnostics for the machine it runs on.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"grimm.is/firewatch/internal/api"
	"grimm.is/firewatch/internal/brand"
	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/conntrack"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/metrics"
	"grimm.is/firewatch/internal/revdns"
	"grimm.is/firewatch/internal/zones"
)

const collectInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to HCL config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", brand.BinaryName, brand.Version, brand.BuildTime)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", brand.BinaryName, err)
		os.Exit(1)
	}

	logCfg := logging.Config{Level: *logLevel, Format: *logFormat}
	if sl := cfg.Syslog; sl != nil && sl.Enabled {
		logCfg.Syslog = logging.SyslogConfig{
			Enabled:  true,
			Host:     sl.Host,
			Port:     sl.Port,
			Protocol: sl.Protocol,
			Tag:      sl.Tag,
			Facility: sl.Facility,
		}
	}
	logger := logging.New(logCfg)
	logging.SetDefault(logger)

	addr := cfg.API.Listen
	if *listen != "" {
		addr = *listen
	}

	if err := run(cfg, addr, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads the named file, or the default location, or falls back
// to the built-in defaults when no config file exists at all.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	path = filepath.Join(brand.GetConfigDir(), brand.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return config.LoadFile(path)
	}
	return config.Default(), nil
}

func run(cfg *config.Config, addr string, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	classifier := zones.New(cfg, logger)
	geo := geoip.New(cfg.GeoIP, logger)
	defer geo.Close()
	names := revdns.New(cfg.ReverseDNS, clock.System(), logger)
	reader := fwlog.NewReader(cfg.Log.FirewallLog, clock.System(), logger)
	parser := conntrack.NewParser(classifier, geo)
	source := conntrack.NewSource(cfg, parser, logger)

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry, cfg, logger, collectInterval)
	collector.SetSources(classifier, reader, parser, names)
	go collector.Start()
	defer collector.Stop()

	if paths := zones.WatchPaths(cfg); len(paths) > 0 {
		watcher, err := zones.NewWatcher(classifier, paths, logger)
		if err != nil {
			logger.Warn("vpn file watcher unavailable", "error", err)
		} else {
			defer watcher.Close()
			go watcher.Start(ctx)
		}
	}

	server := api.NewServer(api.ServerOptions{
		Config:     cfg,
		Logger:     logger,
		Classifier: classifier,
		Reader:     reader,
		Conns:      source,
		Snapshots:  parser,
		Geo:        geo,
		Names:      names,
		Registry:   registry,
		Collector:  collector,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	logger.Info("firewatch started",
		"version", brand.Version, "listen", addr, "log", cfg.Log.FirewallLog)

	for {
		select {
		case err := <-errCh:
			return err

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload(classifier, geo, collector, logger)
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return server.Shutdown(shutdownCtx)
		}
	}
}

// reload refreshes the state derived from the outside world: zone bindings
// and the GeoIP database. Config file changes still need a restart.
func reload(classifier *zones.Classifier, geo *geoip.Resolver, collector *metrics.Collector, logger *logging.Logger) {
	logger.Info("reload signal received, rebuilding zone bindings")
	classifier.Rebuild()
	if err := geo.Reload(); err != nil {
		logger.Warn("geoip reload failed", "error", err)
		collector.IncrementConfigReload(false)
		return
	}
	collector.IncrementConfigReload(true)
}
