// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package geoip resolves IP addresses to countries for the aggregation and
// connection views. Lookups degrade gracefully: without a database every
// address lands in the "unknown" bucket and the rest of the pipeline is
// unaffected.
package geoip

import (
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/logging"
)

// UnknownCountry is the sentinel bucket for addresses that cannot be
// resolved (private ranges, missing database, malformed input).
const UnknownCountry = "unknown"

// Resolver maps IPs to ISO 3166-1 alpha-2 country codes using a MaxMind
// country database.
type Resolver struct {
	mu     sync.RWMutex
	db     *geoip2.Reader
	path   string
	logger *logging.Logger
}

// New opens the configured database. A missing or unreadable database is
// logged and tolerated; the resolver then answers UnknownCountry for
// everything.
func New(cfg *config.GeoIPConfig, logger *logging.Logger) *Resolver {
	r := &Resolver{logger: logger}
	if cfg == nil || !cfg.Enabled {
		return r
	}
	r.path = cfg.Database

	db, err := geoip2.Open(cfg.Database)
	if err != nil {
		logger.Warn("GeoIP database unavailable, country lookups disabled",
			"path", cfg.Database, "error", err)
		return r
	}
	r.db = db
	logger.Info("GeoIP database loaded", "path", cfg.Database)
	return r
}

// Country returns the ISO country code for ip, or UnknownCountry.
func (r *Resolver) Country(ipStr string) string {
	r.mu.RLock()
	db := r.db
	r.mu.RUnlock()
	if db == nil {
		return UnknownCountry
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return UnknownCountry
	}

	record, err := db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return UnknownCountry
	}
	return strings.ToLower(record.Country.IsoCode)
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Reload reopens the database, picking up a refreshed file. Used by the
// SIGHUP path alongside the classifier rebuild.
func (r *Resolver) Reload() error {
	if r.path == "" {
		return nil
	}
	db, err := geoip2.Open(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.db
	r.db = db
	r.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	r.logger.Info("GeoIP database reloaded", "path", r.path)
	return nil
}

// Close releases the database.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
	}
}

// FlagIconPath returns the UI path of the flag icon for a country code, or
// empty for the unknown bucket.
func FlagIconPath(code string) string {
	if code == "" || code == UnknownCountry {
		return ""
	}
	return "/images/flags/" + strings.ToLower(code) + ".png"
}

// InfoURL returns the UI drill-down link for an address.
func InfoURL(ip string) string {
	if ip == "" {
		return ""
	}
	return "/ipinfo?ip=" + url.QueryEscape(ip)
}
