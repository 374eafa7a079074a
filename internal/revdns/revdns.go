// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package revdns resolves PTR names for the addresses shown in ranked
// tables. Results, including failures, are cached with a TTL so a polling
// UI does not hammer the resolver with the same addresses every few
// seconds.
package revdns

import (
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/logging"
)

const (
	defaultTimeout  = 2 * time.Second
	defaultCacheTTL = 10 * time.Minute
)

type entry struct {
	name    string
	expires time.Time
}

// Resolver answers reverse-DNS lookups through one configured server.
// Safe for concurrent use. A disabled resolver answers every lookup with
// an empty name.
type Resolver struct {
	server   string
	timeout  time.Duration
	ttl      time.Duration
	enabled  bool
	clock    clock.Clock
	logger   *logging.Logger
	exchange func(*dns.Msg, string) (*dns.Msg, error)

	mu    sync.Mutex
	cache map[string]entry
}

// New builds a resolver from configuration. Invalid durations fall back to
// the defaults.
func New(cfg *config.ReverseDNSConfig, clk clock.Clock, logger *logging.Logger) *Resolver {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logging.Default()
	}

	r := &Resolver{
		server:  "127.0.0.1:53",
		timeout: defaultTimeout,
		ttl:     defaultCacheTTL,
		clock:   clk,
		logger:  logger.WithComponent("revdns"),
		cache:   make(map[string]entry),
	}
	if cfg != nil {
		r.enabled = cfg.Enabled
		if cfg.Resolver != "" {
			r.server = cfg.Resolver
		}
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			r.timeout = d
		}
		if d, err := time.ParseDuration(cfg.CacheTTL); err == nil && d > 0 {
			r.ttl = d
		}
	}

	r.exchange = func(msg *dns.Msg, addr string) (*dns.Msg, error) {
		c := new(dns.Client)
		c.Timeout = r.timeout
		resp, _, err := c.Exchange(msg, addr)
		return resp, err
	}
	return r
}

// Enabled reports whether lookups go to the network at all.
func (r *Resolver) Enabled() bool { return r.enabled }

// CacheSize returns the number of cached entries, including negative ones.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Lookup returns the PTR name for an address, or empty when disabled, on
// failure, or when the address has no PTR record. Failures are cached for
// the same TTL as successes.
func (r *Resolver) Lookup(ip string) string {
	if !r.enabled {
		return ""
	}

	now := r.clock.Now()
	r.mu.Lock()
	if e, ok := r.cache[ip]; ok && now.Before(e.expires) {
		r.mu.Unlock()
		return e.name
	}
	r.mu.Unlock()

	name := r.resolve(ip)

	r.mu.Lock()
	r.cache[ip] = entry{name: name, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return name
}

func (r *Resolver) resolve(ip string) string {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return ""
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)

	resp, err := r.exchange(msg, r.server)
	if err != nil || resp == nil {
		r.logger.Debug("ptr lookup failed", "ip", ip, "error", err)
		return ""
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}
