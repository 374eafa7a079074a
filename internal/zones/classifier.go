// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/logging"
)

// Result is one classification answer. Identity may be empty while Color is
// set when an address matched a binding whose color has no canonical zone.
type Result struct {
	Identity Identity `json:"zone"`
	Color    string   `json:"color"`
}

// Stats reports classifier cache and binding counters.
type Stats struct {
	Bindings  int       `json:"bindings"`
	CacheSize int       `json:"cache_size"`
	Lookups   uint64    `json:"lookups"`
	Hits      uint64    `json:"hits"`
	BuiltAt   time.Time `json:"built_at"`
}

// Classifier maps IPv4 addresses to zones by longest-prefix match over an
// ordered binding set. Safe for concurrent use; Rebuild swaps the binding
// set atomically and resets the lookup cache.
type Classifier struct {
	cfg    *config.Config
	host   HostSource
	logger *logging.Logger

	mu       sync.RWMutex
	bindings []Binding
	cache    map[string]Result
	builtAt  time.Time

	lookups atomic.Uint64
	hits    atomic.Uint64
}

// New builds a classifier over the default host source and performs the
// initial binding build. Construction never fails; sources that cannot be
// read contribute no bindings.
func New(cfg *config.Config, logger *logging.Logger) *Classifier {
	return NewWithSource(cfg, DefaultHostSource, logger)
}

// NewWithSource is New with an injected host state reader.
func NewWithSource(cfg *config.Config, host HostSource, logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Classifier{
		cfg:    cfg,
		host:   host,
		logger: logger.WithComponent("zones"),
		cache:  make(map[string]Result),
	}
	c.Rebuild()
	return c
}

// Classify resolves one address to its zone. Input that is not a dotted
// quad IPv4 address yields an empty identity with the external color; an
// address matching no binding is external space.
func (c *Classifier) Classify(ip string) Result {
	c.lookups.Add(1)

	parsed := parseDottedQuad(ip)
	if parsed == nil {
		return Result{Identity: "", Color: config.ColorRed}
	}

	c.mu.RLock()
	cached, ok := c.cache[ip]
	if ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return cached
	}
	bindings := c.bindings
	c.mu.RUnlock()

	result := Result{Identity: IdentityInternet, Color: config.ColorRed}
	for _, b := range bindings {
		if b.Network.Contains(parsed) {
			result.Color = b.Color
			id, known := IdentityForColor(b.Color)
			if known {
				result.Identity = id
			} else {
				result.Identity = ""
			}
			break
		}
	}

	c.mu.Lock()
	c.cache[ip] = result
	c.mu.Unlock()
	return result
}

// Rebuild regenerates the binding set from configuration, live host state,
// and the VPN sources, then drops the lookup cache. Individual sources that
// fail are logged and skipped.
func (c *Classifier) Rebuild() {
	start := time.Now()
	list := newBindingList()

	c.collectConstants(list)
	c.collectConfigZones(list)
	c.collectInterfaces(list)
	c.collectRoutes(list)
	if c.cfg != nil && c.cfg.VPN != nil {
		c.collectWireGuard(list, c.cfg.VPN.WireGuard)
		c.collectOpenVPN(list, c.cfg.VPN.OpenVPN)
		c.collectIPsec(list, c.cfg.VPN.IPsec)
	}

	bindings := list.bindings
	sortBindings(bindings)

	c.mu.Lock()
	c.bindings = bindings
	c.cache = make(map[string]Result)
	c.builtAt = start
	c.mu.Unlock()

	c.logger.Debug("rebuilt zone bindings",
		"bindings", len(bindings),
		"elapsed", time.Since(start).String())
}

// Invalidate drops the lookup cache without rebuilding bindings.
func (c *Classifier) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]Result)
	c.mu.Unlock()
}

// Bindings returns a copy of the current binding set, most specific first.
func (c *Classifier) Bindings() []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Binding, len(c.bindings))
	copy(out, c.bindings)
	return out
}

// Stats returns current cache and binding counters.
func (c *Classifier) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Bindings:  len(c.bindings),
		CacheSize: len(c.cache),
		Lookups:   c.lookups.Load(),
		Hits:      c.hits.Load(),
		BuiltAt:   c.builtAt,
	}
}

// collectConstants seeds the fixed loopback and multicast blocks. Loopback
// traffic is the firewall talking to itself.
func (c *Classifier) collectConstants(list *bindingList) {
	list.addCIDR("127.0.0.0/8", config.ColorFirewall, "loopback")
	list.addCIDR("224.0.0.0/3", config.ColorMulticast, "multicast")
}

// collectConfigZones adds each zone's static networks and the firewall's
// alias addresses.
func (c *Classifier) collectConfigZones(list *bindingList) {
	if c.cfg == nil {
		return
	}
	for _, zone := range c.cfg.Zones {
		for _, network := range zone.Networks {
			list.addCIDR(network, zone.Color, "config")
		}
		for _, alias := range zone.Aliases {
			if strings.Contains(alias, "/") {
				list.addCIDR(alias, config.ColorFirewall, "alias")
			} else if ip := net.ParseIP(alias); ip != nil {
				list.addHost(ip, config.ColorFirewall, "alias")
			}
		}
	}
}

// collectInterfaces adds the attached subnet of every zone interface and a
// /32 firewall binding for each of the firewall's own addresses. External
// interfaces contribute only the /32; upstream space stays external.
func (c *Classifier) collectInterfaces(list *bindingList) {
	if c.host == nil || c.cfg == nil {
		return
	}
	networks, err := c.host.InterfaceNetworks()
	if err != nil {
		c.logger.Warn("interface enumeration failed", "error", err)
		return
	}
	for _, in := range networks {
		zone := c.cfg.ZoneForInterface(in.Name)
		if zone == nil {
			continue
		}
		if !zone.External {
			list.addNet(in.Network, zone.Color, "interface")
		}
		list.addHost(in.IP, config.ColorFirewall, "self")
	}
}

// collectRoutes adds destinations of kernel routes whose egress interface
// belongs to a zone or matches a route_binding pattern.
func (c *Classifier) collectRoutes(list *bindingList) {
	if c.host == nil || c.cfg == nil {
		return
	}
	routes, err := c.host.Routes()
	if err != nil {
		c.logger.Warn("route enumeration failed", "error", err)
		return
	}
	for _, route := range routes {
		if route.LinkName == "" || route.Dst == nil {
			continue
		}
		if zone := c.cfg.ZoneForInterface(route.LinkName); zone != nil && !zone.External {
			list.addNet(route.Dst, zone.Color, "route")
			continue
		}
		for _, rb := range c.cfg.RouteBindings {
			if config.MatchesInterface(rb.Interface, route.LinkName) {
				list.addNet(route.Dst, rb.Color, "route")
				break
			}
		}
	}
}

// parseDottedQuad accepts only a.b.c.d IPv4 text. IPv6 and mapped forms
// are rejected so cache keys stay canonical.
func parseDottedQuad(ip string) net.IP {
	if strings.Count(ip, ".") != 3 {
		return nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}
	return parsed.To4()
}
