// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

// Well-known color tokens. Zone colors reference these; the classifier's
// identity table maps them back to zone names.
const (
	ColorGreen     = "green"
	ColorRed       = "red"
	ColorOrange    = "orange"
	ColorBlue      = "blue"
	ColorFirewall  = "firewall"
	ColorVPN       = "vpn"
	ColorWireGuard = "wireguard"
	ColorOpenVPN   = "openvpn"
	ColorMulticast = "multicast"
)

// Default returns a minimal runnable configuration: a green LAN zone on
// eth1, a red external zone on eth0, and every subsystem on its default
// path.
func Default() *Config {
	cfg := &Config{
		SchemaVersion: CurrentSchemaVersion,
		Zones: []Zone{
			{Name: "lan", Color: ColorGreen, Interface: "eth1"},
			{Name: "wan", Color: ColorRed, Interface: "eth0", External: true},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields in place. Load calls it after decoding;
// tests building Config literals call it directly.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}

	for i := range c.RouteBindings {
		if c.RouteBindings[i].Color == "" {
			c.RouteBindings[i].Color = ColorVPN
		}
	}

	if c.VPN != nil {
		if wg := c.VPN.WireGuard; wg != nil {
			if wg.Device == "" {
				wg.Device = "wg0"
			}
		}
		if ip := c.VPN.IPsec; ip != nil {
			if ip.ConfPath == "" {
				ip.ConfPath = "/etc/ipsec.conf"
			}
		}
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.FirewallLog == "" {
		c.Log.FirewallLog = "/var/log/messages"
	}
	if c.Log.TailLimit <= 0 {
		c.Log.TailLimit = 50
	}

	if c.Conntrack == nil {
		c.Conntrack = &ConntrackConfig{}
	}
	if c.Conntrack.Source == "" {
		c.Conntrack.Source = "netlink"
	}
	if c.Conntrack.ProcPath == "" {
		c.Conntrack.ProcPath = "/proc/net/nf_conntrack"
	}
	if c.Conntrack.Command == "" {
		c.Conntrack.Command = "conntrack -L -o extended"
	}
	if c.Conntrack.Timeout == "" {
		c.Conntrack.Timeout = "5s"
	}

	if c.GeoIP == nil {
		c.GeoIP = &GeoIPConfig{}
	}
	if c.GeoIP.Database == "" {
		c.GeoIP.Database = "/var/lib/GeoIP/GeoLite2-Country.mmdb"
	}

	if c.ReverseDNS == nil {
		c.ReverseDNS = &ReverseDNSConfig{}
	}
	if c.ReverseDNS.Resolver == "" {
		c.ReverseDNS.Resolver = "127.0.0.1:53"
	}
	if c.ReverseDNS.Timeout == "" {
		c.ReverseDNS.Timeout = "2s"
	}
	if c.ReverseDNS.CacheTTL == "" {
		c.ReverseDNS.CacheTTL = "10m"
	}

	if c.API == nil {
		c.API = &APIConfig{Enabled: true}
	}
	if c.API.Listen == "" {
		c.API.Listen = "127.0.0.1:8943"
	}
}
