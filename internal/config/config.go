// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

// CurrentSchemaVersion is the config format this build reads and writes.
const CurrentSchemaVersion = "1.0"

// Config is the top-level structure for the firewatch configuration.
// It declares the zones the classifier builds bindings for, the VPN
// subsystems whose subnets layer on top, the firewall log source, the
// conntrack source, and the API server settings.
type Config struct {
	// Format version stamped into saved files. Loads reject other versions.
	// @default: "1.0"
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	// Zones bind colored interfaces to trust domains.
	Zones []Zone `hcl:"zone,block" json:"zone,omitempty"`

	// RouteBindings attach kernel-route destinations on matching
	// interfaces to a color beyond what the zone interfaces imply.
	RouteBindings []RouteBinding `hcl:"route_binding,block" json:"route_binding,omitempty"`

	// VPN subsystems contributing pool and peer subnets.
	VPN *VPNConfig `hcl:"vpn,block" json:"vpn,omitempty"`

	// Log configures the firewall log source.
	Log *LogConfig `hcl:"log,block" json:"log,omitempty"`

	// Conntrack configures the connection table source.
	Conntrack *ConntrackConfig `hcl:"conntrack,block" json:"conntrack,omitempty"`

	// GeoIP configuration for country decoration.
	GeoIP *GeoIPConfig `hcl:"geoip,block" json:"geoip,omitempty"`

	// ReverseDNS configures hostname enrichment of top talkers.
	ReverseDNS *ReverseDNSConfig `hcl:"reverse_dns,block" json:"reverse_dns,omitempty"`

	// API configuration
	API *APIConfig `hcl:"api,block" json:"api,omitempty"`

	// Syslog remote logging for the daemon's own records.
	Syslog *SyslogConfig `hcl:"syslog,block" json:"syslog,omitempty"`

	// StateDir and LogDir override the packaged locations.
	StateDir string `hcl:"state_dir,optional" json:"state_dir,omitempty"`
	LogDir   string `hcl:"log_dir,optional" json:"log_dir,omitempty"`
}

// Zone defines a network trust zone bound to an interface.
// The classifier derives subnet bindings from the interface's live
// addresses plus any static networks listed here.
type Zone struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`

	// Color is the zone's color token: green, red, orange, blue,
	// or one of the VPN tokens (wireguard, openvpn, vpn).
	Color string `hcl:"color,optional"`

	// Interface can be exact ("eth0") or prefix with + or * suffix
	// ("wg+" or "wg*" matches wg0, wg1...).
	Interface string `hcl:"interface,optional"`

	// Networks lists static CIDR ranges belonging to this zone in
	// addition to whatever the interface carries.
	Networks []string `hcl:"networks,optional"`

	// Aliases are extra addresses held by the firewall itself on this
	// zone's side (each becomes a /32 firewall binding).
	Aliases []string `hcl:"aliases,optional"`

	// External marks the upstream/WAN zone. At most one zone may set it.
	External bool `hcl:"external,optional"`
}

// RouteBinding attaches kernel-route destinations to a color by interface
// pattern. Used for tunnel devices whose routes should classify as VPN
// space without a full zone declaration.
type RouteBinding struct {
	// Interface is an exact name or a + / * suffixed prefix pattern
	// ("gre+", "vti+", "tun+").
	Interface string `hcl:"interface,label"`
	// Color the matched route destinations bind to.
	// @default: "vpn"
	Color string `hcl:"color,optional"`
}

// VPNConfig groups the per-subsystem sources of VPN subnets. Every path is
// optional; a missing file contributes no bindings.
type VPNConfig struct {
	WireGuard *WireGuardConfig `hcl:"wireguard,block" json:"wireguard,omitempty"`
	OpenVPN   *OpenVPNConfig   `hcl:"openvpn,block" json:"openvpn,omitempty"`
	IPsec     *IPsecConfig     `hcl:"ipsec,block" json:"ipsec,omitempty"`
}

// WireGuardConfig locates the WireGuard pool and peers. The live device is
// preferred when reachable; the config file is the fallback source.
type WireGuardConfig struct {
	Enabled bool `hcl:"enabled,optional"`
	// Device is the WireGuard interface queried for peer allowed-IPs.
	// @default: "wg0"
	Device string `hcl:"device,optional"`
	// ConfigPath is the wg-quick style config parsed when the device
	// cannot be queried (Address= pool, per-peer AllowedIPs=).
	ConfigPath string `hcl:"config_path,optional"`
	// Pool overrides the client pool subnet when set.
	Pool string `hcl:"pool,optional"`
}

// OpenVPNConfig locates the OpenVPN roadwarrior and net-to-net sources.
type OpenVPNConfig struct {
	Enabled bool `hcl:"enabled,optional"`
	// ServerConfig is the server.conf parsed for the dynamic pool
	// ("server <net> <mask>").
	ServerConfig string `hcl:"server_config,optional"`
	// CCDDir holds per-client config files whose iroute lines declare
	// static client subnets.
	CCDDir string `hcl:"ccd_dir,optional"`
	// N2NDir holds net-to-net connection configs ("route <net> <mask>").
	N2NDir string `hcl:"n2n_dir,optional"`
}

// IPsecConfig locates the IPsec connection definitions.
type IPsecConfig struct {
	Enabled bool `hcl:"enabled,optional"`
	// ConfPath is parsed for conn blocks' rightsubnet= lists.
	// @default: "/etc/ipsec.conf"
	ConfPath string `hcl:"conf_path,optional"`
}

// LogConfig configures the firewall log source.
type LogConfig struct {
	// FirewallLog is the kernel-sourced log file the reader scans.
	// @default: "/var/log/messages"
	FirewallLog string `hcl:"firewall_log,optional"`
	// TailLimit caps records per tail poll.
	// @default: 50
	TailLimit int `hcl:"tail_limit,optional"`
}

// ConntrackConfig selects and tunes the connection table source.
type ConntrackConfig struct {
	// Source is "netlink", "proc", or "exec".
	// @default: "netlink"
	Source string `hcl:"source,optional"`
	// ProcPath is read for the proc source.
	// @default: "/proc/net/nf_conntrack"
	ProcPath string `hcl:"proc_path,optional"`
	// Command is run for the exec source.
	// @default: "conntrack -L -o extended"
	Command string `hcl:"command,optional"`
	// Timeout bounds a single dump.
	// @default: "5s"
	Timeout string `hcl:"timeout,optional"`
}

// GeoIPConfig locates the MaxMind country database. Lookup degrades to the
// "unknown" bucket when the database is absent or unreadable.
type GeoIPConfig struct {
	Enabled bool `hcl:"enabled,optional"`
	// Database is the GeoLite2/GeoIP2 country mmdb path.
	// @default: "/var/lib/GeoIP/GeoLite2-Country.mmdb"
	Database string `hcl:"database,optional"`
}

// ReverseDNSConfig tunes PTR enrichment of ip-grouped aggregation rows.
type ReverseDNSConfig struct {
	Enabled bool `hcl:"enabled,optional"`
	// Resolver is the DNS server queried, host:port.
	// @default: "127.0.0.1:53"
	Resolver string `hcl:"resolver,optional"`
	// Timeout per query.
	// @default: "2s"
	Timeout string `hcl:"timeout,optional"`
	// CacheTTL for resolved (and negative) entries.
	// @default: "10m"
	CacheTTL string `hcl:"cache_ttl,optional"`
}

// APIConfig holds the JSON API server settings.
type APIConfig struct {
	Enabled bool `hcl:"enabled,optional" json:"enabled,omitempty"`
	// Listen address for the JSON API.
	// @default: "127.0.0.1:8943"
	Listen string `hcl:"listen,optional" json:"listen,omitempty"`
	// CORS settings
	CORSOrigins []string `hcl:"cors_origins,optional" json:"cors_origins,omitempty"`
}

// SyslogConfig mirrors daemon logs to a remote collector.
type SyslogConfig struct {
	Enabled  bool   `hcl:"enabled,optional"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	Protocol string `hcl:"protocol,optional"`
	Tag      string `hcl:"tag,optional"`
	Facility int    `hcl:"facility,optional"`
}
