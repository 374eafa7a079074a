// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl"

	"grimm.is/firewatch/internal/config"
)

// wgDevicePeerNets queries the live WireGuard device for peer allowed-IPs.
// A package variable so tests can substitute canned peers without a kernel
// WireGuard module.
var wgDevicePeerNets = func(device string) ([]net.IPNet, error) {
	client, err := wgctrl.New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	dev, err := client.Device(device)
	if err != nil {
		return nil, err
	}

	var nets []net.IPNet
	for _, peer := range dev.Peers {
		nets = append(nets, peer.AllowedIPs...)
	}
	return nets, nil
}

// collectWireGuard adds the client pool and per-peer subnets. The live
// device is authoritative for peers; the wg-quick config is the fallback
// and always supplies the pool when no explicit pool is configured.
func (c *Classifier) collectWireGuard(list *bindingList, cfg *config.WireGuardConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}

	color := config.ColorWireGuard
	device := cfg.Device
	if device == "" {
		device = "wg0"
	}

	if cfg.Pool != "" {
		list.addCIDR(cfg.Pool, color, "wireguard")
	}

	peers, err := wgDevicePeerNets(device)
	liveOK := err == nil
	if liveOK {
		for i := range peers {
			list.addNet(&peers[i], color, "wireguard")
		}
	} else {
		c.logger.Debug("wireguard device query failed, falling back to config",
			"device", device, "error", err)
	}

	if cfg.ConfigPath == "" {
		return
	}
	pool, confPeers := parseWireGuardConf(cfg.ConfigPath)
	if cfg.Pool == "" {
		for _, p := range pool {
			list.addCIDR(p, color, "wireguard")
		}
	}
	if !liveOK {
		for _, p := range confPeers {
			list.addCIDR(p, color, "wireguard")
		}
	}
}

// parseWireGuardConf reads a wg-quick style config and returns the
// interface Address entries and the peers' AllowedIPs entries. A missing
// or unreadable file returns nothing.
func parseWireGuardConf(path string) (pool, peers []string) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch {
		case section == "interface" && key == "address":
			pool = append(pool, splitCommaList(value)...)
		case section == "peer" && key == "allowedips":
			peers = append(peers, splitCommaList(value)...)
		}
	}
	return pool, peers
}

// collectOpenVPN adds the roadwarrior pool, static client subnets from the
// client-config directory, and net-to-net remote subnets. Net-to-net
// tunnels carry the generic VPN color; roadwarrior space is OpenVPN's own.
func (c *Classifier) collectOpenVPN(list *bindingList, cfg *config.OpenVPNConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}

	if cfg.ServerConfig != "" {
		for _, n := range parseOpenVPNDirective(cfg.ServerConfig, "server") {
			list.addNet(n, config.ColorOpenVPN, "openvpn")
		}
	}

	if cfg.CCDDir != "" {
		for _, path := range listDir(cfg.CCDDir) {
			for _, n := range parseOpenVPNDirective(path, "iroute") {
				list.addNet(n, config.ColorOpenVPN, "openvpn")
			}
		}
	}

	if cfg.N2NDir != "" {
		for _, path := range listDir(cfg.N2NDir) {
			for _, n := range parseOpenVPNDirective(path, "route") {
				list.addNet(n, config.ColorVPN, "openvpn-n2n")
			}
		}
	}
}

// parseOpenVPNDirective scans an OpenVPN config for "<directive> <addr>
// <mask>" lines and returns the subnets. Lines that do not parse are
// skipped.
func parseOpenVPNDirective(path, directive string) []*net.IPNet {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var nets []*net.IPNet
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != directive {
			continue
		}
		if n := parseDottedNet(fields[1], fields[2]); n != nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// collectIPsec adds remote subnets from conn blocks' rightsubnet lists.
func (c *Classifier) collectIPsec(list *bindingList, cfg *config.IPsecConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	path := cfg.ConfPath
	if path == "" {
		path = "/etc/ipsec.conf"
	}
	for _, subnet := range parseIPsecRightSubnets(path) {
		list.addCIDR(subnet, config.ColorVPN, "ipsec")
	}
}

// parseIPsecRightSubnets extracts rightsubnet values from an ipsec.conf.
// Values may be comma-separated lists.
func parseIPsecRightSubnets(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var subnets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) != "rightsubnet" {
			continue
		}
		subnets = append(subnets, splitCommaList(strings.TrimSpace(value))...)
	}
	return subnets
}

func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// listDir returns the regular files directly under dir, sorted by name.
// Missing or unreadable directories contribute nothing.
func listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths
}
