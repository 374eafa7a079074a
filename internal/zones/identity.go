// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package zones classifies IP addresses into network trust zones.
//
// # Overview
//
// A Classifier holds an ordered set of (subnet, color) bindings built from
// live network state and configuration: interface addresses, kernel routes,
// VPN pools and peer subnets, the firewall's own addresses, and fixed
// loopback/multicast blocks. Classify answers "which zone does this address
// belong to" by longest-prefix match, memoized per address string.
//
// # Architecture
//
//	Config + HostSource + VPN files → build → []Binding (most specific first)
//	Classify(ip) → cache → longest-prefix scan → (Identity, color)
//
// Bindings are immutable between rebuilds. Rebuild swaps the binding set
// atomically and drops the lookup cache; a Watcher can drive rebuilds from
// file-system changes on the VPN configs.
package zones

import "grimm.is/firewatch/internal/config"

// Identity names a canonical trust zone as shown in the UI.
type Identity string

const (
	IdentityLAN       Identity = "LAN"
	IdentityInternet  Identity = "INTERNET"
	IdentityDMZ       Identity = "DMZ"
	IdentityWireless  Identity = "Wireless"
	IdentityFirewall  Identity = "Firewall"
	IdentityVPN       Identity = "VPN"
	IdentityWireGuard Identity = "WireGuard"
	IdentityOpenVPN   Identity = "OpenVPN"
	IdentityMulticast Identity = "Multicast"
)

// identityColors is the fixed, ordered identity→color table. Reverse
// resolution scans in order and first match wins, so earlier rows shadow
// any later row sharing a color.
var identityColors = []struct {
	identity Identity
	color    string
}{
	{IdentityLAN, config.ColorGreen},
	{IdentityInternet, config.ColorRed},
	{IdentityDMZ, config.ColorOrange},
	{IdentityWireless, config.ColorBlue},
	{IdentityFirewall, config.ColorFirewall},
	{IdentityVPN, config.ColorVPN},
	{IdentityWireGuard, config.ColorWireGuard},
	{IdentityOpenVPN, config.ColorOpenVPN},
	{IdentityMulticast, config.ColorMulticast},
}

// ColorFor returns the color token bound to an identity, or empty if the
// identity is not in the table.
func ColorFor(id Identity) string {
	for _, row := range identityColors {
		if row.identity == id {
			return row.color
		}
	}
	return ""
}

// IdentityForColor reverse-maps a color token to its identity. The second
// return is false for colors with no canonical identity; callers display
// such results as color-only.
func IdentityForColor(color string) (Identity, bool) {
	for _, row := range identityColors {
		if row.color == color {
			return row.identity, true
		}
	}
	return "", false
}

// Identities lists the canonical zone identities in table order.
func Identities() []Identity {
	out := make([]Identity, len(identityColors))
	for i, row := range identityColors {
		out[i] = row.identity
	}
	return out
}
