// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import "net"

// InterfaceNetwork is one IPv4 address assignment on a network interface.
// IP is the interface's own address; Network is the attached subnet.
type InterfaceNetwork struct {
	Name    string
	IP      net.IP
	Network *net.IPNet
}

// RouteEntry is one IPv4 kernel route with a destination subnet. Default
// routes are excluded at the source.
type RouteEntry struct {
	LinkName string
	Dst      *net.IPNet
}

// HostSource reads live network state from the host. The production
// implementation speaks rtnetlink; tests substitute a fake.
type HostSource interface {
	// InterfaceNetworks lists IPv4 address assignments on all non-loopback
	// interfaces.
	InterfaceNetworks() ([]InterfaceNetwork, error)

	// Routes lists IPv4 routes that carry an explicit destination subnet.
	Routes() ([]RouteEntry, error)
}
