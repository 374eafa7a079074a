// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package zones

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// DefaultHostSource is the netlink-backed host state reader.
var DefaultHostSource HostSource = &NetlinkSource{}

// NetlinkSource reads interface and route state via rtnetlink.
type NetlinkSource struct{}

// InterfaceNetworks lists IPv4 address assignments on all non-loopback
// interfaces.
func (s *NetlinkSource) InterfaceNetworks() ([]InterfaceNetwork, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	var out []InterfaceNetwork
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil || attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := netlink.AddrList(link, unix.AF_INET)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if addr.IPNet == nil {
				continue
			}
			v4 := addr.IPNet.IP.To4()
			if v4 == nil {
				continue
			}
			out = append(out, InterfaceNetwork{
				Name: attrs.Name,
				IP:   v4,
				Network: &net.IPNet{
					IP:   v4.Mask(addr.IPNet.Mask),
					Mask: addr.IPNet.Mask,
				},
			})
		}
	}
	return out, nil
}

// Routes lists IPv4 routes that carry an explicit destination subnet.
// Default routes (nil Dst) are skipped; the classifier treats unmatched
// addresses as external, which covers the default route's role.
func (s *NetlinkSource) Routes() ([]RouteEntry, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}

	names := linkNamesByIndex()

	var out []RouteEntry
	for _, route := range routes {
		if route.Dst == nil || route.Dst.IP.To4() == nil {
			continue
		}
		out = append(out, RouteEntry{
			LinkName: names[route.LinkIndex],
			Dst:      route.Dst,
		})
	}
	return out, nil
}

func linkNamesByIndex() map[int]string {
	names := make(map[int]string)
	links, err := netlink.LinkList()
	if err != nil {
		return names
	}
	for _, link := range links {
		if attrs := link.Attrs(); attrs != nil {
			names[attrs.Index] = attrs.Name
		}
	}
	return names
}
