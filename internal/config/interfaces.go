// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import "strings"

// IsInterfaceWildcard reports whether an interface spec is a prefix pattern
// ("wg+" or "wg*").
func IsInterfaceWildcard(iface string) bool {
	return strings.HasSuffix(iface, "+") || strings.HasSuffix(iface, "*")
}

// InterfaceBase strips the wildcard suffix from an interface spec.
func InterfaceBase(iface string) string {
	if IsInterfaceWildcard(iface) {
		return iface[:len(iface)-1]
	}
	return iface
}

// MatchesInterface reports whether a live interface name matches a spec,
// exact or prefix.
func MatchesInterface(spec, ifaceName string) bool {
	if spec == "" {
		return false
	}
	if IsInterfaceWildcard(spec) {
		return strings.HasPrefix(ifaceName, InterfaceBase(spec))
	}
	return spec == ifaceName
}

// ZoneForInterface returns the first zone whose interface spec matches the
// given live interface name, or nil.
func (c *Config) ZoneForInterface(ifaceName string) *Zone {
	for i := range c.Zones {
		if MatchesInterface(c.Zones[i].Interface, ifaceName) {
			return &c.Zones[i]
		}
	}
	return nil
}
