// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"fmt"
	"net"
	"sort"
)

// Binding ties one IPv4 subnet to a zone color. Source records which
// collector produced the binding and is carried for diagnostics only.
type Binding struct {
	CIDR    string     `json:"cidr"`
	Network *net.IPNet `json:"-"`
	Color   string     `json:"color"`
	Source  string     `json:"source"`
}

// PrefixLen returns the binding's mask length in bits.
func (b Binding) PrefixLen() int {
	if b.Network == nil {
		return 0
	}
	ones, _ := b.Network.Mask.Size()
	return ones
}

func (b Binding) String() string {
	return fmt.Sprintf("%s=%s(%s)", b.CIDR, b.Color, b.Source)
}

// sortBindings orders most specific prefix first so a linear scan
// implements longest-prefix match. The sort is stable, so among equal
// prefix lengths the collector that ran first keeps precedence.
func sortBindings(bindings []Binding) {
	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].PrefixLen() > bindings[j].PrefixLen()
	})
}

// bindingList accumulates bindings during a rebuild, dropping entries
// that do not parse and deduplicating exact (CIDR, color) repeats.
type bindingList struct {
	bindings []Binding
	seen     map[string]bool
}

func newBindingList() *bindingList {
	return &bindingList{seen: make(map[string]bool)}
}

// addCIDR parses and appends one subnet binding. Unparseable input is
// ignored so a single bad line in a VPN config cannot poison the set.
func (l *bindingList) addCIDR(cidr, color, source string) {
	if cidr == "" || color == "" {
		return
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return
	}
	l.addNet(network, color, source)
}

// addHost appends a /32 binding for a single address.
func (l *bindingList) addHost(ip net.IP, color, source string) {
	v4 := ip.To4()
	if v4 == nil {
		return
	}
	l.addNet(&net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, color, source)
}

func (l *bindingList) addNet(network *net.IPNet, color, source string) {
	if network == nil || color == "" {
		return
	}
	v4 := network.IP.To4()
	if v4 == nil {
		return
	}
	if ones, _ := network.Mask.Size(); ones == 0 {
		// A /0 binding would shadow the unmatched-means-external rule.
		return
	}
	normalized := &net.IPNet{IP: v4.Mask(network.Mask), Mask: network.Mask}
	cidr := normalized.String()
	key := cidr + "|" + color
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	l.bindings = append(l.bindings, Binding{
		CIDR:    cidr,
		Network: normalized,
		Color:   color,
		Source:  source,
	})
}

// parseDottedNet builds a subnet from an address and dotted-quad netmask,
// the form OpenVPN uses in server and route directives.
func parseDottedNet(addr, mask string) *net.IPNet {
	ip := net.ParseIP(addr)
	maskIP := net.ParseIP(mask)
	if ip == nil || maskIP == nil {
		return nil
	}
	v4 := ip.To4()
	m4 := maskIP.To4()
	if v4 == nil || m4 == nil {
		return nil
	}
	ipMask := net.IPMask(m4)
	if ones, bits := ipMask.Size(); ones == 0 && bits == 0 {
		return nil
	}
	return &net.IPNet{IP: v4.Mask(ipMask), Mask: ipMask}
}
