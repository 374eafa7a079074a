// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ValidationError is one finding from Validate, tied to the config field
// that produced it.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default), "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates findings so a load can report everything
// at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any finding is error severity. Warnings
// alone do not fail a load.
func (e ValidationErrors) HasErrors() bool {
	for _, err := range e {
		if err.Severity == "" || err.Severity == "error" {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-severity entries.
func (e ValidationErrors) Warnings() []ValidationError {
	var warns []ValidationError
	for _, err := range e {
		if err.Severity == "warning" {
			warns = append(warns, err)
		}
	}
	return warns
}

var knownColors = map[string]bool{
	ColorGreen:     true,
	ColorRed:       true,
	ColorOrange:    true,
	ColorBlue:      true,
	ColorFirewall:  true,
	ColorVPN:       true,
	ColorWireGuard: true,
	ColorOpenVPN:   true,
	ColorMulticast: true,
}

// Validate checks the configuration for structural problems. It returns
// all findings rather than stopping at the first.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool)
	externals := 0
	for i, z := range c.Zones {
		field := fmt.Sprintf("zone[%d] %q", i, z.Name)
		if z.Name == "" {
			errs = append(errs, ValidationError{Field: field, Message: "zone name is required"})
		}
		if seen[z.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate zone name"})
		}
		seen[z.Name] = true

		if z.Color != "" && !knownColors[z.Color] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown color %q", z.Color),
			})
		}
		if z.Interface == "" && len(z.Networks) == 0 {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  "zone has neither interface nor networks; it contributes no bindings",
				Severity: "warning",
			})
		}
		for _, n := range z.Networks {
			if _, _, err := net.ParseCIDR(n); err != nil {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("invalid network %q: %v", n, err),
				})
			}
		}
		for _, a := range z.Aliases {
			if net.ParseIP(a) == nil {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("invalid alias address %q", a),
				})
			}
		}
		if z.External {
			externals++
		}
	}
	if externals > 1 {
		errs = append(errs, ValidationError{Field: "zone", Message: "more than one zone marked external"})
	}

	for i, rb := range c.RouteBindings {
		field := fmt.Sprintf("route_binding[%d] %q", i, rb.Interface)
		if rb.Interface == "" {
			errs = append(errs, ValidationError{Field: field, Message: "interface pattern is required"})
		}
		if rb.Color != "" && !knownColors[rb.Color] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown color %q", rb.Color)})
		}
	}

	if c.VPN != nil {
		if wg := c.VPN.WireGuard; wg != nil && wg.Pool != "" {
			if _, _, err := net.ParseCIDR(wg.Pool); err != nil {
				errs = append(errs, ValidationError{
					Field:   "vpn.wireguard.pool",
					Message: fmt.Sprintf("invalid pool %q: %v", wg.Pool, err),
				})
			}
		}
	}

	if c.Conntrack != nil {
		switch c.Conntrack.Source {
		case "", "netlink", "proc", "exec":
		default:
			errs = append(errs, ValidationError{
				Field:   "conntrack.source",
				Message: fmt.Sprintf("must be netlink, proc, or exec, got %q", c.Conntrack.Source),
			})
		}
		if c.Conntrack.Timeout != "" {
			if _, err := time.ParseDuration(c.Conntrack.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Field:   "conntrack.timeout",
					Message: fmt.Sprintf("invalid duration %q", c.Conntrack.Timeout),
				})
			}
		}
	}

	if c.ReverseDNS != nil && c.ReverseDNS.Enabled {
		if _, _, err := net.SplitHostPort(c.ReverseDNS.Resolver); err != nil {
			errs = append(errs, ValidationError{
				Field:   "reverse_dns.resolver",
				Message: fmt.Sprintf("invalid resolver address %q", c.ReverseDNS.Resolver),
			})
		}
	}

	if c.API != nil && c.API.Listen != "" {
		if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
			errs = append(errs, ValidationError{
				Field:   "api.listen",
				Message: fmt.Sprintf("invalid listen address %q", c.API.Listen),
			})
		}
	}

	return errs
}

// ConntrackTimeout returns the parsed dump timeout, defaulting to 5s.
func (c *Config) ConntrackTimeout() time.Duration {
	if c.Conntrack == nil {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.Conntrack.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ExternalZone returns the zone marked external, or nil.
func (c *Config) ExternalZone() *Zone {
	for i := range c.Zones {
		if c.Zones[i].External {
			return &c.Zones[i]
		}
	}
	return nil
}
