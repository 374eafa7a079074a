// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package zones

// DefaultHostSource is a stub for non-Linux systems. The classifier still
// works from configuration and VPN files; live interface and route state
// is simply absent.
var DefaultHostSource HostSource = &emptyHostSource{}

type emptyHostSource struct{}

func (s *emptyHostSource) InterfaceNetworks() ([]InterfaceNetwork, error) { return nil, nil }

func (s *emptyHostSource) Routes() ([]RouteEntry, error) { return nil, nil }
