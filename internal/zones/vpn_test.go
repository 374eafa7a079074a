// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"grimm.is/firewatch/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseWireGuardConf(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wg0.conf", `
[Interface]
Address = 10.10.10.1/24
PrivateKey = aaaabbbb
ListenPort = 51820

# roadwarrior
[Peer]
PublicKey = ccccdddd
AllowedIPs = 10.10.10.2/32, 192.168.30.0/24

[Peer]
PublicKey = eeeeffff
AllowedIPs = 10.10.10.3/32
`)

	pool, peers := parseWireGuardConf(path)
	require.Equal(t, []string{"10.10.10.1/24"}, pool)
	require.Equal(t, []string{"10.10.10.2/32", "192.168.30.0/24", "10.10.10.3/32"}, peers)
}

func TestParseWireGuardConfMissing(t *testing.T) {
	pool, peers := parseWireGuardConf("/nonexistent/wg0.conf")
	require.Nil(t, pool)
	require.Nil(t, peers)
}

func TestCollectWireGuardLiveDevice(t *testing.T) {
	orig := wgDevicePeerNets
	defer func() { wgDevicePeerNets = orig }()

	_, peerNet, err := net.ParseCIDR("10.10.10.5/32")
	require.NoError(t, err)
	wgDevicePeerNets = func(device string) ([]net.IPNet, error) {
		require.Equal(t, "wg0", device)
		return []net.IPNet{*peerNet}, nil
	}

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			WireGuard: &config.WireGuardConfig{Enabled: true, Pool: "10.10.10.0/24"},
		},
	}
	c := newTestClassifier(t, cfg, nil)

	got := c.Classify("10.10.10.5")
	require.Equal(t, IdentityWireGuard, got.Identity)
	require.Equal(t, config.ColorWireGuard, got.Color)

	// Pool covers addresses with no peer of their own.
	got = c.Classify("10.10.10.77")
	require.Equal(t, IdentityWireGuard, got.Identity)
}

func TestCollectWireGuardConfigFallback(t *testing.T) {
	orig := wgDevicePeerNets
	defer func() { wgDevicePeerNets = orig }()
	wgDevicePeerNets = func(string) ([]net.IPNet, error) {
		return nil, errors.New("no such device")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "wg0.conf", `
[Interface]
Address = 10.20.0.1/24

[Peer]
AllowedIPs = 192.168.40.0/24
`)

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			WireGuard: &config.WireGuardConfig{Enabled: true, ConfigPath: path},
		},
	}
	c := newTestClassifier(t, cfg, nil)

	require.Equal(t, IdentityWireGuard, c.Classify("10.20.0.9").Identity)
	require.Equal(t, IdentityWireGuard, c.Classify("192.168.40.12").Identity)
}

func TestCollectOpenVPN(t *testing.T) {
	dir := t.TempDir()
	server := writeFile(t, dir, "server.conf", `
port 1194
proto udp
server 10.8.0.0 255.255.255.0
push "route 192.168.1.0 255.255.255.0"
`)

	ccd := filepath.Join(dir, "ccd")
	require.NoError(t, os.Mkdir(ccd, 0o755))
	writeFile(t, ccd, "client1", `
ifconfig-push 10.8.0.6 255.255.255.0
iroute 192.168.50.0 255.255.255.0
`)

	n2n := filepath.Join(dir, "n2n")
	require.NoError(t, os.Mkdir(n2n, 0o755))
	writeFile(t, n2n, "branch.conf", `
remote branch.example.org
route 172.30.0.0 255.255.0.0
`)

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			OpenVPN: &config.OpenVPNConfig{
				Enabled:      true,
				ServerConfig: server,
				CCDDir:       ccd,
				N2NDir:       n2n,
			},
		},
	}
	c := newTestClassifier(t, cfg, nil)

	// Roadwarrior pool and static client subnets carry the OpenVPN color.
	require.Equal(t, IdentityOpenVPN, c.Classify("10.8.0.77").Identity)
	require.Equal(t, IdentityOpenVPN, c.Classify("192.168.50.9").Identity)
	// Net-to-net remotes are generic VPN space.
	require.Equal(t, IdentityVPN, c.Classify("172.30.4.4").Identity)
	// The push route directive must not leak into bindings.
	require.Equal(t, IdentityInternet, c.Classify("192.168.1.77").Identity)
}

func TestCollectIPsec(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipsec.conf", `
config setup
	uniqueids=yes

conn site-a
	left=203.0.113.5
	leftsubnet=192.168.1.0/24
	right=198.51.100.9
	rightsubnet=192.168.60.0/24

conn site-b
	rightsubnet=10.60.0.0/16,10.61.0.0/16
`)

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			IPsec: &config.IPsecConfig{Enabled: true, ConfPath: path},
		},
	}
	c := newTestClassifier(t, cfg, nil)

	require.Equal(t, IdentityVPN, c.Classify("192.168.60.5").Identity)
	require.Equal(t, IdentityVPN, c.Classify("10.60.1.1").Identity)
	require.Equal(t, IdentityVPN, c.Classify("10.61.1.1").Identity)
	// leftsubnet is the local side, not tunnel space.
	require.Equal(t, IdentityInternet, c.Classify("192.168.1.44").Identity)
}

func TestDisabledSubsystemsContributeNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipsec.conf", "conn x\n\trightsubnet=10.70.0.0/16\n")

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			IPsec: &config.IPsecConfig{Enabled: false, ConfPath: path},
		},
	}
	c := newTestClassifier(t, cfg, nil)

	require.Equal(t, IdentityInternet, c.Classify("10.70.0.1").Identity)
}

func TestParseDottedNet(t *testing.T) {
	tests := []struct {
		addr, mask string
		want       string
	}{
		{"10.8.0.0", "255.255.255.0", "10.8.0.0/24"},
		{"10.8.0.5", "255.255.255.0", "10.8.0.0/24"},
		{"172.30.0.0", "255.255.0.0", "172.30.0.0/16"},
		{"bogus", "255.255.255.0", ""},
		{"10.8.0.0", "bogus", ""},
		{"10.8.0.0", "255.0.255.0", ""},
	}
	for _, tt := range tests {
		got := parseDottedNet(tt.addr, tt.mask)
		if tt.want == "" {
			require.Nil(t, got, "parseDottedNet(%q, %q)", tt.addr, tt.mask)
			continue
		}
		require.NotNil(t, got, "parseDottedNet(%q, %q)", tt.addr, tt.mask)
		require.Equal(t, tt.want, got.String())
	}
}
