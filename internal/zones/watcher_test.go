// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"grimm.is/firewatch/internal/config"
)

func TestWatchPaths(t *testing.T) {
	cfg := &config.Config{
		VPN: &config.VPNConfig{
			WireGuard: &config.WireGuardConfig{Enabled: true, ConfigPath: "/etc/wireguard/wg0.conf"},
			OpenVPN: &config.OpenVPNConfig{
				Enabled:      true,
				ServerConfig: "/etc/openvpn/server.conf",
				CCDDir:       "/etc/openvpn/ccd",
			},
			IPsec: &config.IPsecConfig{Enabled: true},
		},
	}

	got := WatchPaths(cfg)
	want := []string{
		"/etc/wireguard/wg0.conf",
		"/etc/openvpn/server.conf",
		"/etc/openvpn/ccd",
		"/etc/ipsec.conf",
	}
	require.Equal(t, want, got)
}

func TestWatchPathsDisabled(t *testing.T) {
	require.Nil(t, WatchPaths(nil))
	require.Nil(t, WatchPaths(&config.Config{}))

	cfg := &config.Config{
		VPN: &config.VPNConfig{
			WireGuard: &config.WireGuardConfig{Enabled: false, ConfigPath: "/etc/wireguard/wg0.conf"},
		},
	}
	require.Empty(t, WatchPaths(cfg))
}

func TestWatcherEventFiltering(t *testing.T) {
	dir := t.TempDir()
	conf := writeFile(t, dir, "wg0.conf", "[Interface]\n")

	ccd := filepath.Join(dir, "ccd")
	require.NoError(t, os.Mkdir(ccd, 0o755))

	c := newTestClassifier(t, &config.Config{}, nil)
	w, err := NewWatcher(c, []string{conf, ccd}, nil)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"watched file write", fsnotify.Event{Name: conf, Op: fsnotify.Write}, true},
		{"watched file rename", fsnotify.Event{Name: conf, Op: fsnotify.Rename}, true},
		{"sibling file", fsnotify.Event{Name: filepath.Join(dir, "other.conf"), Op: fsnotify.Write}, false},
		{"any file in watched dir", fsnotify.Event{Name: filepath.Join(ccd, "client1"), Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: conf, Op: fsnotify.Chmod}, false},
		{"unrelated dir", fsnotify.Event{Name: "/tmp/elsewhere.conf", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.ev); got != tt.want {
			t.Errorf("%s: relevant = %v, want %v", tt.name, got, tt.want)
		}
	}
}
