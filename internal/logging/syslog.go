// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// SyslogConfig describes an optional remote syslog mirror for daemon logs.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // udp or tcp
	Tag      string
	Facility int // RFC 3164 facility code, default 1 (user-level)
}

// DefaultSyslogConfig returns the disabled default mirror configuration.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "firewatch",
		Facility: 1,
	}
}

// SyslogWriter sends each Write as one RFC 3164 syslog message.
type SyslogWriter struct {
	conn net.Conn
	tag  string
	pri  int
}

// NewSyslogWriter connects to the configured collector. Host is required;
// port, protocol and tag fall back to the defaults.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "firewatch"
	}
	if cfg.Facility == 0 {
		cfg.Facility = 1
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	conn, err := net.DialTimeout(cfg.Protocol, addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("syslog dial %s://%s: %w", cfg.Protocol, addr, err)
	}

	return &SyslogWriter{
		conn: conn,
		tag:  cfg.Tag,
		// Severity informational; the structured record carries the level.
		pri: cfg.Facility*8 + 6,
	}, nil
}

// Write implements io.Writer. Each call becomes one syslog message.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	ts := time.Now().Format(time.Stamp)
	_, err := fmt.Fprintf(w.conn, "<%d>%s %s: %s\n", w.pri, ts, w.tag, msg)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the collector connection.
func (w *SyslogWriter) Close() error {
	return w.conn.Close()
}
