// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package brand

import (
	"testing"
)

func TestEmbeddedIdentity(t *testing.T) {
	b := Get()
	if b.Name == "" || b.LowerName == "" {
		t.Fatalf("identity not loaded: %+v", b)
	}
	if Name != b.Name {
		t.Errorf("package var Name = %q, struct has %q", Name, b.Name)
	}
	if BinaryName == "" {
		t.Error("BinaryName is empty")
	}
	if Version == "" {
		t.Error("Version lost its dev default")
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent("1.2.3"); got != Name+"/1.2.3" {
		t.Errorf("UserAgent = %q", got)
	}
	if got := UserAgent(""); got != Name+"/dev" {
		t.Errorf("UserAgent without version = %q", got)
	}
}

func TestDirOverrides(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_STATE_DIR", "/tmp/fw-state")
	if got := GetStateDir(); got != "/tmp/fw-state" {
		t.Errorf("GetStateDir() = %q, want /tmp/fw-state", got)
	}

	// An empty override falls through to the packaged default.
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	if got := GetConfigDir(); got != Get().DefaultConfigDir {
		t.Errorf("GetConfigDir() = %q, want default %q", got, Get().DefaultConfigDir)
	}
}
