// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package brand carries the product identity. It lives in brand.json,
// embedded at build time, so packaging scripts and the daemon read the
// same answers. Forks rebrand by editing that one file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
)

//go:embed brand.json
var brandJSON []byte

// Brand mirrors brand.json.
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Vendor           string `json:"vendor"`
	Website          string `json:"website"`
	Repository       string `json:"repository"`
	Description      string `json:"description"`
	Tagline          string `json:"tagline"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultStateDir  string `json:"defaultStateDir"`
	DefaultLogDir    string `json:"defaultLogDir"`
	BinaryName       string `json:"binaryName"`
	ServiceName      string `json:"serviceName"`
	ConfigFileName   string `json:"configFileName"`
	Copyright        string `json:"copyright"`
	License          string `json:"license"`
}

var b Brand

// Identity fields lifted to package level for the common callers. The
// rest stays reachable through Get.
var (
	Name            string
	LowerName       string
	BinaryName      string
	ServiceName     string
	ConfigFileName  string
	ConfigEnvPrefix string
)

// Stamped by the linker on release builds.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("bad brand.json: " + err.Error())
	}
	Name, LowerName = b.Name, b.LowerName
	BinaryName, ServiceName = b.BinaryName, b.ServiceName
	ConfigFileName, ConfigEnvPrefix = b.ConfigFileName, b.ConfigEnvPrefix
}

// Get returns the full identity record.
func Get() Brand {
	return b
}

// UserAgent builds the User-Agent string for outbound HTTP requests.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// The standard directories honor <PREFIX>_CONFIG_DIR style environment
// overrides so tests and package-manager layouts can relocate them.

func GetConfigDir() string { return dirOverride("_CONFIG_DIR", b.DefaultConfigDir) }
func GetStateDir() string  { return dirOverride("_STATE_DIR", b.DefaultStateDir) }
func GetLogDir() string    { return dirOverride("_LOG_DIR", b.DefaultLogDir) }

func dirOverride(suffix, fallback string) string {
	if dir := os.Getenv(ConfigEnvPrefix + suffix); dir != "" {
		return dir
	}
	return fallback
}
