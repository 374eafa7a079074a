// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package geoip

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

var (
	countriesOnce sync.Once
	countryNames  map[string]string
)

func loadCountryNames() {
	countriesOnce.Do(func() {
		countryNames = make(map[string]string)
		if err := yaml.Unmarshal(countriesYAML, &countryNames); err != nil {
			// The table is embedded and ships with the binary; a parse
			// failure means a broken build, not a runtime condition.
			panic("geoip: failed to parse countries.yaml: " + err.Error())
		}
	})
}

// CountryName returns the display name for an ISO code. Unknown codes and
// the sentinel bucket return "Unknown".
func CountryName(code string) string {
	loadCountryNames()
	if name, ok := countryNames[strings.ToLower(code)]; ok {
		return name
	}
	return "Unknown"
}
