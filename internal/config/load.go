// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config provides HCL configuration handling for firewatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// LoadOptions adjusts parsing and validation behavior.
type LoadOptions struct {
	// AllowUnknownFields keeps decode errors for unrecognized HCL fields
	// from failing the load, so newer config files still parse.
	AllowUnknownFields bool

	// SkipValidation loads without running Validate (used by tooling that
	// inspects partial configs)
	SkipValidation bool
}

// DefaultLoadOptions is the strict mode the daemon loads with.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		AllowUnknownFields: false,
		SkipValidation:     false,
	}
}

// LoadResult carries the loaded config plus any validation warnings.
type LoadResult struct {
	Config   *Config
	Warnings []string
}

// LoadFile loads an HCL config file with defaulting and validation.
func LoadFile(path string) (*Config, error) {
	result, err := LoadFileWithOptions(path, DefaultLoadOptions())
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadFileWithOptions is LoadFile with explicit options.
func LoadFileWithOptions(path string, opts LoadOptions) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadHCLWithOptions(data, path, opts)
}

// LoadHCL parses config from HCL source. The filename only labels
// diagnostics.
func LoadHCL(data []byte, filename string) (*Config, error) {
	result, err := LoadHCLWithOptions(data, filename, DefaultLoadOptions())
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadHCLWithOptions is LoadHCL with explicit options.
func LoadHCLWithOptions(data []byte, filename string, opts LoadOptions) (*LoadResult, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %w", diags)
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		if !opts.AllowUnknownFields {
			for _, diag := range diags {
				if diag.Severity == hcl.DiagError {
					return nil, fmt.Errorf("decoding HCL: %w", diags)
				}
			}
		}
	}

	if config.SchemaVersion != "" && config.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("config version %s is not supported (current: %s)",
			config.SchemaVersion, CurrentSchemaVersion)
	}

	config.ApplyDefaults()

	result := &LoadResult{Config: &config}

	if !opts.SkipValidation {
		verrs := config.Validate()
		if verrs.HasErrors() {
			return nil, fmt.Errorf("config validation failed: %w", verrs)
		}
		for _, w := range verrs.Warnings() {
			result.Warnings = append(result.Warnings, w.Error())
		}
	}

	return result, nil
}

// SaveHCL writes the config to path in formatted HCL, creating parent
// directories as needed.
func SaveHCL(cfg *Config, path string) error {
	bytes, err := GenerateHCL(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	return os.WriteFile(path, bytes, 0600)
}

// GenerateHCL renders the config as HCL source.
func GenerateHCL(cfg *Config) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(cfg, f.Body())
	return f.Bytes(), nil
}
