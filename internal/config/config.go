// Package config loads the loader's compile-time-ish configuration: the
// software part-number allow-list, the hardware part-number, failure/space
// thresholds, and filesystem layout. Loading follows the teacher's
// internal/config/config.go shape — a YAML file in the project root,
// overridden by environment variables, located by walking up from the
// working directory to the nearest go.mod — generalized from a single flat
// .env file to a YAML document plus per-field env overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"arincloader/internal/session"
)

// Paths groups the on-disk layout the loader depends on (spec.md §6
// "Persistent layout").
type Paths struct {
	KeyDir        string `yaml:"key_dir"`
	FirmwareStage string `yaml:"firmware_staging_path"`
	FirmwareFinal string `yaml:"firmware_final_path"`
}

// Config is the loader's full compile-time-ish configuration.
type Config struct {
	SupportedSoftwarePartNumbers []string `yaml:"supported_software_part_numbers"`
	HardwarePartNumber           string   `yaml:"hardware_part_number"`
	MaxUploadFailures            uint8    `yaml:"max_upload_failures"`
	MinAvailableSpace            uint64   `yaml:"min_available_space"`
	EmitIntermediateLUS          bool     `yaml:"emit_intermediate_lus"`
	Paths                        Paths    `yaml:"paths"`
}

var (
	loaded   *Config
	loadedOK bool
)

// Default returns the compile-time defaults used when no config file is
// present: session's package constants plus a conventional /keys, /firmware
// layout (spec.md §6).
func Default() *Config {
	return &Config{
		SupportedSoftwarePartNumbers: []string{
			"EMB-SW-007-137-045",
			"EMB-SW-007-137-046",
			"EMB-SW-007-137-047",
		},
		HardwarePartNumber:  "EMB-HW-007-137-00045",
		MaxUploadFailures:   session.MaxUploadFailures,
		MinAvailableSpace:   session.MinAvailableSpace,
		EmitIntermediateLUS: false,
		Paths: Paths{
			KeyDir:        "/keys",
			FirmwareStage: "/firmware/temp.bin",
			FirmwareFinal: "/firmware/final.bin",
		},
	}
}

// Load reads loader.yaml from the project root (the nearest ancestor
// directory containing go.mod, falling back to the working directory if
// none exists), applies it over Default(), then applies environment
// variable overrides, and caches the result.
func Load() (*Config, error) {
	if loaded != nil && loadedOK {
		return loaded, nil
	}

	cfg := Default()

	root := findProjectRoot()
	path := filepath.Join(root, "loader.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	loaded = cfg
	loadedOK = true
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOADER_HW_PN"); v != "" {
		cfg.HardwarePartNumber = v
	}
	if v := os.Getenv("LOADER_SW_PN_ALLOWLIST"); v != "" {
		cfg.SupportedSoftwarePartNumbers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOADER_MAX_UPLOAD_FAILURES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.MaxUploadFailures = uint8(n)
		}
	}
	if v := os.Getenv("LOADER_MIN_AVAILABLE_SPACE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MinAvailableSpace = n
		}
	}
	if v := os.Getenv("LOADER_EMIT_INTERMEDIATE_LUS"); v != "" {
		cfg.EmitIntermediateLUS = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("LOADER_KEY_DIR"); v != "" {
		cfg.Paths.KeyDir = v
	}
	if v := os.Getenv("LOADER_FIRMWARE_STAGE"); v != "" {
		cfg.Paths.FirmwareStage = v
	}
	if v := os.Getenv("LOADER_FIRMWARE_FINAL"); v != "" {
		cfg.Paths.FirmwareFinal = v
	}
}

func findProjectRoot() string {
	wd, _ := os.Getwd()
	cwd := wd
	if _, err := os.Stat(filepath.Join(cwd, "loader.yaml")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return wd
		}
		cwd = parent
	}
}

// IsSoftwarePartNumberSupported reports whether pn exactly matches an entry
// in the allow-list (spec.md §4.6 UPLOAD_PREP, §6 "exact match").
func (c *Config) IsSoftwarePartNumberSupported(pn string) bool {
	for _, supported := range c.SupportedSoftwarePartNumbers {
		if supported == pn {
			return true
		}
	}
	return false
}
