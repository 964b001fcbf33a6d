/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package config builds the single configuration value shared by every
// policygen component. Values come from built-in defaults, an optional YAML
// file, a .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mikeb26/policygen/internal"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigurationMissing = errors.New("missing required configuration")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

const (
	EnvVendor          = "POLICYGEN_VENDOR"
	EnvModel           = "POLICYGEN_MODEL"
	EnvOutputDir       = "POLICYGEN_OUTPUT_DIR"
	EnvTimeout         = "POLICYGEN_TIMEOUT"
	EnvMaxRetries      = "POLICYGEN_MAX_RETRIES"
	EnvReasoningEffort = "POLICYGEN_REASONING_EFFORT"
	EnvAuditLog        = "POLICYGEN_AUDIT_LOG"
	EnvMethod          = "POLICYGEN_METHOD"
	EnvParallel        = "POLICYGEN_PARALLEL"

	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvAzureDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvAzureAPIVersion = "AZURE_OPENAI_API_VERSION"
)

var validReasoningEfforts = []string{"", "low", "medium", "high"}

const (
	DefaultTimeout    = 2 * time.Minute
	DefaultMaxRetries = 2
)

// Config holds everything a pipeline run needs. APIKey is only ever read
// from the environment so it never ends up in a YAML file.
type Config struct {
	Vendor          string        `yaml:"vendor"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"-"`
	Endpoint        string        `yaml:"endpoint"`
	APIVersion      string        `yaml:"api_version"`
	OutputDir       string        `yaml:"output_dir"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	ReasoningEffort string        `yaml:"reasoning_effort"`
	AuditLogPath    string        `yaml:"audit_log"`
	Method          string        `yaml:"method"`
	Parallel        bool          `yaml:"parallel"`

	// names of variables that were required but absent; filled in by
	// resolve and reported by Validate
	missing []string
}

func DefaultConfig() *Config {
	return &Config{
		Vendor:     internal.DefaultVendor,
		APIVersion: internal.DefaultAzureAPIVersion,
		OutputDir:  internal.DefaultOutputDir,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Method:     internal.MethodAutonomous,
	}
}

// Load builds a Config from the optional YAML file at path (empty means no
// file), the .env file in the working directory and the process environment.
// overrides are keyed by environment variable name and win over everything
// else. The result has not been validated; callers should invoke Validate
// before constructing any backend client.
func Load(path string, overrides map[string]string) (*Config, error) {
	// a missing .env is the common case; anything else is worth reporting
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Failed to load .env: %w", err)
	}

	return LoadWithEnv(path, Overlay(os.LookupEnv, overrides))
}

// Overlay returns a lookup function that consults overrides before lookup.
func Overlay(lookup func(string) (string, bool),
	overrides map[string]string) func(string) (string, bool) {

	return func(k string) (string, bool) {
		if v, ok := overrides[k]; ok {
			return v, true
		}
		return lookup(k)
	}
}

// LoadWithEnv is Load without the .env step and with an explicit variable
// lookup function.
func LoadWithEnv(path string,
	lookup func(string) (string, bool)) (*Config, error) {

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Failed to read config %v: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %v: %v",
				ErrInvalidConfiguration, path, err)
		}
	}

	if err := cfg.applyEnvOverrides(lookup); err != nil {
		return nil, err
	}
	cfg.resolve(lookup)

	return cfg, nil
}

func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	get := func(k string) (string, bool) {
		v, ok := lookup(k)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvVendor); ok {
		c.Vendor = strings.ToLower(v)
	}
	// POLICYGEN_MODEL beats the Azure deployment name; both beat YAML
	if v, ok := get(EnvModel); ok {
		c.Model = v
	} else if v, ok := get(EnvAzureDeployment); ok && c.Vendor == "azure" {
		c.Model = v
	}
	if v, ok := get(EnvOutputDir); ok {
		c.OutputDir = v
	}
	if v, ok := get(EnvAuditLog); ok {
		c.AuditLogPath = v
	}
	if v, ok := get(EnvMethod); ok {
		c.Method = strings.ToLower(v)
	}
	if v, ok := get(EnvReasoningEffort); ok {
		c.ReasoningEffort = strings.ToLower(v)
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %v=%q: %v", ErrInvalidConfiguration,
				EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v, ok := get(EnvMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %v=%q: %v", ErrInvalidConfiguration,
				EnvMaxRetries, v, err)
		}
		c.MaxRetries = n
	}
	if v, ok := get(EnvParallel); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %v=%q: %v", ErrInvalidConfiguration,
				EnvParallel, v, err)
		}
		c.Parallel = b
	}
	if v, ok := get(EnvAzureEndpoint); ok {
		c.Endpoint = v
	}
	if v, ok := get(EnvAzureAPIVersion); ok {
		c.APIVersion = v
	}

	return nil
}

// resolve fills in vendor dependent values (credential, default model) and
// records which required variables are absent.
func (c *Config) resolve(lookup func(string) (string, bool)) {
	c.missing = nil

	info, ok := internal.GetVendorInfo(c.Vendor)
	if !ok {
		// reported by Validate as an invalid vendor
		return
	}
	keyEnv := info.KeyEnv

	if key, ok := lookup(keyEnv); ok && strings.TrimSpace(key) != "" {
		c.APIKey = strings.TrimSpace(key)
	} else {
		c.missing = append(c.missing, keyEnv)
	}

	if c.Vendor == "azure" {
		if c.Endpoint == "" {
			// keep the same order the variables are documented in
			c.missing = append([]string{EnvAzureEndpoint}, c.missing...)
		}
	}

	if c.Model == "" {
		c.Model = info.DefaultModel
	}
}

// Validate fails fast on missing credentials/endpoints and on malformed
// values. It performs no network activity.
func (c *Config) Validate() error {
	if _, ok := internal.GetVendorInfo(c.Vendor); !ok {
		return fmt.Errorf("%w: vendor %q is not supported (valid: %v)",
			ErrInvalidConfiguration, c.Vendor, SupportedVendors())
	}
	if len(c.missing) > 0 {
		return fmt.Errorf("%w: %v", ErrConfigurationMissing,
			strings.Join(c.missing, ", "))
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory must not be empty",
			ErrInvalidConfiguration)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v",
			ErrInvalidConfiguration, c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative, got %v",
			ErrInvalidConfiguration, c.MaxRetries)
	}
	if _, ok := internal.GenerationMethodLabels[c.Method]; !ok {
		return fmt.Errorf("%w: unknown generation method %q",
			ErrInvalidConfiguration, c.Method)
	}
	if !slices.Contains(validReasoningEfforts, c.ReasoningEffort) {
		return fmt.Errorf("%w: unknown reasoning effort %q",
			ErrInvalidConfiguration, c.ReasoningEffort)
	}

	return nil
}

// Missing returns the names of required variables that were not set.
func (c *Config) Missing() []string {
	return slices.Clone(c.missing)
}

func SupportedVendors() []string {
	return internal.GetVendors()
}

// KeyEnv returns the variable name holding the credential for vendor.
func KeyEnv(vendor string) (string, bool) {
	info, ok := internal.GetVendorInfo(vendor)
	return info.KeyEnv, ok
}
