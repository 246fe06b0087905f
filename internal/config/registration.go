package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/beacon.report/internal/beacon"
)

// DefaultConfigPath is the path to the canonical registration defaults file.
const DefaultConfigPath = "config/registration.defaults.json"

// Origin policy names accepted in the "origin" field.
const (
	OriginLast  = "last"
	OriginFirst = "first"
	OriginID    = "id"
)

//go:embed registration.schema.json
var registrationSchemaJSON string

// registrationSchema rejects unknown keys and mistyped values before the
// document is decoded. Range checks live in Validate.
var registrationSchema = jsonschema.MustCompileString("registration.schema.json", registrationSchemaJSON)

// RegistrationConfig holds the tunable parameters of a registration run.
// Fields omitted from a JSON file stay nil and the Get* accessors fall
// back to built-in defaults.
type RegistrationConfig struct {
	MinOverlap  *int    `json:"min_overlap,omitempty" yaml:"min_overlap,omitempty"`
	Origin      *string `json:"origin,omitempty" yaml:"origin,omitempty"`       // "last", "first" or "id"
	OriginID    *int    `json:"origin_id,omitempty" yaml:"origin_id,omitempty"` // used when origin is "id"
	Workers     *int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	LogProgress *bool   `json:"log_progress,omitempty" yaml:"log_progress,omitempty"`
}

// Helper functions to create pointers
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyRegistrationConfig returns a config with every field unset.
func EmptyRegistrationConfig() *RegistrationConfig {
	return &RegistrationConfig{}
}

// DefaultRegistrationConfig returns a config with every field set to its
// built-in default.
func DefaultRegistrationConfig() *RegistrationConfig {
	return &RegistrationConfig{
		MinOverlap:  ptrInt(beacon.DefaultMinOverlap),
		Origin:      ptrString(OriginLast),
		Workers:     ptrInt(1),
		LogProgress: ptrBool(true),
	}
}

// LoadRegistrationConfig loads a RegistrationConfig from a JSON or YAML
// file. The file must have a .json, .yaml or .yml extension and be at most
// 1MB.
func LoadRegistrationConfig(path string) (*RegistrationConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if ext != ".json" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := registrationSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	cfg := EmptyRegistrationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// schema check and decoder. An empty document becomes {}.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *RegistrationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/beacon/parse/
	}
	for _, path := range candidates {
		if cfg, err := LoadRegistrationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *RegistrationConfig) Validate() error {
	if c.MinOverlap != nil && *c.MinOverlap < 1 {
		return fmt.Errorf("min_overlap must be at least 1, got %d", *c.MinOverlap)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.OriginID != nil && (*c.OriginID < 0 || *c.OriginID > 0xFFFF) {
		return fmt.Errorf("origin_id must be between 0 and 65535, got %d", *c.OriginID)
	}

	switch c.GetOrigin() {
	case OriginLast, OriginFirst:
	case OriginID:
		if c.OriginID == nil {
			return fmt.Errorf("origin %q requires origin_id", OriginID)
		}
	default:
		return fmt.Errorf("origin must be %q, %q or %q, got %q", OriginLast, OriginFirst, OriginID, c.GetOrigin())
	}

	return nil
}

// GetMinOverlap returns the min_overlap value or the default.
func (c *RegistrationConfig) GetMinOverlap() int {
	if c.MinOverlap == nil {
		return beacon.DefaultMinOverlap
	}
	return *c.MinOverlap
}

// GetOrigin returns the origin policy name or the default.
func (c *RegistrationConfig) GetOrigin() string {
	if c.Origin == nil || *c.Origin == "" {
		return OriginLast
	}
	return *c.Origin
}

// GetOriginID returns the origin_id value, or 0 when unset.
func (c *RegistrationConfig) GetOriginID() int {
	if c.OriginID == nil {
		return 0
	}
	return *c.OriginID
}

// GetWorkers returns the workers value or the default.
func (c *RegistrationConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetLogProgress returns the log_progress value or the default.
func (c *RegistrationConfig) GetLogProgress() bool {
	if c.LogProgress == nil {
		return true
	}
	return *c.LogProgress
}

// OriginPolicy maps the origin name to the engine policy.
func (c *RegistrationConfig) OriginPolicy() beacon.OriginPolicy {
	switch c.GetOrigin() {
	case OriginFirst:
		return beacon.OriginFirst
	case OriginID:
		return beacon.OriginByID
	default:
		return beacon.OriginLast
	}
}

// EngineOptions converts the config into registration engine options.
// Progress logging is left to the caller.
func (c *RegistrationConfig) EngineOptions() []beacon.Option {
	return []beacon.Option{
		beacon.WithMinOverlap(c.GetMinOverlap()),
		beacon.WithOrigin(c.OriginPolicy(), beacon.ScannerID(c.GetOriginID())),
		beacon.WithWorkers(c.GetWorkers()),
	}
}
