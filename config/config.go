package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
	"github.com/grovetools/extdev/schema"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the project configuration file.
const ConfigFileName = "extdev.toml"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads, expands and parses a configuration file, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadRaw parses one file without defaults or validation, so overrides
// can be merged in before either runs.
func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return LoadFromBytes(data, path)
}

// LoadFromBytes parses configuration data. Environment variable
// references of the form ${VAR} are expanded before parsing.
func LoadFromBytes(data []byte, path string) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}
	return &cfg, nil
}

// LoadDefault finds extdev.toml from the working directory upward and
// loads it with overrides.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	path, err := FindConfigFile(cwd)
	if err != nil {
		return nil, err
	}
	return LoadWithOverrides(path)
}

// LoadWithOverrides loads a base file, merges extdev.override.toml
// from the same directory when present, then applies defaults and
// validates the merged result.
func LoadWithOverrides(baseFile string) (*Config, error) {
	cfg, err := loadRaw(baseFile)
	if err != nil {
		return nil, err
	}

	overridePath := filepath.Join(filepath.Dir(baseFile), "extdev.override.toml")
	if _, err := os.Stat(overridePath); err == nil {
		override, err := loadRaw(overridePath)
		if err != nil {
			return nil, err
		}
		cfg = mergeConfigs(cfg, override)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile walks from startDir toward the filesystem root
// looking for extdev.toml.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ConfigNotFound(ConfigFileName).
				WithDetail("searchedFrom", startDir)
		}
		dir = parent
	}
}

func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = "http://localhost" + cfg.Server.Addr
	}
}

// Validate checks the config against the embedded JSON Schema, then
// applies the semantic checks the schema can't express.
func Validate(cfg *Config) error {
	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(cfg); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		if _, dup := seen[ext.UUID]; dup {
			return errors.New(errors.ErrCodeConfigValidation, "duplicate extension uuid").
				WithDetail("uuid", ext.UUID)
		}
		seen[ext.UUID] = struct{}{}

		if ext.Surface != "" && !core.IsValidSurface(core.Surface(ext.Surface)) {
			return errors.New(errors.ErrCodeConfigValidation, "unknown extension surface").
				WithDetail("uuid", ext.UUID).
				WithDetail("surface", ext.Surface)
		}
	}
	return nil
}
