// Package config loads the small YAML descriptor a signer process
// needs at startup: which named parameter set to run, where its state
// file lives, which identifier to sign under, and how long to wait on
// the state store's advisory lock.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wintersig/xmss-go/internal/xerrors"
	"github.com/wintersig/xmss-go/paramset"
)

// Duration wraps time.Duration so it can be written as "5s" in YAML
// instead of a raw integer nanosecond count.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SignerConfig describes one signer process: its parameter set, the
// state file it persists its index into, the identifier it signs
// under, and the lock timeout it should tolerate before giving up on a
// contended state store.
type SignerConfig struct {
	ParameterSet string   `yaml:"parameter_set"`
	StatePath    string   `yaml:"state_path"`
	Identifier   string   `yaml:"identifier"`
	LockTimeout  Duration `yaml:"lock_timeout"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads a SignerConfig from a YAML file at path, expanding
// ${VAR_NAME} and ${VAR_NAME:-default} references against the process
// environment before parsing, and applies defaults for unset fields.
func Load(path string) (*SignerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file %s: %v", xerrors.MalformedInput, path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg SignerConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %s: %v", xerrors.MalformedInput, path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SignerConfig) applyDefaults() {
	if c.LockTimeout == 0 {
		c.LockTimeout = Duration(5 * time.Second)
	}
	if c.Identifier == "" {
		c.Identifier = "default"
	}
}

// Validate checks the configuration is usable: the parameter set must
// be one of the registry's known names, and a state path must be set.
func (c *SignerConfig) Validate() error {
	if _, err := paramset.Lookup(c.ParameterSet); err != nil {
		return fmt.Errorf("%w: signer config names unknown parameter set %q", xerrors.InvalidParameter, c.ParameterSet)
	}
	if c.StatePath == "" {
		return fmt.Errorf("%w: signer config is missing state_path", xerrors.InvalidParameter)
	}
	return nil
}
