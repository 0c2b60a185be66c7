// Package config loads leapcatalog configuration from files, environment
// variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	intconfig "github.com/leapstack-labs/leapcatalog/internal/config"
	"github.com/spf13/pflag"
)

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > leapcatalog.yaml > leapcatalog.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("leapcatalog.yaml"); err == nil {
		return "leapcatalog.yaml"
	}
	if _, err := os.Stat("leapcatalog.yml"); err == nil {
		return "leapcatalog.yml"
	}
	return ""
}

// flagKeys maps flag names whose koanf keys are not derivable by the
// generic dash-to-dot rule.
var flagKeys = map[string]string{
	"platform-instance": "platform_instance",
	"container-name":    "container_name",
	"external-url":      "external_url",
	"source-sslmode":    "source.sslmode",
}

// flagKey translates a flag name to its koanf config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", ".")
}

// GetConfigFileUsed returns the path of the config file that was loaded,
// or empty string if no file was used.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Load builds the effective configuration.
// Precedence (lowest to highest): defaults < config file < environment
// variables (LEAPCATALOG_ prefix) < command-line flags.
func Load(explicitFile string, flags *pflag.FlagSet) (*intconfig.Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(intconfig.Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional unless explicitly requested)
	configFileUsed = findConfigFile(explicitFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			if explicitFile != "" {
				return nil, fmt.Errorf("failed to load config file %s: %w", configFileUsed, err)
			}
			// Ignore errors from auto-discovered files
			configFileUsed = ""
		}
	}

	// 3. Environment variables. Double underscore nests:
	// LEAPCATALOG_SOURCE__HOST -> source.host
	if err := k.Load(env.Provider("LEAPCATALOG_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "LEAPCATALOG_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// 4. Command-line flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg intconfig.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
