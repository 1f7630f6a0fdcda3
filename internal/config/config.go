// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and writes the passmaster configuration. Values come
// from defaults, a YAML file, PASSMASTER_* environment variables and command
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "passmaster"
	envPrefix = "passmaster"
)

type Database struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// KDF holds the scrypt cost parameters used to derive session keys.
type KDF struct {
	N int `mapstructure:"n" yaml:"n"`
	R int `mapstructure:"r" yaml:"r"`
	P int `mapstructure:"p" yaml:"p"`
}

type Config struct {
	Database Database `mapstructure:"database" yaml:"database"`
	Language string   `mapstructure:"language" yaml:"language"`
	Debug    bool     `mapstructure:"debug" yaml:"debug"`
	KDF      KDF      `mapstructure:"kdf" yaml:"kdf"`
}

// Defaults returns the built-in configuration values keyed the way viper
// expects them.
func Defaults() map[string]any {
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./passmaster.db",
		"language":      "en",
		"debug":         false,
		"kdf.n":         1 << 15,
		"kdf.r":         8,
		"kdf.p":         2,
	}
}

// GetConfigPath returns the full path of the user or system configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Passmaster")
		default:
			configDir = "/etc/passmaster"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, appName)
	}

	return filepath.Join(configDir, appName+".yaml"), nil
}

// LoadConfig builds a T from defaults, the first passmaster.yaml found in the
// user, system or current directory (or explicitPath when given), the
// environment and the flags of cmd. A missing file is not an error.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	if explicitPath != nil && *explicitPath != "" {
		v.SetConfigFile(*explicitPath)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := bindFlags(v, cmd); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// bindFlags maps the persistent CLI flags onto their nested config keys.
// Unset flags do not override file or environment values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	keys := map[string]string{
		"db-type": "database.type",
		"db-dsn":  "database.dsn",
		"lang":    "language",
		"debug":   "debug",
	}
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// WriteConfigFile marshals c and writes it to the user or system config path,
// creating the directory as needed. It returns the path written.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	// 0600: the DSN may carry credentials.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
