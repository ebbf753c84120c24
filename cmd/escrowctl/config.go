package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration read from the home directory. The
// escrow rules themselves are part of the custody state and set with the
// init command.
type Config struct {
	// LogLevel is one of debug, info, error or none.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// NodeKey is the private key file of the operator of this home.
	// Every command is authenticated as this key in addition to the keys
	// it is given, so operations without a -key flag are attributed to
	// the operator in the audit log.
	NodeKey string `yaml:"node_key" toml:"node_key"`

	Audit AuditConfig `yaml:"audit" toml:"audit"`

	// Authorizers lists the authorization contexts escrows can be bound
	// to. When empty every release and refund is approved.
	Authorizers []AuthorizerConfig `yaml:"authorizers" toml:"authorizers"`

	// CELCostLimit bounds the evaluation of a single policy.
	CELCostLimit uint64 `yaml:"cel_cost_limit" toml:"cel_cost_limit"`
}

// AuditConfig configures where committed audit events are published.
// Relative paths are resolved against the home directory.
type AuditConfig struct {
	// File receives events as JSON lines and is rotated once it grows
	// beyond MaxSizeMB.
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	// Bolt is a bbolt database indexing events by escrow.
	Bolt string `yaml:"bolt" toml:"bolt"`
	// SignerKey is a private key file. When set every event is signed.
	SignerKey string `yaml:"signer_key" toml:"signer_key"`
}

// AuthorizerConfig declares a single authorization context.
type AuthorizerConfig struct {
	// Type is one of "allow", "cel" or "ed25519".
	Type string `yaml:"type" toml:"type"`
	// Address is the authorizer ID escrows refer to. It can be omitted
	// for ed25519, the address of the public key is used.
	Address string `yaml:"address" toml:"address"`
	// PublicKey is the hex encoded ed25519 key proofs are checked with.
	PublicKey string `yaml:"public_key" toml:"public_key"`
	// Policy makes an ed25519 authorizer also require the escrow policy,
	// evaluated as a CEL expression, to approve the request.
	Policy bool `yaml:"policy" toml:"policy"`
}

const (
	yamlConfigName = "config.yaml"
	tomlConfigName = "config.toml"
)

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Audit: AuditConfig{
			File:       "audit.jsonl",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

// loadConfig reads config.yaml or config.toml from home. Values missing
// from the file keep their defaults. A home without a configuration file
// uses the defaults.
func loadConfig(home string) (Config, error) {
	conf := defaultConfig()

	if raw, err := os.ReadFile(filepath.Join(home, yamlConfigName)); err == nil {
		if err := yaml.Unmarshal(raw, &conf); err != nil {
			return conf, fmt.Errorf("cannot decode %s: %s", yamlConfigName, err)
		}
		return conf, nil
	} else if !os.IsNotExist(err) {
		return conf, fmt.Errorf("cannot read %s: %s", yamlConfigName, err)
	}

	path := filepath.Join(home, tomlConfigName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return conf, nil
	}
	meta, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return conf, fmt.Errorf("cannot decode %s: %s", tomlConfigName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return conf, fmt.Errorf("unknown keys in %s: %v", tomlConfigName, undecoded)
	}
	return conf, nil
}

// resolve returns path relative to home unless it is absolute.
func resolve(home, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}
