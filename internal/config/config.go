// Copyright 2025 JulesFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the CLI configuration: where the archive file
// lives, who the acting user is and the key blob tokens are sealed with.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"julesfs/internal/security"
)

// getConfigDir returns the config directory path.
// Uses JULESFS_CONFIG_DIR env var if set, otherwise defaults to ~/.julesfs.
// Computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("JULESFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".julesfs")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	return getConfigDir()
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// UserConfig declares the acting user.
type UserConfig struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
}

// Config is the on-disk configuration file.
type Config struct {
	// Archive is the path of the archive database file.
	Archive string `yaml:"archive"`

	User UserConfig `yaml:"user"`

	// BlobKey is the base64-encoded AES key sealing blob tokens. Tokens
	// issued under one key do not open under another.
	BlobKey string `yaml:"blob-key"`
}

// NewDefault builds a fresh configuration for the given user name with a
// generated user id and blob key.
func NewDefault(userName string) (*Config, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate blob key: %w", err)
	}
	cfg := &Config{
		User: UserConfig{
			ID:   uuid.NewString(),
			Name: userName,
		},
		BlobKey: base64.StdEncoding.EncodeToString(key),
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero-value fields with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Archive == "" {
		cfg.Archive = filepath.Join(getConfigDir(), "archive.jfs")
	}
	if cfg.User.Name == "" {
		cfg.User.Name = os.Getenv("USER")
	}
}

// Validate reports the first problem that makes the config unusable.
func (cfg *Config) Validate() error {
	if cfg.User.Name == "" {
		return fmt.Errorf("user.name is not set")
	}
	// The id is the stable principal permission rows key on. Minting one
	// here would hand the user a fresh identity on every run, so a config
	// without an id is rejected instead.
	if cfg.User.ID == "" {
		return fmt.Errorf("user.id is not set (run init)")
	}
	if cfg.BlobKey == "" {
		return fmt.Errorf("blob-key is not set (run init)")
	}
	if key, err := cfg.BlobKeyBytes(); err != nil {
		return err
	} else if n := len(key); n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("blob-key must decode to 16, 24 or 32 bytes, got %d", n)
	}
	return nil
}

// ActingUser returns the configured user.
func (cfg *Config) ActingUser() security.User {
	return security.User{
		ID:    cfg.User.ID,
		Name:  cfg.User.Name,
		Roles: cfg.User.Roles,
	}
}

// BlobKeyBytes decodes the configured blob key.
func (cfg *Config) BlobKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("blob-key is not valid base64: %w", err)
	}
	return key, nil
}

// Load reads the config from path. Returns nil without error if the file
// does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (cfg *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
