/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tomoncle/catalog/auth"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/utils"
	"gopkg.in/yaml.v3"
)

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Config is the top-level catalog configuration file.
type Config struct {
	Database database.Config `yaml:"database"`
	Auth     AuthConfig      `yaml:"auth"`
	Log      LogConfig       `yaml:"log"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// Default returns a configuration backed by a local SQLite file.
func Default() *Config {
	db := database.DefaultConfig()
	db.ConnectionConfig.Type = "sqlite"
	db.ConnectionConfig.DBName = "catalog"
	return &Config{
		Database: *db,
		Auth:     AuthConfig{TokenTTL: auth.DefaultTokenTTL},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies .env files and
// environment overrides. An empty path skips the file. Missing .env files
// are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides auth and log settings. DB_* variables are applied
// later by the database factory.
func (c *Config) applyEnv() {
	c.Auth.Secret = utils.EnvDefaultString("CATALOG_SECRET", c.Auth.Secret)
	if v := os.Getenv("CATALOG_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("CATALOG_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Auth.BcryptCost = n
		}
	}
	c.Log.Level = utils.EnvDefaultString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.EnvDefaultString("LOG_FORMAT", c.Log.Format)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.Secret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.secret: %w", auth.ErrWeakSecret))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl: must not be negative"))
	}
	if t := c.Database.ConnectionConfig.Type; !database.IsSupportedType(t) {
		errs = append(errs, fmt.Errorf("database.connection.type: unsupported %q", t))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConfigLoader returns the storage section.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

// ApplyLogging configures the process-wide loggers.
func (c *Config) ApplyLogging() {
	utils.ConfigureLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
}
