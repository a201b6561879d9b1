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

package catalog

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tomoncle/catalog/auth"
	"github.com/tomoncle/catalog/config"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/repository"
	"github.com/uptrace/bun"

	// registers the catalog models with the storage gateway
	_ "github.com/tomoncle/catalog/model"
)

// Catalog owns the storage gateway and the credential service. Request
// handlers take a fresh Session per request.
type Catalog struct {
	cfg     *config.Config
	factory *database.BaseDatabaseFactory
	auth    *auth.Service
}

type options struct {
	registerer prometheus.Registerer
	logger     database.Logger
}

type Option func(*options)

// WithRegisterer sets where query metrics are registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithDatabaseLogger(l database.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open validates cfg, connects, migrates when configured and builds the
// credential service.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ApplyLogging()

	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	factory := database.NewDatabaseFactory()
	factory.SetRegisterer(o.registerer)
	if o.logger != nil {
		factory.SetLogger(o.logger)
	}
	dbCfg := cfg.ConfigLoader()
	if _, err := factory.CreateFromConfig(dbCfg); err != nil {
		return nil, err
	}
	if err := factory.InitializeDatabase(ctx, dbCfg.DataMigrateConfig.EnableMigrateOnStartup); err != nil {
		_ = factory.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return &Catalog{
		cfg:     cfg,
		factory: factory,
		auth:    auth.NewService(factory.GetDB(), tokens, auth.WithBcryptCost(cfg.Auth.BcryptCost)),
	}, nil
}

// Session returns a new set of repositories sharing one unit of work.
func (c *Catalog) Session() *repository.Session {
	return repository.NewSession(c.factory.GetDB())
}

func (c *Catalog) Credentials() *auth.Service { return c.auth }

func (c *Catalog) DB() *bun.DB { return c.factory.GetDB() }

// Migrate creates missing tables and indexes.
func (c *Catalog) Migrate(ctx context.Context) error {
	return c.factory.GetManager().RunMigrations(ctx)
}

// ExportForeignKeys writes the foreign key constraints migrations apply to
// path as YAML and returns how many were written.
func (c *Catalog) ExportForeignKeys(path string) (int, error) {
	return database.ExportForeignKeys(database.GetLogger(), &c.cfg.ConfigLoader().DataMigrateConfig, path)
}

func (c *Catalog) Health(ctx context.Context) *database.HealthStatus {
	return c.factory.GetHealthStatus(ctx)
}

func (c *Catalog) Stats() *database.DBStats {
	return c.factory.GetStats()
}

func (c *Catalog) Close() error {
	return c.factory.Close()
}
