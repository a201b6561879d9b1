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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tomoncle/catalog/utils"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// storeDriver is what a configured type needs to open a pool: the
// database/sql driver, its DSN and the Bun dialect.
type storeDriver struct {
	driver  string
	dsn     func(*ConnectionConfig) string
	dialect func() schema.Dialect
}

var (
	mysqlStore  = storeDriver{"mysql", mysqlDSN, func() schema.Dialect { return mysqldialect.New() }}
	pqStore     = storeDriver{"postgres", postgresDSN, func() schema.Dialect { return pgdialect.New() }}
	pgxStore    = storeDriver{"pgx", postgresDSN, func() schema.Dialect { return pgdialect.New() }}
	sqliteStore = storeDriver{sqliteshim.ShimName, sqliteDSN, func() schema.Dialect { return sqlitedialect.New() }}
)

var storeDrivers = map[string]storeDriver{
	"mysql":      mysqlStore,
	"postgres":   pqStore,
	"postgresql": pqStore,
	"pgx":        pgxStore,
	"sqlite":     sqliteStore,
	"sqlite3":    sqliteStore,
}

func isSQLite(t string) bool {
	return t == "sqlite" || t == "sqlite3"
}

func mysqlDSN(c *ConnectionConfig) string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, charset, c.ConnectTimeout, c.ReadTimeout, c.WriteTimeout)
}

// postgresDSN is understood by both lib/pq and pgx.
func postgresDSN(c *ConnectionConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode, int(c.ConnectTimeout.Seconds()))
}

// sqliteDSN gives ":memory:" and an empty name a uniquely named shared
// in-memory database, so separate managers never see each other's tables.
func sqliteDSN(c *ConnectionConfig) string {
	name := c.DBName
	switch {
	case name == "" || name == ":memory:":
		return fmt.Sprintf("file:catalog-%s?mode=memory&cache=shared", uuid.NewString())
	case strings.HasSuffix(name, ".db"):
		return name
	default:
		return name + ".db"
	}
}

type defaultDatabaseManager struct {
	config     *ConnectionConfig
	migrate    *DataMigrateConfig
	logger     Logger
	registerer prometheus.Registerer

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	connected bool
	lastError error

	watchOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// Nil configs fall back to the defaults.
func NewDatabaseManager(config *ConnectionConfig, migrate *DataMigrateConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	if migrate == nil {
		migrate = DefaultDataMigrateConfig()
	}
	return &defaultDatabaseManager{
		config:     config,
		migrate:    migrate,
		logger:     GetLogger(),
		registerer: prometheus.DefaultRegisterer,
		stop:       make(chan struct{}),
	}
}

// Connect opens and pings the pool. With a positive HealthCheckInterval it
// also starts the background watcher, once per manager.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	sqlDB, db, err := dm.open()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		dm.lastError = err
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if isSQLite(dm.config.Type) {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			dm.lastError = err
			_ = db.Close()
			return fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	dm.sqlDB, dm.db = sqlDB, db
	dm.connected, dm.lastError = true, nil
	if dm.config.HealthCheckInterval > 0 {
		dm.watchOnce.Do(func() { go dm.watch() })
	}
	if dm.logger != nil {
		dm.logger.Info("Database connected successfully", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	}
	return nil
}

// open builds the pool for the configured type and attaches the query hooks.
func (dm *defaultDatabaseManager) open() (*sql.DB, *bun.DB, error) {
	store, ok := storeDrivers[dm.config.Type]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}
	dsn := dm.config.DSN
	if dsn == "" {
		dsn = store.dsn(dm.config)
	}
	sqlDB, err := sql.Open(store.driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	dm.tunePool(sqlDB)
	db := bun.NewDB(sqlDB, store.dialect())

	if dm.config.EnableQueryLog {
		if dm.config.QueryLogStyle == "bundebug" {
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
				bundebug.WithWriter(utils.LogOutput()),
			))
		} else {
			db.AddQueryHook(NewQueryHook(
				WithQueryHookEnabled(true),
				WithQueryHookEnv("BUNDEBUG"),
				WithQueryHookWriter(utils.LogOutput()),
			))
		}
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	if dm.config.EnableMetrics {
		hook, err := NewMetricsHook(dm.registerer)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to register query metrics: %w", err)
		}
		db.AddQueryHook(hook)
	}
	return sqlDB, db, nil
}

func (dm *defaultDatabaseManager) tunePool(sqlDB *sql.DB) {
	// One connection keeps an in-memory database and its pragma alive, and
	// SQLite serializes writers anyway.
	if isSQLite(dm.config.Type) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

// Disconnect stops the watcher and closes the pool.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.stopOnce.Do(func() { close(dm.stop) })
	return dm.closeConnection()
}

func (dm *defaultDatabaseManager) closeConnection() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB, dm.connected = nil, nil, false
	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "error", err)
		} else {
			dm.logger.Info("Database connection closed")
		}
	}
	return err
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	if err := dm.closeConnection(); err != nil && dm.logger != nil {
		dm.logger.Warn("Error closing the previous connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

// HealthCheck pings the store with a five second cap and reports the pool
// usage alongside.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	dm.mu.RLock()
	db, sqlDB := dm.db, dm.sqlDB
	dm.mu.RUnlock()
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.PingContext(ctx)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}
	stats := sqlDB.Stats()
	status.ActiveConns, status.IdleConns, status.MaxOpenConns = stats.InUse, stats.Idle, stats.MaxOpenConnections

	dm.mu.Lock()
	dm.lastError = err
	dm.mu.Unlock()
	return status
}

// watch checks the store every HealthCheckInterval until Disconnect. After
// a failed check it reconnects when enabled, giving up once
// MaxReconnectTries attempts in a row have failed.
func (dm *defaultDatabaseManager) watch() {
	ticker := time.NewTicker(dm.config.HealthCheckInterval)
	defer ticker.Stop()

	failed := 0
	for {
		select {
		case <-dm.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), dm.config.ConnectTimeout)
		healthy := dm.HealthCheck(ctx).Healthy
		cancel()
		if healthy {
			failed = 0
			continue
		}
		if !dm.config.EnableReconnect || failed >= dm.config.MaxReconnectTries {
			continue
		}

		select {
		case <-dm.stop:
			return
		case <-time.After(dm.config.ReconnectInterval):
		}
		failed++
		ctx, cancel = context.WithTimeout(context.Background(), dm.config.ConnectTimeout)
		err := dm.Reconnect(ctx)
		cancel()
		if dm.logger == nil {
			continue
		}
		if err != nil {
			dm.logger.Error("Reconnect failed", "error", err, "try", failed)
		} else {
			dm.logger.Info("Reconnect succeeded", "try", failed)
			failed = 0
		}
	}
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()
	if sqlDB == nil {
		return &DBStats{}
	}
	s := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger, dm.migrate).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

// SetRegisterer selects the prometheus registry used when EnableMetrics is
// set. It must be called before Connect.
func (dm *defaultDatabaseManager) SetRegisterer(reg prometheus.Registerer) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.registerer = reg
}
