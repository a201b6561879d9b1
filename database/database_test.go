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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/catalog/utils"
	"github.com/uptrace/bun"
)

type testShelf struct {
	bun.BaseModel `bun:"table:test_shelves,alias:s"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type testBook struct {
	bun.BaseModel `bun:"table:test_books,alias:b"`

	ID      int64  `bun:"id,pk,autoincrement"`
	ShelfID int64  `bun:"shelf_id,notnull"`
	Title   string `bun:"title"`
}

func init() {
	RegisteredModel(NewModelAdapter((*testShelf)(nil), 10))
	RegisteredModel(NewModelAdapter((*testBook)(nil), 20).WithIndex("idx_test_books_shelf_id", false, "shelf_id"))
	RegisterForeignKey(ForeignKeyConstraint{
		Table:           "test_books",
		Column:          "shelf_id",
		ReferenceTable:  "test_shelves",
		ReferenceColumn: "id",
		OnDelete:        "RESTRICT",
	})
}

func openMemory(t *testing.T) *BaseDatabaseFactory {
	t.Helper()
	cfg := MemoryConfig()
	factory := NewDatabaseFactory()
	factory.SetRegisterer(prometheus.NewRegistry())
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, factory.InitializeDatabase(context.Background(), true))
	t.Cleanup(func() { _ = factory.Close() })
	return factory
}

func TestMigrationsCreateTablesOnce(t *testing.T) {
	factory := openMemory(t)
	db := factory.GetDB()
	ctx := context.Background()

	mm := NewMigrationManager(db, GetLogger(), nil)
	require.NoError(t, mm.RunMigrations(ctx))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "001", applied[0].Version)
	assert.Equal(t, "create_indexes", applied[1].Name)
}

func TestForeignKeyBlocksParentDelete(t *testing.T) {
	db := openMemory(t).GetDB()
	ctx := context.Background()

	shelf := &testShelf{Name: "fiction"}
	_, err := db.NewInsert().Model(shelf).Exec(ctx)
	require.NoError(t, err)
	require.NotZero(t, shelf.ID)

	_, err = db.NewInsert().Model(&testBook{ShelfID: shelf.ID, Title: "Dune"}).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewDelete().Model((*testShelf)(nil)).Where("id = ?", shelf.ID).Exec(ctx)
	err = WrapError("delete shelf", err)
	require.Error(t, err)
	assert.True(t, IsKind(err, ForeignKeyViolationErr), "got %v", err)

	_, err = db.NewInsert().Model(&testBook{ShelfID: 999, Title: "orphan"}).Exec(ctx)
	assert.True(t, IsKind(WrapError("insert book", err), ForeignKeyViolationErr))
}

func TestUniqueViolationIsDuplicateKey(t *testing.T) {
	db := openMemory(t).GetDB()
	ctx := context.Background()

	_, err := db.NewInsert().Model(&testShelf{Name: "same"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&testShelf{Name: "same"}).Exec(ctx)
	assert.True(t, IsKind(WrapError("insert shelf", err), DuplicateKeyErr))
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t).GetDB()
	b := openMemory(t).GetDB()

	_, err := a.NewInsert().Model(&testShelf{Name: "only-in-a"}).Exec(ctx)
	require.NoError(t, err)

	n, err := b.NewSelect().Model((*testShelf)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHealthCheckAndStats(t *testing.T) {
	factory := openMemory(t)
	status := factory.GetHealthStatus(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, factory.GetStats().MaxOpenConns)

	require.NoError(t, factory.Close())
	status = factory.GetHealthStatus(context.Background())
	assert.False(t, status.Healthy)
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "oracle"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	assert.Error(t, err)
}

func TestEnvOverridesConfig(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_NAME", ":memory:")
	t.Setenv("DB_PORT", "6543")
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "mysql"

	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	assert.Equal(t, 6543, cfg.ConnectionConfig.Port)
}

func TestMetricsHookCountsQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := MemoryConfig()
	cfg.ConnectionConfig.EnableMetrics = true

	factory := NewDatabaseFactory()
	factory.SetRegisterer(reg)
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, factory.InitializeDatabase(context.Background(), true))
	defer factory.Close()

	_, err = factory.GetDB().NewSelect().Model((*testShelf)(nil)).Count(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var selects float64
	for _, mf := range families {
		if mf.GetName() != "catalog_db_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["operation"] == "SELECT" && labels["status"] == "ok" {
				selects += m.GetCounter().GetValue()
			}
		}
	}
	assert.GreaterOrEqual(t, selects, float64(1))

	// a second hook on the same registry reuses the collectors
	_, err = NewMetricsHook(reg)
	assert.NoError(t, err)
}

func TestWatcherReconnectsAfterConnectionLoss(t *testing.T) {
	ctx := context.Background()
	cfg := MemoryConfig().ConnectionConfig
	cfg.HealthCheckInterval = 10 * time.Millisecond
	cfg.EnableReconnect = true
	cfg.ReconnectInterval = time.Millisecond
	cfg.MaxReconnectTries = 3

	dm := NewDatabaseManager(&cfg, &DataMigrateConfig{}).(*defaultDatabaseManager)
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	require.NoError(t, dm.closeConnection())
	assert.False(t, dm.HealthCheck(ctx).Healthy)
	require.Eventually(t, func() bool { return dm.Ping(ctx) == nil }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, dm.HealthCheck(ctx).Healthy)
}

func TestWatcherLeavesClosedPoolWithoutReconnect(t *testing.T) {
	ctx := context.Background()
	cfg := MemoryConfig().ConnectionConfig
	cfg.HealthCheckInterval = 5 * time.Millisecond
	cfg.EnableReconnect = false

	dm := NewDatabaseManager(&cfg, &DataMigrateConfig{}).(*defaultDatabaseManager)
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	require.NoError(t, dm.closeConnection())
	time.Sleep(50 * time.Millisecond)
	assert.Error(t, dm.Ping(ctx))
}

func TestQueryLogFollowsLogOutput(t *testing.T) {
	previous := utils.LogOutput()
	t.Cleanup(func() { utils.ConfigureLogOutput(previous) })
	var buf bytes.Buffer
	utils.ConfigureLogOutput(&buf)
	t.Setenv("BUNDEBUG", "2")

	cfg := MemoryConfig()
	cfg.ConnectionConfig.EnableQueryLog = true
	factory, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	_, err = factory.GetDB().NewSelect().Model((*testShelf)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SELECT")
	assert.Contains(t, buf.String(), "test_shelves")
}

func TestSlowQueryHookThreshold(t *testing.T) {
	rec := &recordingLogger{}
	hook := NewSlowQueryHook(time.Millisecond, rec)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second)})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now()})
	assert.Equal(t, []string{"Database slow query detected"}, rec.warnings)
}

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) SetLevel(LogLevel)                 {}
func (r *recordingLogger) Debug(string, ...interface{})      {}
func (r *recordingLogger) Info(string, ...interface{})       {}
func (r *recordingLogger) Error(string, ...interface{})      {}
func (r *recordingLogger) Warn(msg string, _ ...interface{}) { r.warnings = append(r.warnings, msg) }
