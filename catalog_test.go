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
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/catalog/auth"
	"github.com/tomoncle/catalog/config"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/model"
	"github.com/tomoncle/catalog/repository"
	"github.com/tomoncle/catalog/types"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database = *database.MemoryConfig()
	cfg.Database.ConnectionConfig.EnableMetrics = true
	cfg.Auth.Secret = "catalog-test-secret-catalog-test-secret"
	cfg.Auth.BcryptCost = 4
	return cfg
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.Secret = "short"
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)
}

func TestCatalogEndToEnd(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := Open(ctx, memoryConfig(), WithRegisterer(reg))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	user, err := c.Credentials().Register(ctx, auth.RegistrationRequest{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	s := c.Session()
	item := &model.Item{Title: "Heat", UserID: &user.ID}
	s.Items.Create(item)
	require.NoError(t, s.Save(ctx))
	s.Reviews.Create(&model.Review{UserID: user.ID, ItemID: item.ID, Text: "great", Rating: 8.5})
	require.NoError(t, s.Save(ctx))

	got, err := c.Session().Items.Get(ctx, s.Items.ByID(item.ID), repository.WithIncludes(model.RelReviews))
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, 8.5, got.Reviews[0].Rating)

	resp, err := c.Credentials().Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.False(t, resp.Failed())

	require.NoError(t, c.Migrate(ctx))
	assert.True(t, c.Health(ctx).Healthy)
	assert.Equal(t, 1, c.Stats().MaxOpenConns)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "catalog_db_queries_total")

	_, err = c.Session().Users.Get(ctx, types.NewQueryFilter("1 = 0"))
	assert.True(t, types.IsNotFound(err))
}

func TestExportForeignKeys(t *testing.T) {
	c, err := Open(context.Background(), memoryConfig(), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	path := filepath.Join(t.TempDir(), "fks.yaml")
	n, err := c.ExportForeignKeys(path)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reference_table: items")
	assert.Contains(t, string(data), "on_delete: RESTRICT")
}
