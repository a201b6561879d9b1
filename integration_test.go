//go:build integration

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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tomoncle/catalog/auth"
	"github.com/tomoncle/catalog/config"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/model"
	"github.com/tomoncle/catalog/types"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresDrivers(t *testing.T) {
	dsn := startPostgres(t)

	for _, driver := range []string{"postgres", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.Default()
			cfg.Database = *database.DefaultConfig()
			cfg.Database.ConnectionConfig.Type = driver
			cfg.Database.ConnectionConfig.DSN = dsn
			cfg.Auth.Secret = "integration-secret-integration-secret"
			cfg.Auth.BcryptCost = 4

			c, err := Open(ctx, cfg, WithRegisterer(prometheus.NewRegistry()))
			require.NoError(t, err)
			defer func() { _ = c.Close() }()

			name := "alice-" + driver
			user, err := c.Credentials().Register(ctx, auth.RegistrationRequest{Username: name, Email: name + "@x.com", Password: "pw1"})
			require.NoError(t, err)

			s := c.Session()
			item := &model.Item{Title: "Heat " + driver, UserID: &user.ID}
			s.Items.Create(item)
			require.NoError(t, s.Save(ctx))

			s.Items.Create(&model.Item{Title: "Ronin " + driver})
			s.Users.Create(&model.User{Username: name, Email: "other-" + name + "@x.com", Password: "x"})
			err = s.Save(ctx)
			assert.True(t, database.IsKind(err, database.DuplicateKeyErr))

			found, err := s.Items.Search(ctx, types.NewSearchRequest("heat "+driver, 1, 10))
			require.NoError(t, err)
			assert.Empty(t, found, "LIKE follows the column collation")

			found, err = s.Items.Search(ctx, types.NewSearchRequest("Heat "+driver, 1, 10))
			require.NoError(t, err)
			assert.Len(t, found, 1)

			s.Users.Delete(user)
			assert.True(t, database.IsKind(s.Save(ctx), database.ForeignKeyViolationErr))

			short, cancel := context.WithTimeout(ctx, time.Nanosecond)
			defer cancel()
			time.Sleep(time.Millisecond)
			_, err = s.Items.Count(short)
			assert.True(t, database.IsKind(err, database.TimeoutErr))

			resp, err := c.Credentials().Login(ctx, auth.LoginRequest{Email: name + "@x.com", Password: "pw1"})
			require.NoError(t, err)
			assert.False(t, resp.Failed())
		})
	}
}
