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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/catalog/types"
)

func TestWrapErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want SQLError
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, DuplicateKeyErr},
		{"mysql row referenced", &mysql.MySQLError{Number: 1451}, ForeignKeyViolationErr},
		{"pq foreign key", &pq.Error{Code: "23503"}, ForeignKeyViolationErr},
		{"pq not null", &pq.Error{Code: "23502"}, NotNullViolationErr},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, DuplicateKeyErr},
		{"pgx canceled statement", &pgconn.PgError{Code: "57014"}, TimeoutErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), DuplicateKeyErr},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed (787)"), ForeignKeyViolationErr},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), TimeoutErr},
		{"bad conn", fmt.Errorf("exec: %w", sql.ErrConnDone), ConnectionErr},
		{"unknown", errors.New("disk on fire"), UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError("op", tt.err)
			pe, ok := AsPersistenceError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, pe.Kind)
			assert.Equal(t, "op", pe.Op)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestWrapErrorPassThrough(t *testing.T) {
	assert.NoError(t, WrapError("op", nil))

	err := WrapError("get item", sql.ErrNoRows)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, isPersistence := AsPersistenceError(err)
	assert.False(t, isPersistence)

	verr := types.NewValidationError("title", "already taken")
	assert.Same(t, verr, WrapError("op", verr))

	pe := NewPersistenceError("save", DuplicateKeyErr, errors.New("dup"))
	assert.Same(t, pe, WrapError("outer", pe))
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "foreign_key_violation", ForeignKeyViolationErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}

func TestForeignKeyValidation(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		{Table: "reviews", Column: "item_id", ReferenceTable: "items", ReferenceColumn: "id"},
		{Table: "comments", Column: "item_id", ReferenceTable: "items", ReferenceColumn: "id", OnDelete: "no action"},
	}}
	assert.Empty(t, fkm.ValidateConstraints())

	fkm.constraints = append(fkm.constraints,
		ForeignKeyConstraint{Table: "reviews", Column: "user_id", ReferenceTable: "users", ReferenceColumn: "id", OnDelete: "CASCADE"},
		ForeignKeyConstraint{Table: "x"},
	)
	assert.Len(t, fkm.ValidateConstraints(), 4)
}

func TestForeignKeyInlineSQL(t *testing.T) {
	fk := ForeignKeyConstraint{Table: "reviews", Column: "item_id", ReferenceTable: "items", ReferenceColumn: "id"}
	query, args := fk.InlineSQL()
	assert.Equal(t, "(?) REFERENCES ? (?) ON DELETE RESTRICT", query)
	assert.Len(t, args, 3)
	assert.Equal(t, "fk_reviews_item_id", fk.GenerateConstraintName())
}

func TestConfigurableForeignKeyManagerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fk", "foreign_keys.yaml")

	src := &ConfigurableForeignKeyManager{ForeignKeyManager: &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		{Table: "items", Column: "user_id", ReferenceTable: "users", ReferenceColumn: "id"},
	}}}
	require.NoError(t, src.ExportToConfig(path))

	loaded := NewConfigurableForeignKeyManager(nil, path)
	require.Len(t, loaded.ListAllConstraints(), 1)
	got := loaded.ListAllConstraints()[0]
	assert.Equal(t, "users", got.ReferenceTable)
	assert.Equal(t, "RESTRICT", got.OnDelete)
	assert.Equal(t, path, loaded.GetConfigPath())

	require.NoError(t, os.WriteFile(path, []byte("foreign_keys: []\n"), 0644))
	require.NoError(t, loaded.ReloadConfig())
	assert.Empty(t, loaded.ListAllConstraints())
}

func TestExportForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fks.yaml")

	n, err := ExportForeignKeys(nil, &DataMigrateConfig{EnableForeignKey: true}, path)
	require.NoError(t, err)
	require.NotZero(t, n)
	assert.Equal(t, len(RegisteredForeignKeys()), n)

	loaded := NewConfigurableForeignKeyManager(nil, path)
	assert.Len(t, loaded.ListAllConstraints(), n)

	again := filepath.Join(t.TempDir(), "again.yaml")
	m, err := ExportForeignKeys(nil, &DataMigrateConfig{EnableForeignKey: true, ForeignKeyFile: path}, again)
	require.NoError(t, err)
	assert.Equal(t, n, m)

	cascade := filepath.Join(t.TempDir(), "cascade.yaml")
	yml := "foreign_keys:\n  - table: reviews\n    column: item_id\n    reference_table: items\n    reference_column: id\n    on_delete: CASCADE\n"
	require.NoError(t, os.WriteFile(cascade, []byte(yml), 0644))
	_, err = ExportForeignKeys(nil, &DataMigrateConfig{ForeignKeyFile: cascade}, filepath.Join(t.TempDir(), "x.yaml"))
	assert.Error(t, err)
}

func TestLoadForeignKeyManagerRejectsCascade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.yaml")
	yml := "foreign_keys:\n  - table: reviews\n    column: item_id\n    reference_table: items\n    reference_column: id\n    on_delete: CASCADE\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	_, err := loadForeignKeyManager(nil, &DataMigrateConfig{EnableForeignKey: true, ForeignKeyFile: path})
	assert.Error(t, err)
}

func TestResolveTableName(t *testing.T) {
	name, err := ResolveTableName((*testBook)(nil))
	require.NoError(t, err)
	assert.Equal(t, "test_books", name)

	_, err = ResolveTableName(&struct{ A int }{})
	assert.Error(t, err)
}
