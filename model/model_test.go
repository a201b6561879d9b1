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

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

func TestValidate(t *testing.T) {
	bad := -1.0
	assert.True(t, types.IsValidationError((&Item{}).Validate()))
	assert.True(t, types.IsValidationError((&Item{Title: "x", Rating: &bad}).Validate()))
	assert.NoError(t, (&Item{Title: "x"}).Validate())

	assert.True(t, types.IsValidationError((&User{Username: "alice"}).Validate()))
	assert.True(t, types.IsValidationError((&Review{UserID: 1}).Validate()))
	assert.True(t, types.IsValidationError((&Review{UserID: 1, ItemID: 1, Rating: 1e17}).Validate()))
	assert.True(t, types.IsValidationError((&Comment{ItemID: 1}).Validate()))
	assert.NoError(t, (&Comment{UserID: 1, ItemID: 1}).Validate())
}

func TestUserInsertDefaults(t *testing.T) {
	u := &User{Username: "alice", Email: "a@x.com"}
	assert.NoError(t, u.BeforeAppendModel(context.Background(), &bun.InsertQuery{}))
	assert.Equal(t, DefaultSubscription, u.Subscription)
	assert.Equal(t, DefaultRights, u.Rights)
	assert.False(t, u.CreatedAt.IsZero())

	other := &User{}
	assert.NoError(t, other.BeforeAppendModel(context.Background(), &bun.UpdateQuery{}))
	assert.Empty(t, other.Rights)
}

func TestRegisteredSchema(t *testing.T) {
	for _, table := range []string{UsersTable, ItemsTable, ReviewsTable, CommentsTable} {
		found := false
		for _, inst := range database.RegisteredModelInstances() {
			name, err := database.ResolveTableName(inst)
			if err == nil && name == table {
				found = true
			}
		}
		assert.True(t, found, table)
	}

	deps := database.DependentsOf(UsersTable)
	assert.Len(t, deps, 3)
	for _, fk := range deps {
		assert.Equal(t, "RESTRICT", fk.OnDelete)
	}
	assert.Len(t, database.DependentsOf(ItemsTable), 2)
	assert.Empty(t, database.DependentsOf(CommentsTable))

	assert.True(t, ItemRelations.Contains(RelReviewsUser))
	assert.False(t, ReviewRelations.Contains(RelReviews))
}
