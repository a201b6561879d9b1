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
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/types"
)

// Relation paths, named after the Go relation fields so they can be handed
// to bun's Relation directly.
const (
	RelUser         types.Relation = "User"
	RelItem         types.Relation = "Item"
	RelItems        types.Relation = "Items"
	RelReviews      types.Relation = "Reviews"
	RelComments     types.Relation = "Comments"
	RelReviewsUser  types.Relation = "Reviews.User"
	RelCommentsUser types.Relation = "Comments.User"
	RelReviewsItem  types.Relation = "Reviews.Item"
	RelCommentsItem types.Relation = "Comments.Item"
)

var (
	ItemRelations    = types.RelationSet{RelUser, RelReviews, RelComments, RelReviewsUser, RelCommentsUser}
	UserRelations    = types.RelationSet{RelItems, RelReviews, RelComments, RelReviewsItem, RelCommentsItem}
	ReviewRelations  = types.RelationSet{RelUser, RelItem}
	CommentRelations = types.RelationSet{RelUser, RelItem}
)

// Table names.
const (
	UsersTable    = "users"
	ItemsTable    = "items"
	ReviewsTable  = "reviews"
	CommentsTable = "comments"
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*User)(nil), 10))
	database.RegisteredModel(database.NewModelAdapter((*Item)(nil), 20).
		WithIndex("idx_items_title", false, "title").
		WithIndex("idx_items_user_id", false, "user_id"))
	database.RegisteredModel(database.NewModelAdapter((*Review)(nil), 30).
		WithIndex("idx_reviews_item_id", false, "item_id").
		WithIndex("idx_reviews_user_id", false, "user_id"))
	database.RegisteredModel(database.NewModelAdapter((*Comment)(nil), 40).
		WithIndex("idx_comments_item_id", false, "item_id").
		WithIndex("idx_comments_user_id", false, "user_id"))

	for _, fk := range []database.ForeignKeyConstraint{
		{Table: ItemsTable, Column: "user_id", ReferenceTable: UsersTable, ReferenceColumn: "id"},
		{Table: ReviewsTable, Column: "user_id", ReferenceTable: UsersTable, ReferenceColumn: "id"},
		{Table: ReviewsTable, Column: "item_id", ReferenceTable: ItemsTable, ReferenceColumn: "id"},
		{Table: CommentsTable, Column: "user_id", ReferenceTable: UsersTable, ReferenceColumn: "id"},
		{Table: CommentsTable, Column: "item_id", ReferenceTable: ItemsTable, ReferenceColumn: "id"},
	} {
		fk.OnDelete = "RESTRICT"
		database.RegisterForeignKey(fk)
	}
}
