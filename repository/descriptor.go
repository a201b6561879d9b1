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

package repository

import (
	"context"

	"github.com/tomoncle/catalog/model"
	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

// ParentRef is a referenced row that must exist before an insert or update.
type ParentRef struct {
	Table string
	ID    int64
}

// Descriptor is the per-entity configuration the generic repository works
// from.
type Descriptor[T any] struct {
	Table           string
	Alias           string
	SearchColumn    string
	SortColumns     map[types.SortKey]string
	Relations       types.RelationSet
	DefaultIncludes []types.Relation
	// UpdateExclude lists columns Replace never overwrites.
	UpdateExclude []string
	ID            func(*T) int64
	Parents       func(*T) []ParentRef
	// Unique rejects a write that collides with another row. Optional.
	Unique func(ctx context.Context, db bun.IDB, entity *T) error
}

// column returns the alias-qualified identifier for col.
func (d *Descriptor[T]) column(col string) bun.Ident {
	return bun.Ident(d.Alias + "." + col)
}

func (d *Descriptor[T]) checkUnique(ctx context.Context, db bun.IDB, entity *T) error {
	if d.Unique == nil {
		return nil
	}
	return d.Unique(ctx, db, entity)
}

// sortColumn resolves a sort key; the identity column is always allowed.
func (d *Descriptor[T]) sortColumn(key types.SortKey) (string, error) {
	if key == types.SortByID {
		return "id", nil
	}
	if col, ok := d.SortColumns[key]; ok {
		return col, nil
	}
	return "", types.NewValidationError("orderBy", "unsupported sort key %q for %s", key.String(), d.Table)
}

var ItemDescriptor = &Descriptor[model.Item]{
	Table:        model.ItemsTable,
	Alias:        "i",
	SearchColumn: "title",
	SortColumns: map[types.SortKey]string{
		types.SortByTitle: "title",
		types.SortByDate:  "created_at",
	},
	Relations:       model.ItemRelations,
	DefaultIncludes: []types.Relation{model.RelReviews, model.RelComments, model.RelReviewsUser, model.RelCommentsUser},
	UpdateExclude:   []string{"id", "created_at", "views"},
	ID:              func(i *model.Item) int64 { return i.ID },
	Parents: func(i *model.Item) []ParentRef {
		if i.UserID == nil {
			return nil
		}
		return []ParentRef{{Table: model.UsersTable, ID: *i.UserID}}
	},
	Unique: func(ctx context.Context, db bun.IDB, i *model.Item) error {
		taken, err := itemTitleTaken(ctx, db, i.Title, i.ID)
		if err != nil {
			return err
		}
		if taken {
			return types.NewValidationError("title", "%q is already used by another item", i.Title)
		}
		return nil
	},
}

var UserDescriptor = &Descriptor[model.User]{
	Table:        model.UsersTable,
	Alias:        "u",
	SearchColumn: "username",
	SortColumns: map[types.SortKey]string{
		types.SortByName: "username",
		types.SortByDate: "created_at",
	},
	Relations:       model.UserRelations,
	DefaultIncludes: []types.Relation{model.RelItems, model.RelReviews, model.RelComments},
	UpdateExclude:   []string{"id", "created_at", "password"},
	ID:              func(u *model.User) int64 { return u.ID },
	Parents:         func(*model.User) []ParentRef { return nil },
}

var ReviewDescriptor = &Descriptor[model.Review]{
	Table:        model.ReviewsTable,
	Alias:        "r",
	SearchColumn: "text",
	SortColumns: map[types.SortKey]string{
		types.SortByText: "text",
		types.SortByDate: "created_at",
	},
	Relations:       model.ReviewRelations,
	DefaultIncludes: []types.Relation{model.RelUser, model.RelItem},
	UpdateExclude:   []string{"id", "created_at", "likes", "dislikes"},
	ID:              func(r *model.Review) int64 { return r.ID },
	Parents: func(r *model.Review) []ParentRef {
		return []ParentRef{{Table: model.UsersTable, ID: r.UserID}, {Table: model.ItemsTable, ID: r.ItemID}}
	},
}

var CommentDescriptor = &Descriptor[model.Comment]{
	Table:        model.CommentsTable,
	Alias:        "c",
	SearchColumn: "text",
	SortColumns: map[types.SortKey]string{
		types.SortByText: "text",
		types.SortByDate: "created_at",
	},
	Relations:       model.CommentRelations,
	DefaultIncludes: []types.Relation{model.RelUser, model.RelItem},
	UpdateExclude:   []string{"id", "created_at", "likes", "dislikes"},
	ID:              func(c *model.Comment) int64 { return c.ID },
	Parents: func(c *model.Comment) []ParentRef {
		return []ParentRef{{Table: model.UsersTable, ID: c.UserID}, {Table: model.ItemsTable, ID: c.ItemID}}
	},
}
