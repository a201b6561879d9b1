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

	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/model"
	"github.com/uptrace/bun"
)

type ItemRepository struct {
	*BaseRepository[model.Item]
}

var _ Updater[model.Item] = (*ItemRepository)(nil)

func NewItemRepository(db *bun.DB, uow *UnitOfWork) *ItemRepository {
	return &ItemRepository{NewRepository(db, uow, ItemDescriptor)}
}

// IsUniqueTitle reports whether no other item carries title, compared
// case-insensitively. The item with id exclude is ignored; pass 0 to check
// against every item.
func (r *ItemRepository) IsUniqueTitle(ctx context.Context, title string, exclude int64) (bool, error) {
	taken, err := itemTitleTaken(ctx, r.db, title, exclude)
	return !taken, err
}

// itemTitleTaken runs on db so creates and updates can check inside their
// own transaction.
func itemTitleTaken(ctx context.Context, db bun.IDB, title string, exclude int64) (bool, error) {
	q := db.NewSelect().Model((*model.Item)(nil)).
		Where("LOWER(?) = LOWER(?)", bun.Ident("i.title"), title)
	if exclude > 0 {
		q = q.Where("? <> ?", bun.Ident("i.id"), exclude)
	}
	taken, err := q.Exists(ctx)
	if err != nil {
		return false, database.WrapError("exists "+model.ItemsTable, err)
	}
	return taken, nil
}

// IncrementViews bumps the view counter of item id.
func (r *ItemRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.increment(ctx, "views", id)
}

// Update replaces an item. The view counter and creation time are kept.
func (r *ItemRepository) Update(ctx context.Context, item *model.Item) error {
	return r.Replace(ctx, item)
}
