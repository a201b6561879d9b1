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
	"database/sql"
	"fmt"

	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

// BaseRepository is the generic Repository implementation. Writes staged
// with Create and Delete go to the unit of work shared by its session.
type BaseRepository[T any] struct {
	db   *bun.DB
	uow  *UnitOfWork
	desc *Descriptor[T]
}

var _ Repository[struct{}] = (*BaseRepository[struct{}])(nil)

// NewRepository returns a generic repository backed by the provided Bun DB.
// A nil unit of work gets a private one.
func NewRepository[T any](db *bun.DB, uow *UnitOfWork, desc *Descriptor[T]) *BaseRepository[T] {
	if uow == nil {
		uow = NewUnitOfWork(db)
	}
	return &BaseRepository[T]{db: db, uow: uow, desc: desc}
}

func (r *BaseRepository[T]) Descriptor() *Descriptor[T] { return r.desc }

func (r *BaseRepository[T]) NewSelect() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

// Eq builds an equality filter on a column of this entity's table.
func (r *BaseRepository[T]) Eq(column string, value any) *types.QueryFilter {
	return types.NewQueryFilter("? = ?", r.desc.column(column), value)
}

func (r *BaseRepository[T]) ByID(id int64) *types.QueryFilter {
	return r.Eq("id", id)
}

func (r *BaseRepository[T]) GetAll(ctx context.Context, req *types.PageRequest) ([]*T, error) {
	return r.find(ctx, NewQueryBuilder(r.desc).FromRequest(req))
}

func (r *BaseRepository[T]) Get(ctx context.Context, filter *types.QueryFilter, opts ...GetOption) (*T, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	b := NewQueryBuilder(r.desc).Include(o.includes...).Filter(filter).Paginate(1, 0)

	entity := new(T)
	q, err := b.Apply(r.db.NewSelect().Model(entity))
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.WrapError("get "+r.desc.Table, err)
	}
	return entity, nil
}

func (r *BaseRepository[T]) Search(ctx context.Context, req *types.SearchRequest) ([]*T, error) {
	if req == nil {
		return r.GetAll(ctx, nil)
	}
	return r.find(ctx, NewQueryBuilder(r.desc).FromRequest(req.PageRequest).Match(req.Text))
}

func (r *BaseRepository[T]) Count(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().Model((*T)(nil)).Count(ctx)
	if err != nil {
		return 0, database.WrapError("count "+r.desc.Table, err)
	}
	return n, nil
}

func (r *BaseRepository[T]) CountMatching(ctx context.Context, text string) (int, error) {
	q := NewQueryBuilder(r.desc).Match(text).ApplyCount(r.db.NewSelect().Model((*T)(nil)))
	n, err := q.Count(ctx)
	if err != nil {
		return 0, database.WrapError("count "+r.desc.Table, err)
	}
	return n, nil
}

// Page returns one page of search results with the number of rows that
// match the same filter and text.
func (r *BaseRepository[T]) Page(ctx context.Context, req *types.SearchRequest) (*types.Pagination[T], error) {
	if req == nil {
		req = &types.SearchRequest{PageRequest: types.NewUnpagedRequest()}
	}
	pagination := types.NewDefaultPagination[T](req.GetPage(), req.GetPageSize())

	b := NewQueryBuilder(r.desc).FromRequest(req.PageRequest).Match(req.Text)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	total, err := b.ApplyCount(r.db.NewSelect().Model((*T)(nil))).Count(ctx)
	if err != nil {
		return nil, database.WrapError("count "+r.desc.Table, err)
	}
	if total == 0 {
		return pagination, nil
	}
	items, err := r.find(ctx, b)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *BaseRepository[T]) Create(entity *T) {
	stageCreate(r.uow, r.desc, entity)
}

func (r *BaseRepository[T]) Delete(entity *T) {
	stageDelete(r.uow, r.desc, entity)
}

func (r *BaseRepository[T]) Save(ctx context.Context) error {
	return r.uow.Save(ctx)
}

// Replace overwrites every column of an existing row except those the
// descriptor excludes, in its own transaction.
func (r *BaseRepository[T]) Replace(ctx context.Context, entity *T) error {
	op := "update " + r.desc.Table
	if v, ok := any(entity).(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	id := r.desc.ID(entity)
	if id <= 0 {
		return types.NewValidationError("id", "must be positive, got %d", id)
	}
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ok, err := tx.NewSelect().Model((*T)(nil)).Where("? = ?", r.desc.column("id"), id).Exists(ctx)
		if err != nil {
			return database.WrapError(op, err)
		}
		if !ok {
			return fmt.Errorf("%s %d: %w", op, id, types.ErrNotFound)
		}
		if err := checkParents(ctx, tx, op, r.desc.Parents(entity)); err != nil {
			return err
		}
		if err := r.desc.checkUnique(ctx, tx, entity); err != nil {
			return err
		}
		_, err = tx.NewUpdate().Model(entity).ExcludeColumn(r.desc.UpdateExclude...).WherePK().Exec(ctx)
		return database.WrapError(op, err)
	})
	return database.WrapError(op, err)
}

// increment adds one to a counter column in a single statement.
func (r *BaseRepository[T]) increment(ctx context.Context, column string, id int64) error {
	op := "increment " + r.desc.Table + "." + column
	res, err := r.db.NewUpdate().Model((*T)(nil)).
		Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
		Where("? = ?", bun.Ident("id"), id).
		Exec(ctx)
	if err != nil {
		return database.WrapError(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, types.ErrNotFound)
	}
	return nil
}

// setColumn writes a single column of row id, bypassing the descriptor's
// update exclusions.
func (r *BaseRepository[T]) setColumn(ctx context.Context, column string, value any, id int64) error {
	op := "update " + r.desc.Table + "." + column
	res, err := r.db.NewUpdate().Model((*T)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Where("? = ?", bun.Ident("id"), id).
		Exec(ctx)
	if err != nil {
		return database.WrapError(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, types.ErrNotFound)
	}
	return nil
}

// exists reports whether any row matches filter.
func (r *BaseRepository[T]) exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	q := NewQueryBuilder(r.desc).Filter(filter).ApplyCount(r.db.NewSelect().Model((*T)(nil)))
	ok, err := q.Exists(ctx)
	if err != nil {
		return false, database.WrapError("exists "+r.desc.Table, err)
	}
	return ok, nil
}

func (r *BaseRepository[T]) find(ctx context.Context, b *QueryBuilder[T]) ([]*T, error) {
	var entities []*T
	q, err := b.Apply(r.db.NewSelect().Model(&entities))
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.WrapError("select "+r.desc.Table, err)
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}
