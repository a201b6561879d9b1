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
	"strings"

	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

// likeEscaper escapes LIKE wildcards with '!', which every supported
// dialect accepts as an ESCAPE character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

// QueryBuilder composes a select in a fixed order: include paths, filter,
// text match, ordering, paging.
type QueryBuilder[T any] struct {
	desc       *Descriptor[T]
	includes   []types.Relation
	filter     *types.QueryFilter
	text       string
	orderBy    types.SortKey
	descending bool
	limit      int
	offset     int
}

// NewQueryBuilder returns a builder ordering by identity ascending.
func NewQueryBuilder[T any](desc *Descriptor[T]) *QueryBuilder[T] {
	return &QueryBuilder[T]{desc: desc, orderBy: types.SortByID}
}

// FromRequest copies filter, includes, ordering and paging from req.
// A nil request leaves the builder unchanged.
func (b *QueryBuilder[T]) FromRequest(req *types.PageRequest) *QueryBuilder[T] {
	if req == nil {
		return b
	}
	b.Include(req.GetIncludes()...)
	b.Filter(req.GetFilter())
	key, desc := req.GetOrderBy()
	b.OrderBy(key, desc)
	if req.IsPaged() {
		b.Paginate(req.GetPageSize(), req.GetOffset())
	}
	return b
}

func (b *QueryBuilder[T]) Include(relations ...types.Relation) *QueryBuilder[T] {
	b.includes = append(b.includes, relations...)
	return b
}

// Filter adds a condition; repeated calls are combined with AND.
func (b *QueryBuilder[T]) Filter(filter *types.QueryFilter) *QueryBuilder[T] {
	b.filter = b.filter.And(filter)
	return b
}

// Match restricts rows to those whose searchable column contains text.
// Empty text matches everything.
func (b *QueryBuilder[T]) Match(text string) *QueryBuilder[T] {
	b.text = text
	return b
}

func (b *QueryBuilder[T]) OrderBy(key types.SortKey, descending bool) *QueryBuilder[T] {
	b.orderBy = key
	b.descending = descending
	return b
}

// Paginate sets limit and offset. A non-positive limit disables paging.
func (b *QueryBuilder[T]) Paginate(limit, offset int) *QueryBuilder[T] {
	b.limit = limit
	b.offset = offset
	return b
}

// Validate checks sort key and relations without touching the store.
func (b *QueryBuilder[T]) Validate() error {
	if err := b.desc.Relations.Validate(b.includes); err != nil {
		return err
	}
	_, err := b.desc.sortColumn(b.orderBy)
	return err
}

// Apply adds every configured clause to q.
func (b *QueryBuilder[T]) Apply(q *bun.SelectQuery) (*bun.SelectQuery, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for _, rel := range b.includes {
		q = q.Relation(string(rel))
	}
	q = b.applyWhere(q)

	col, _ := b.desc.sortColumn(b.orderBy)
	dir := "ASC"
	if b.descending {
		dir = "DESC"
	}
	q = q.OrderExpr("? "+dir, b.desc.column(col))
	if col != "id" {
		q = q.OrderExpr("? ASC", b.desc.column("id"))
	}

	if b.limit > 0 {
		q = q.Limit(b.limit).Offset(b.offset)
	}
	return q, nil
}

// ApplyCount adds only the row-restricting clauses, for use with Count.
func (b *QueryBuilder[T]) ApplyCount(q *bun.SelectQuery) *bun.SelectQuery {
	return b.applyWhere(q)
}

func (b *QueryBuilder[T]) applyWhere(q *bun.SelectQuery) *bun.SelectQuery {
	if b.filter != nil {
		q = q.Where(b.filter.Schema, b.filter.Args...)
	}
	if b.text != "" && b.desc.SearchColumn != "" {
		q = q.Where("? LIKE ? ESCAPE '!'", b.desc.column(b.desc.SearchColumn), "%"+escapeLike(b.text)+"%")
	}
	return q
}
