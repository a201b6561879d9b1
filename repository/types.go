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

	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

// CrudRepository defines reads plus staged writes for an entity type.
// Create and Delete only stage; Save commits everything staged on the
// session in one transaction.
type CrudRepository[T any] interface {
	GetAll(ctx context.Context, req *types.PageRequest) ([]*T, error)

	Get(ctx context.Context, filter *types.QueryFilter, opts ...GetOption) (*T, error)

	Create(entity *T)

	Delete(entity *T)

	Save(ctx context.Context) error
}

// SearchRepository defines free-text search over the entity's searchable
// column.
type SearchRepository[T any] interface {
	Search(ctx context.Context, req *types.SearchRequest) ([]*T, error)

	// Count returns the number of rows in the table, ignoring any filter.
	Count(ctx context.Context) (int, error)

	// CountMatching counts rows whose searchable column contains text.
	CountMatching(ctx context.Context, text string) (int, error)

	Page(ctx context.Context, req *types.SearchRequest) (*types.Pagination[T], error)
}

// Updater replaces an existing record immediately, outside the session's
// staged operations.
type Updater[T any] interface {
	Update(ctx context.Context, entity *T) error
}

// Repository combines CRUD and search and exposes filter helpers and the
// Bun query builder for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	SearchRepository[T]
	Replace(ctx context.Context, entity *T) error
	Eq(column string, value any) *types.QueryFilter
	ByID(id int64) *types.QueryFilter
	Descriptor() *Descriptor[T]
	NewSelect() *bun.SelectQuery
}

type getOptions struct {
	includes []types.Relation
}

// GetOption tunes a single-record read.
type GetOption func(*getOptions)

// NoTracking is accepted for callers that mark read-only lookups. It has no
// effect: Bun keeps no change tracker, so every read is detached.
func NoTracking() GetOption {
	return func(*getOptions) {}
}

// WithIncludes hydrates the given relations on the returned record.
func WithIncludes(relations ...types.Relation) GetOption {
	return func(o *getOptions) { o.includes = append(o.includes, relations...) }
}
