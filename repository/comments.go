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
	"github.com/uptrace/bun"
)

type CommentRepository struct {
	*BaseRepository[model.Comment]
}

var _ Updater[model.Comment] = (*CommentRepository)(nil)

func NewCommentRepository(db *bun.DB, uow *UnitOfWork) *CommentRepository {
	return &CommentRepository{NewRepository(db, uow, CommentDescriptor)}
}

func (r *CommentRepository) Like(ctx context.Context, id int64) error {
	return r.increment(ctx, "likes", id)
}

func (r *CommentRepository) Dislike(ctx context.Context, id int64) error {
	return r.increment(ctx, "dislikes", id)
}

func (r *CommentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return r.Replace(ctx, comment)
}
