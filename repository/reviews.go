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

type ReviewRepository struct {
	*BaseRepository[model.Review]
}

var _ Updater[model.Review] = (*ReviewRepository)(nil)

func NewReviewRepository(db *bun.DB, uow *UnitOfWork) *ReviewRepository {
	return &ReviewRepository{NewRepository(db, uow, ReviewDescriptor)}
}

func (r *ReviewRepository) Like(ctx context.Context, id int64) error {
	return r.increment(ctx, "likes", id)
}

func (r *ReviewRepository) Dislike(ctx context.Context, id int64) error {
	return r.increment(ctx, "dislikes", id)
}

func (r *ReviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.Replace(ctx, review)
}
