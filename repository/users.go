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

type UserRepository struct {
	*BaseRepository[model.User]
}

var _ Updater[model.User] = (*UserRepository)(nil)

func NewUserRepository(db *bun.DB, uow *UnitOfWork) *UserRepository {
	return &UserRepository{NewRepository(db, uow, UserDescriptor)}
}

// IsUniqueUsername reports whether no user has exactly this username.
func (r *UserRepository) IsUniqueUsername(ctx context.Context, username string) (bool, error) {
	taken, err := r.exists(ctx, r.Eq("username", username))
	return !taken, err
}

func (r *UserRepository) IsUniqueEmail(ctx context.Context, email string) (bool, error) {
	taken, err := r.exists(ctx, r.Eq("email", email))
	return !taken, err
}

// GetByEmail returns the user with this email or types.ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.Get(ctx, r.Eq("email", email), NoTracking())
}

// Update replaces a user's profile. The password is never touched here;
// it changes only through the credential service.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	if user.Subscription == "" {
		user.Subscription = model.DefaultSubscription
	}
	if user.Rights == "" {
		user.Rights = model.DefaultRights
	}
	return r.Replace(ctx, user)
}

// SetPassword stores an already hashed password for user id.
func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.setColumn(ctx, "password", hash, id)
}
