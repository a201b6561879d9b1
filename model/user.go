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
	"strings"
	"time"

	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

const (
	DefaultSubscription = "Basic"
	DefaultRights       = "Guest"
)

// User is an account. Password always holds a bcrypt hash and never leaves
// the process in JSON.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	FirstName    string    `bun:"first_name" json:"first_name,omitempty"`
	LastName     string    `bun:"last_name" json:"last_name,omitempty"`
	Status       string    `bun:"status" json:"status,omitempty"`
	Subscription string    `bun:"subscription,nullzero,notnull,default:'Basic'" json:"subscription"`
	Rights       string    `bun:"rights,nullzero,notnull,default:'Guest'" json:"rights"`
	Password     string    `bun:"password,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Items    []*Item    `bun:"rel:has-many,join:id=user_id" json:"items,omitempty"`
	Reviews  []*Review  `bun:"rel:has-many,join:id=user_id" json:"reviews,omitempty"`
	Comments []*Comment `bun:"rel:has-many,join:id=user_id" json:"comments,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now()
		}
		if u.Subscription == "" {
			u.Subscription = DefaultSubscription
		}
		if u.Rights == "" {
			u.Rights = DefaultRights
		}
	}
	return nil
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return types.NewValidationError("username", "is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return types.NewValidationError("email", "is required")
	}
	return nil
}
