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
	"time"

	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	ItemID    int64     `bun:"item_id,notnull" json:"item_id"`
	Text      string    `bun:"text,type:text" json:"text"`
	Likes     int64     `bun:"likes,notnull,default:0" json:"likes"`
	Dislikes  int64     `bun:"dislikes,notnull,default:0" json:"dislikes"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Item *Item `bun:"rel:belongs-to,join:item_id=id" json:"item,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Comment)(nil)

func (c *Comment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

func (c *Comment) Validate() error {
	if c.UserID <= 0 {
		return types.NewValidationError("user_id", "is required")
	}
	if c.ItemID <= 0 {
		return types.NewValidationError("item_id", "is required")
	}
	return nil
}
