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

// Item is a catalog entry (a film, a series, ...).
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          int64            `bun:"id,pk,autoincrement" json:"id"`
	Title       string           `bun:"title,notnull" json:"title"`
	Description string           `bun:"description,type:text" json:"description,omitempty"`
	ReleaseYear *int             `bun:"release_year" json:"release_year,omitempty"`
	Category    string           `bun:"category" json:"category,omitempty"`
	Director    string           `bun:"director" json:"director,omitempty"`
	Cast        types.StringList `bun:"cast_members,type:text" json:"cast,omitempty"`
	Genres      types.StringList `bun:"genres,type:text" json:"genres,omitempty"`
	RunningTime *int             `bun:"running_time" json:"running_time,omitempty"`
	Quality     string           `bun:"quality" json:"quality,omitempty"`
	Country     string           `bun:"country" json:"country,omitempty"`
	Cover       string           `bun:"cover" json:"cover,omitempty"`
	Photos      types.StringList `bun:"photos,type:text" json:"photos,omitempty"`
	Video       string           `bun:"video" json:"video,omitempty"`
	Link        string           `bun:"link" json:"link,omitempty"`
	Rating      *float64         `bun:"rating,type:decimal(18,2)" json:"rating,omitempty"`
	Status      string           `bun:"status" json:"status,omitempty"`
	Views       int64            `bun:"views,notnull,default:0" json:"views"`
	UserID      *int64           `bun:"user_id" json:"user_id,omitempty"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	User     *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Reviews  []*Review  `bun:"rel:has-many,join:id=item_id" json:"reviews,omitempty"`
	Comments []*Comment `bun:"rel:has-many,join:id=item_id" json:"comments,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Item)(nil)

func (i *Item) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	return nil
}

// Validate checks the fields the store cannot.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return types.NewValidationError("title", "is required")
	}
	if i.Rating != nil && (*i.Rating < 0 || *i.Rating >= 1e16) {
		return types.NewValidationError("rating", "out of range")
	}
	return nil
}
