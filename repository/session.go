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

	"github.com/uptrace/bun"
)

// Session groups the entity repositories over one unit of work. Create one
// per request; Save commits what any of them staged.
type Session struct {
	Items    *ItemRepository
	Users    *UserRepository
	Reviews  *ReviewRepository
	Comments *CommentRepository

	uow *UnitOfWork
}

func NewSession(db *bun.DB) *Session {
	uow := NewUnitOfWork(db)
	return &Session{
		Items:    NewItemRepository(db, uow),
		Users:    NewUserRepository(db, uow),
		Reviews:  NewReviewRepository(db, uow),
		Comments: NewCommentRepository(db, uow),
		uow:      uow,
	}
}

func (s *Session) Save(ctx context.Context) error {
	return s.uow.Save(ctx)
}

func (s *Session) Pending() int {
	return s.uow.Pending()
}

func (s *Session) Discard() {
	s.uow.Discard()
}
