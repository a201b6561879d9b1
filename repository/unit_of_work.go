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
	"sync"

	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/types"
	"github.com/uptrace/bun"
)

type validator interface {
	Validate() error
}

type stagedOp struct {
	name string
	run  func(ctx context.Context, tx bun.Tx) error
	// undo puts the staged entity back as it was before run touched it.
	undo func()
}

// UnitOfWork collects staged inserts and deletes and commits them together.
// It belongs to a single session and is not meant to be shared between
// requests.
type UnitOfWork struct {
	db  *bun.DB
	mu  sync.Mutex
	ops []stagedOp
}

func NewUnitOfWork(db *bun.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) stage(op stagedOp) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = append(u.ops, op)
}

// Pending returns the number of staged operations.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ops)
}

// Discard drops every staged operation.
func (u *UnitOfWork) Discard() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = nil
}

// Save runs every staged operation in one transaction. On any failure the
// transaction is rolled back. The staged list is consumed either way.
func (u *UnitOfWork) Save(ctx context.Context) error {
	u.mu.Lock()
	ops := u.ops
	u.ops = nil
	u.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}
	failed := ""
	err := u.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, op := range ops {
			if err := op.run(ctx, tx); err != nil {
				failed = op.name
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, op := range ops {
			if op.undo != nil {
				op.undo()
			}
		}
		database.GetLogger().Warn("Unit of work rolled back", "operations", len(ops), "failed", failed, "error", err)
	}
	return database.WrapError("save", err)
}

// stageCreate queues an insert. A rolled back save restores the entity to
// its pre-insert state, so generated ids and defaults do not leak.
func stageCreate[T any](u *UnitOfWork, desc *Descriptor[T], entity *T) {
	op := "insert " + desc.Table
	var before *T
	u.stage(stagedOp{
		name: op,
		run: func(ctx context.Context, tx bun.Tx) error {
			snapshot := *entity
			before = &snapshot
			if v, ok := any(entity).(validator); ok {
				if err := v.Validate(); err != nil {
					return err
				}
			}
			if err := checkParents(ctx, tx, op, desc.Parents(entity)); err != nil {
				return err
			}
			if err := desc.checkUnique(ctx, tx, entity); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(entity).Exec(ctx)
			return database.WrapError(op, err)
		},
		undo: func() {
			if before != nil {
				*entity = *before
			}
		},
	})
}

func stageDelete[T any](u *UnitOfWork, desc *Descriptor[T], entity *T) {
	op := "delete " + desc.Table
	u.stage(stagedOp{name: op, run: func(ctx context.Context, tx bun.Tx) error {
		id := desc.ID(entity)
		if id <= 0 {
			return types.NewValidationError("id", "cannot delete %s without an id", desc.Table)
		}
		if err := checkDependents(ctx, tx, op, desc.Table, id); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model(entity).WherePK().Exec(ctx)
		if err != nil {
			return database.WrapError(op, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s %d: %w", op, id, types.ErrNotFound)
		}
		return nil
	}})
}

// checkParents fails with a foreign key violation when a referenced row is
// missing. References with a non-positive id are skipped.
func checkParents(ctx context.Context, db bun.IDB, op string, refs []ParentRef) error {
	for _, ref := range refs {
		if ref.ID <= 0 {
			continue
		}
		ok, err := db.NewSelect().Table(ref.Table).Where("? = ?", bun.Ident("id"), ref.ID).Exists(ctx)
		if err != nil {
			return database.WrapError(op, err)
		}
		if !ok {
			return database.NewPersistenceError(op, database.ForeignKeyViolationErr,
				fmt.Errorf("referenced %s %d does not exist", ref.Table, ref.ID))
		}
	}
	return nil
}

// checkDependents blocks deleting a row that other rows still reference.
func checkDependents(ctx context.Context, db bun.IDB, op string, table string, id int64) error {
	for _, fk := range database.DependentsOf(table) {
		ok, err := db.NewSelect().Table(fk.Table).Where("? = ?", bun.Ident(fk.Column), id).Exists(ctx)
		if err != nil {
			return database.WrapError(op, err)
		}
		if ok {
			return database.NewPersistenceError(op, database.ForeignKeyViolationErr,
				fmt.Errorf("%s %d is still referenced by %s.%s", table, id, fk.Table, fk.Column))
		}
	}
	return nil
}
