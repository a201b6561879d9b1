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

package database

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel represents a database model created by migrations. Instance
// returns a struct pointer compatible with Bun; Priority orders table
// creation so that referenced tables come first (lower values first).
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// IndexDefinition is a secondary index created after the tables.
type IndexDefinition struct {
	Name    string
	Columns []string
	Unique  bool
}

// IndexedModel is implemented by models that declare secondary indexes.
type IndexedModel interface {
	Indexes() []IndexDefinition
}

// ModelRegistry stores SQL models and foreign keys in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
	RegisterForeignKey(fk ForeignKeyConstraint)
	ForeignKeys() []ForeignKeyConstraint
}

type modelRegistry struct {
	models      []SQLModel
	foreignKeys []ForeignKeyConstraint
	mutex       sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]SQLModel, 0),
	}
}

func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *modelRegistry) RegisterForeignKey(fk ForeignKeyConstraint) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.foreignKeys = append(r.foreignKeys, fk)
}

func (r *modelRegistry) ForeignKeys() []ForeignKeyConstraint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	result := make([]ForeignKeyConstraint, len(r.foreignKeys))
	copy(result, r.foreignKeys)
	return result
}

type ModelAdapter struct {
	instance interface{}
	priority int
	indexes  []IndexDefinition
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) *ModelAdapter {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

// WithIndex declares a secondary index on the model's table.
func (a *ModelAdapter) WithIndex(name string, unique bool, columns ...string) *ModelAdapter {
	a.indexes = append(a.indexes, IndexDefinition{Name: name, Columns: columns, Unique: unique})
	return a
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

func (a *ModelAdapter) Indexes() []IndexDefinition {
	return a.indexes
}

// GetRegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	modelInstances := make([]interface{}, len(models))
	for i, model := range models {
		modelInstances[i] = model.Instance()
	}
	return modelInstances
}

// RegisterForeignKey adds a code-defined constraint to the default registry.
func RegisterForeignKey(fk ForeignKeyConstraint) {
	defaultRegistry.RegisterForeignKey(fk)
}

// RegisteredForeignKeys returns the code-defined constraints.
func RegisteredForeignKeys() []ForeignKeyConstraint {
	return defaultRegistry.ForeignKeys()
}

// DependentsOf lists the constraints whose reference table is table, i.e.
// the child tables that block deleting one of its rows.
func DependentsOf(table string) []ForeignKeyConstraint {
	var out []ForeignKeyConstraint
	for _, fk := range RegisteredForeignKeys() {
		if strings.EqualFold(fk.ReferenceTable, table) {
			out = append(out, fk)
		}
	}
	return out
}

// ResolveTableName reads the table name from the bun.BaseModel tag.
func ResolveTableName(model interface{}) (string, error) {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("model %s is not a struct", t)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Name() == "BaseModel" && strings.Contains(f.Type.PkgPath(), "uptrace/bun") {
			tag := f.Tag.Get("bun")
			for _, part := range strings.Split(tag, ",") {
				part = strings.TrimSpace(part)
				if strings.HasPrefix(part, "table:") {
					return strings.TrimPrefix(part, "table:"), nil
				}
			}
		}
	}
	return "", fmt.Errorf("missing table tag on bun.BaseModel of %s", t.Name())
}
