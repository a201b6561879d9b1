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

package types

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// SortKey is a named ordering key. Each entity descriptor maps the keys it
// accepts to a column; keys outside that set are rejected.
type SortKey int

const (
	SortByID SortKey = iota
	SortByTitle
	SortByText
	SortByName
	SortByDate
)

var sortKeyNames = map[SortKey]string{
	SortByID:    "Id",
	SortByTitle: "Title",
	SortByText:  "Text",
	SortByName:  "Name",
	SortByDate:  "Date",
}

var sortKeyDescs = map[SortKey]string{
	SortByID:    "identity",
	SortByTitle: "item title",
	SortByText:  "review or comment body",
	SortByName:  "username",
	SortByDate:  "creation timestamp",
}

var _ BaseEnum = SortByID

func (k SortKey) IsValid() bool {
	_, ok := sortKeyNames[k]
	return ok
}

func (k SortKey) Number() int {
	if !k.IsValid() {
		return IllegalValue
	}
	return int(k)
}

func (k SortKey) String() string { return k.Name() }

func (k SortKey) Name() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return IllegalName
}

func (k SortKey) Desc() string {
	if desc, ok := sortKeyDescs[k]; ok {
		return desc
	}
	return IllegalDesc
}

// LookupSortKey resolves a sort key by its name, ignoring case. The second
// result is false for unknown names.
func LookupSortKey(name string) (SortKey, bool) {
	for k, n := range sortKeyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return k, true
		}
	}
	return SortKey(IllegalValue), false
}
