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

// Relation names a related entity (or a dotted path through several) to be
// hydrated with the primary record, e.g. "Reviews.User".
type Relation string

// RelationSet is the closed set of relations an entity accepts.
type RelationSet []Relation

// Contains reports whether rel belongs to the set.
func (s RelationSet) Contains(rel Relation) bool {
	for _, r := range s {
		if r == rel {
			return true
		}
	}
	return false
}

// Validate returns a ValidationError naming the first relation outside the
// set.
func (s RelationSet) Validate(relations []Relation) error {
	for _, rel := range relations {
		if !s.Contains(rel) {
			return NewValidationError("include", "unknown relation %q", string(rel))
		}
	}
	return nil
}

// ParseRelations splits a comma-separated include list and checks each
// entry against allowed. Entries are matched case-insensitively and
// returned in their canonical spelling; empty entries are skipped.
func ParseRelations(csv string, allowed RelationSet) ([]Relation, error) {
	var out []Relation
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, rel := range allowed {
			if strings.EqualFold(string(rel), part) {
				out = append(out, rel)
				found = true
				break
			}
		}
		if !found {
			return nil, NewValidationError("include", "unknown relation %q", part)
		}
	}
	return out, nil
}
