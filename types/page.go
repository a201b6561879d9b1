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

import "math"

// MaxPageSize caps every paginated read.
const MaxPageSize = 100

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// And combines two filters into one conjunction. A nil side is ignored.
func (f *QueryFilter) And(other *QueryFilter) *QueryFilter {
	if f == nil {
		return other
	}
	if other == nil {
		return f
	}
	args := make([]interface{}, 0, len(f.Args)+len(other.Args))
	args = append(args, f.Args...)
	args = append(args, other.Args...)
	return &QueryFilter{Schema: "(" + f.Schema + ") AND (" + other.Schema + ")", Args: args}
}

// PageRequest describes pagination, an optional filter, relations to
// hydrate and ordering.
type PageRequest struct {
	page       int
	pageSize   int
	filter     *QueryFilter
	includes   []Relation
	orderBy    SortKey
	descending bool
}

// GetPageSize returns the effective page size: 0 means unpaginated, values
// above MaxPageSize are clamped.
func (p *PageRequest) GetPageSize() int {
	if p == nil || p.pageSize <= 0 {
		return 0
	}
	if p.pageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p == nil || p.page < 1 {
		return 1
	}
	return p.page
}

// GetOffset returns pageSize*(page-1), or 0 when unpaginated. Page numbers
// past the int range saturate at the last whole page below math.MaxInt.
func (p *PageRequest) GetOffset() int {
	size := p.GetPageSize()
	if size == 0 {
		return 0
	}
	if skipped := p.GetPage() - 1; skipped <= math.MaxInt/size {
		return skipped * size
	}
	return math.MaxInt / size * size
}

func (p *PageRequest) IsPaged() bool {
	return p.GetPageSize() > 0
}

func (p *PageRequest) GetFilter() *QueryFilter {
	if p == nil {
		return nil
	}
	return p.filter
}

func (p *PageRequest) GetIncludes() []Relation {
	if p == nil {
		return nil
	}
	return p.includes
}

func (p *PageRequest) GetOrderBy() (SortKey, bool) {
	if p == nil {
		return SortByID, false
	}
	return p.orderBy, p.descending
}

// WithFilter sets the filter and returns the request for chaining.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	p.filter = filter
	return p
}

// WithIncludes sets the relations to hydrate.
func (p *PageRequest) WithIncludes(relations ...Relation) *PageRequest {
	p.includes = relations
	return p
}

// OrderBy sets the sort key and direction.
func (p *PageRequest) OrderBy(key SortKey, descending bool) *PageRequest {
	p.orderBy = key
	p.descending = descending
	return p
}

// NewPageRequest constructs a PageRequest for the given page and size.
func NewPageRequest(page int, pageSize int) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, orderBy: SortByID}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize).WithFilter(filter)
}

// NewUnpagedRequest returns a request for every row.
func NewUnpagedRequest() *PageRequest {
	return NewPageRequest(1, 0)
}

// SearchRequest is a PageRequest plus free text matched against the
// entity's searchable column.
type SearchRequest struct {
	*PageRequest
	Text string
}

// NewSearchRequest builds a search for text on the given page.
func NewSearchRequest(text string, page int, pageSize int) *SearchRequest {
	return &SearchRequest{PageRequest: NewPageRequest(page, pageSize), Text: text}
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

// TotalPages returns the number of pages needed for Total rows.
func (p *Pagination[T]) TotalPages() int {
	if p.PageSize <= 0 {
		if p.Total > 0 {
			return 1
		}
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
