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

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestSizeRules(t *testing.T) {
	tests := []struct {
		page, size int
		wantSize   int
		wantOffset int
		wantPaged  bool
	}{
		{1, 0, 0, 0, false},
		{3, -5, 0, 0, false},
		{1, 10, 10, 0, true},
		{3, 10, 10, 20, true},
		{0, 10, 10, 0, true},
		{2, 500, MaxPageSize, MaxPageSize, true},
		{1, 100, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,size=%d", tt.page, tt.size), func(t *testing.T) {
			p := NewPageRequest(tt.page, tt.size)
			assert.Equal(t, tt.wantSize, p.GetPageSize())
			assert.Equal(t, tt.wantOffset, p.GetOffset())
			assert.Equal(t, tt.wantPaged, p.IsPaged())
		})
	}
}

func TestOffsetSaturatesForHugePages(t *testing.T) {
	tests := []struct {
		page, size int
	}{
		{math.MaxInt, 100},
		{math.MaxInt, 1},
		{math.MaxInt/3 + 2, 3},
		{math.MaxInt/100 + 2, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.page, tt.size), func(t *testing.T) {
			offset := NewPageRequest(tt.page, tt.size).GetOffset()
			assert.GreaterOrEqual(t, offset, 0)
			assert.Zero(t, offset%tt.size)
			assert.Greater(t, offset, math.MaxInt-tt.size-tt.size)
		})
	}
	assert.Equal(t, 990, NewPageRequest(100, 10).GetOffset())
}

func TestNilPageRequestMeansEverything(t *testing.T) {
	var p *PageRequest
	assert.Equal(t, 0, p.GetPageSize())
	assert.Equal(t, 1, p.GetPage())
	assert.Nil(t, p.GetFilter())
	key, desc := p.GetOrderBy()
	assert.Equal(t, SortByID, key)
	assert.False(t, desc)
}

func TestQueryFilterAnd(t *testing.T) {
	a := NewQueryFilter("a = ?", 1)
	b := NewQueryFilter("b = ?", 2)

	both := a.And(b)
	assert.Equal(t, "(a = ?) AND (b = ?)", both.Schema)
	assert.Equal(t, []interface{}{1, 2}, both.Args)

	var none *QueryFilter
	assert.Same(t, b, none.And(b))
	assert.Same(t, a, a.And(nil))
}

func TestSortKeyEnum(t *testing.T) {
	key, ok := LookupSortKey("title")
	require.True(t, ok)
	assert.Equal(t, SortByTitle, key)
	assert.Equal(t, "Title", key.String())
	assert.True(t, key.IsValid())

	_, ok = LookupSortKey("Rating")
	assert.False(t, ok)

	bad := SortKey(42)
	assert.False(t, bad.IsValid())
	assert.Equal(t, IllegalValue, bad.Number())
	assert.Equal(t, IllegalName, bad.Name())
}

func TestParseRelations(t *testing.T) {
	allowed := RelationSet{"Reviews", "Comments", "Reviews.User"}

	rels, err := ParseRelations("reviews, Reviews.User,,", allowed)
	require.NoError(t, err)
	assert.Equal(t, []Relation{"Reviews", "Reviews.User"}, rels)

	rels, err = ParseRelations("", allowed)
	require.NoError(t, err)
	assert.Empty(t, rels)

	_, err = ParseRelations("Reviews,Reviewz", allowed)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCheckTarget(t *testing.T) {
	assert.NoError(t, CheckTarget(7, 7))
	assert.True(t, IsValidationError(CheckTarget(7, 8)))
	assert.True(t, IsValidationError(CheckTarget(0, 0)))
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan([]byte(`[]`)))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan(12))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPaginationTotalPages(t *testing.T) {
	p := NewDefaultPagination[int](1, 10)
	p.Total = 21
	assert.Equal(t, 3, p.TotalPages())

	p.PageSize = 0
	assert.Equal(t, 1, p.TotalPages())
}
