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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tomoncle/catalog"
	"github.com/tomoncle/catalog/repository"
	"github.com/tomoncle/catalog/types"
)

var entities = []string{"items", "users", "reviews", "comments"}

var searchFlags struct {
	text     string
	page     int
	size     int
	order    string
	desc     bool
	includes string
}

var searchCmd = &cobra.Command{
	Use:       "search <entity>",
	Short:     "Search one entity by its searchable column",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: entities,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			s := c.Session()
			switch args[0] {
			case "items":
				return search(ctx, s.Items.BaseRepository)
			case "users":
				return search(ctx, s.Users.BaseRepository)
			case "reviews":
				return search(ctx, s.Reviews.BaseRepository)
			default:
				return search(ctx, s.Comments.BaseRepository)
			}
		})
	},
}

var countText string

var countCmd = &cobra.Command{
	Use:       "count <entity>",
	Short:     "Count rows, or rows matching --text",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: entities,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			s := c.Session()
			var counter interface {
				Count(context.Context) (int, error)
				CountMatching(context.Context, string) (int, error)
			}
			switch args[0] {
			case "items":
				counter = s.Items
			case "users":
				counter = s.Users
			case "reviews":
				counter = s.Reviews
			default:
				counter = s.Comments
			}
			var (
				n   int
				err error
			)
			if countText == "" {
				n, err = counter.Count(ctx)
			} else {
				n, err = counter.CountMatching(ctx, countText)
			}
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"entity": args[0], "count": n})
		})
	},
}

func search[T any](ctx context.Context, repo *repository.BaseRepository[T]) error {
	desc := repo.Descriptor()
	req := types.NewSearchRequest(searchFlags.text, searchFlags.page, searchFlags.size)

	if searchFlags.order != "" {
		key, ok := types.LookupSortKey(searchFlags.order)
		if !ok {
			return types.NewValidationError("orderBy", "unknown sort key %q", searchFlags.order)
		}
		req.OrderBy(key, searchFlags.desc)
	}
	switch strings.TrimSpace(searchFlags.includes) {
	case "":
	case "default":
		req.WithIncludes(desc.DefaultIncludes...)
	default:
		rels, err := types.ParseRelations(searchFlags.includes, desc.Relations)
		if err != nil {
			return err
		}
		req.WithIncludes(rels...)
	}

	page, err := repo.Page(ctx, req)
	if err != nil {
		return fmt.Errorf("search %s: %w", desc.Table, err)
	}
	return printJSON(map[string]any{
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total":       page.Total,
		"total_pages": page.TotalPages(),
		"items":       page.Items,
	})
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.text, "text", "t", "", "text contained in the searchable column")
	f.IntVar(&searchFlags.page, "page", 1, "page number, from 1")
	f.IntVar(&searchFlags.size, "size", 20, "page size, at most 100; 0 returns everything")
	f.StringVar(&searchFlags.order, "order", "", "sort key: Id, Title, Text, Name, Date")
	f.BoolVar(&searchFlags.desc, "desc", false, "sort descending")
	f.StringVar(&searchFlags.includes, "include", "", `comma separated relations, or "default"`)

	countCmd.Flags().StringVarP(&countText, "text", "t", "", "count only rows containing this text")

	rootCmd.AddCommand(searchCmd, countCmd)
}
