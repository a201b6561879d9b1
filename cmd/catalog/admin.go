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

	"github.com/spf13/cobra"
	"github.com/tomoncle/catalog"
)

var exportFKs string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables, foreign keys and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			if exportFKs != "" {
				n, err := c.ExportForeignKeys(exportFKs)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"status": "exported", "file": exportFKs, "foreign_keys": n})
			}
			if err := c.Migrate(ctx); err != nil {
				return err
			}
			return printJSON(map[string]string{"status": "migrated"})
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Ping the store and print pool statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			return printJSON(map[string]any{"health": c.Health(ctx), "stats": c.Stats()})
		})
	},
}

func init() {
	migrateCmd.Flags().StringVar(&exportFKs, "export-fks", "", "write the foreign key constraints to this YAML file instead of migrating")
	rootCmd.AddCommand(migrateCmd, healthCmd)
}
