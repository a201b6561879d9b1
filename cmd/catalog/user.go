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

	"github.com/spf13/cobra"
	"github.com/tomoncle/catalog"
	"github.com/tomoncle/catalog/auth"
)

var (
	regReq   auth.RegistrationRequest
	loginReq auth.LoginRequest
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Register users and issue tokens",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			u, err := c.Credentials().Register(ctx, regReq)
			if err != nil {
				return err
			}
			return printJSON(u)
		})
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials and print a bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			resp, err := c.Credentials().Login(ctx, loginReq)
			if err != nil {
				return err
			}
			if resp.Failed() {
				return fmt.Errorf("invalid email or password")
			}
			return printJSON(resp)
		})
	},
}

var userCheckCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Report whether a username is still free",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, c *catalog.Catalog) error {
			ok, err := c.Credentials().IsUniqueUsername(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"username": args[0], "available": ok})
		})
	},
}

func init() {
	f := userRegisterCmd.Flags()
	f.StringVar(&regReq.Username, "username", "", "username")
	f.StringVar(&regReq.Email, "email", "", "email")
	f.StringVar(&regReq.Password, "password", "", "password")
	f.StringVar(&regReq.Rights, "rights", "", "rights (default Guest)")
	f.StringVar(&regReq.FirstName, "first-name", "", "first name")
	f.StringVar(&regReq.LastName, "last-name", "", "last name")
	_ = userRegisterCmd.MarkFlagRequired("username")
	_ = userRegisterCmd.MarkFlagRequired("email")
	_ = userRegisterCmd.MarkFlagRequired("password")

	f = userLoginCmd.Flags()
	f.StringVar(&loginReq.Email, "email", "", "email")
	f.StringVar(&loginReq.Password, "password", "", "password")
	_ = userLoginCmd.MarkFlagRequired("email")
	_ = userLoginCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userRegisterCmd, userLoginCmd, userCheckCmd)
	rootCmd.AddCommand(userCmd)
}
