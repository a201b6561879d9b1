// Package auth registers users, checks their credentials with bcrypt and
// issues HS256 bearer tokens.
package auth
