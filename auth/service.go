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

package auth

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/catalog/database"
	"github.com/tomoncle/catalog/model"
	"github.com/tomoncle/catalog/repository"
	"github.com/tomoncle/catalog/types"
	"github.com/tomoncle/catalog/utils"
	"github.com/uptrace/bun"
)

type RegistrationRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Rights    string `json:"rights,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (r *RegistrationRequest) validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return types.NewValidationError("username", "is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return types.NewValidationError("email", "is required")
	}
	return checkPassword(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse holds the issued token and the authenticated user. A failed
// login yields an empty response, not an error.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

func (r *LoginResponse) Failed() bool {
	return r == nil || r.Token == ""
}

// Service registers and authenticates users.
type Service struct {
	db     *bun.DB
	tokens *TokenIssuer
	hasher *Hasher
	log    *logrus.Logger
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.hasher = NewHasher(cost) }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(db *bun.DB, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{db: db, tokens: tokens, hasher: NewHasher(0), log: utils.GetLogger("AUTH")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// IsUniqueUsername reports whether no user has exactly this username.
func (s *Service) IsUniqueUsername(ctx context.Context, username string) (bool, error) {
	return repository.NewSession(s.db).Users.IsUniqueUsername(ctx, username)
}

// Register creates a user with a hashed password. Username and email
// collisions are validation errors. The returned user has no password.
func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*model.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	session := repository.NewSession(s.db)

	ok, err := session.Users.IsUniqueUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewValidationError("username", "%q is already taken", req.Username)
	}
	ok, err = session.Users.IsUniqueEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewValidationError("email", "%q is already registered", req.Email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Rights:       req.Rights,
		Subscription: model.DefaultSubscription,
		Password:     hash,
	}
	session.Users.Create(user)
	if err := session.Save(ctx); err != nil {
		if database.IsKind(err, database.DuplicateKeyErr) {
			return nil, types.NewValidationError("username", "username or email is already taken")
		}
		return nil, err
	}
	user.Password = ""
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords both return an empty response and a nil error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := repository.NewSession(s.db).Users.GetByEmail(ctx, req.Email)
	if types.IsNotFound(err) {
		s.hasher.Burn(req.Password)
		s.log.WithField("email", req.Email).Warn("Login failed")
		return &LoginResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(user.Password, req.Password) {
		s.log.WithField("email", req.Email).Warn("Login failed")
		return &LoginResponse{}, nil
	}

	token, err := s.tokens.Issue(user.Username, user.Rights)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Rights}).Info("User logged in")
	return &LoginResponse{Token: token, User: user}, nil
}

// ChangePassword stores a new hash for user id.
func (s *Service) ChangePassword(ctx context.Context, userID int64, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := repository.NewSession(s.db).Users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// ValidateToken verifies a token issued by this service.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}
