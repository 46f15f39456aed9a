// Copyright 2026 The Quire Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidName        = errors.New("invalid user name")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
)

// MaxNameLength bounds user names, mirroring the column width.
const MaxNameLength = 32

// AdminUserName is the account seeded on first run.
const AdminUserName = "admin"

// User represents an editor account. Hash is the argon2id-encoded
// password and never leaves this package's consumers in serialized form.
type User struct {
	ID    uuid.UUID
	Name  string
	Hash  string
	Admin bool
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByName retrieves a user by unique name
	GetByName(ctx context.Context, name string) (*User, error)
}
