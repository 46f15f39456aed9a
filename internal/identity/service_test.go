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
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/quirelab/quire/internal/audit"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	users map[uuid.UUID]*User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[uuid.UUID]*User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	for _, u := range m.users {
		if u.Name == user.Name {
			return ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByName(ctx context.Context, name string) (*User, error) {
	for _, u := range m.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestService() *Service {
	return NewService(NewMockUserRepository(), NewPasswordHasher(65536, 3, 4, 16, 32), audit.NewSlogLogger())
}

// TestPurpose: Validates the login flow: success with correct credentials, identical failure for wrong password and unknown user.
// Scope: Unit Test
// Security: Authentication; no username-probing oracle.
// Expected: Successful login returns the user; both failure modes return ErrInvalidCredentials.
// Test Case ID: IDN-01
func TestIdentity_Service_Login(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "mira", "SecurePassword123", false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	got, err := s.Login(ctx, "mira", "SecurePassword123")
	if err != nil {
		t.Fatalf("expected success, got err: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user ID %s, got %s", user.ID, got.ID)
	}

	if _, err = s.Login(ctx, "mira", "WrongPassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	if _, err = s.Login(ctx, "nobody", "SecurePassword123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

// TestPurpose: Validates that user creation enforces the unique name constraint.
// Scope: Unit Test
// Security: Data Integrity and Unique Constraint Enforcement
// Expected: ErrUserAlreadyExists when the name is already registered.
// Test Case ID: IDN-02
func TestIdentity_Service_CreateUser_Conflict(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "dup", "SecurePassword123", false); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := s.CreateUser(ctx, "dup", "OtherPassword456", true); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

// TestPurpose: Validates input bounds on user creation: empty names, oversized names, and short passwords are rejected.
// Scope: Unit Test
// Security: Input validation before any persistence happens.
// Expected: ErrInvalidName for bad names, ErrWeakPassword for short passwords.
// Test Case ID: IDN-03
func TestIdentity_Service_CreateUser_Validation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "", "SecurePassword123", false); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName for empty name, got %v", err)
	}
	if _, err := s.CreateUser(ctx, strings.Repeat("x", MaxNameLength+1), "SecurePassword123", false); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName for oversized name, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "shortpw", "1234567", false); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

// TestPurpose: Validates that the admin seed runs once: the first call creates the admin user, repeated calls are no-ops, and a missing password only fails on a virgin database.
// Scope: Unit Test
// Security: Controlled provisioning of the privileged account.
// Expected: Admin exists with the admin flag after the first call; the second call changes nothing.
// Test Case ID: IDN-04
func TestIdentity_Service_EnsureAdmin_Idempotent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if err := s.EnsureAdmin(ctx, ""); err == nil {
		t.Error("expected error for missing password on first run")
	}

	if err := s.EnsureAdmin(ctx, "InitialPassword1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	admin, err := s.Login(ctx, AdminUserName, "InitialPassword1")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if !admin.Admin {
		t.Error("seeded admin is missing the admin flag")
	}

	// Second run must not touch the account, even with another password.
	if err := s.EnsureAdmin(ctx, "DifferentPassword2"); err != nil {
		t.Fatalf("second seed errored: %v", err)
	}
	if _, err := s.Login(ctx, AdminUserName, "InitialPassword1"); err != nil {
		t.Errorf("original admin password stopped working: %v", err)
	}
}
