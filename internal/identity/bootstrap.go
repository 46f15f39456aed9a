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
	"fmt"
	"log/slog"
)

// EnsureAdmin seeds the initial admin account on first run. It is
// idempotent: an existing admin user short-circuits, and a concurrent
// replica winning the insert race is not an error.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if _, err := s.repo.GetByName(ctx, AdminUserName); err == nil {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required on first run; set QUIRE_ADMIN_PASSWORD")
	}

	user, err := s.CreateUser(ctx, AdminUserName, password, true)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil
		}
		return fmt.Errorf("seeding admin account: %w", err)
	}

	slog.InfoContext(ctx, "seeded initial admin account", slog.String("user_id", user.ID.String()))
	return nil
}
