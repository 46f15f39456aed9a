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

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quirelab/quire/internal/workspace"
)

// ProjectRepository implements workspace.ProjectRepository
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *workspace.Project) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO projects (id, name)
		VALUES ($1, $2)
	`, project.ID, project.Name)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" { // unique_violation
			return workspace.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*workspace.Project, error) {
	var project workspace.Project

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name
		FROM projects
		WHERE id = $1
	`, id).Scan(&project.ID, &project.Name)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, workspace.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// List retrieves all projects ordered by name
func (r *ProjectRepository) List(ctx context.Context) ([]*workspace.Project, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name
		FROM projects
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*workspace.Project
	for rows.Next() {
		var project workspace.Project
		if err := rows.Scan(&project.ID, &project.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	return projects, nil
}
