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

// UnitRepository implements workspace.UnitRepository
type UnitRepository struct {
	db *DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// CreateWithSources inserts the unit and all its sources in one transaction
func (r *UnitRepository) CreateWithSources(ctx context.Context, unit *workspace.Unit, sources []workspace.Source) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO units (id, project_id, title)
		VALUES ($1, $2, $3)
	`, unit.ID, unit.ProjectID, unit.Title)
	if err != nil {
		return translateUnitError(err)
	}

	for _, source := range sources {
		_, err = tx.Exec(ctx, `
			INSERT INTO sources (unit_id, sq, content, meta)
			VALUES ($1, $2, $3, $4)
		`, source.UnitID, source.Seq, source.Content, source.Meta)
		if err != nil {
			return translateUnitError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unit: %w", err)
	}

	return nil
}

func translateUnitError(err error) error {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23505": // unique_violation
			return workspace.ErrAlreadyExists
		case "23503": // foreign_key_violation
			return workspace.ErrConflict
		}
	}
	return fmt.Errorf("failed to insert unit: %w", err)
}

// GetByID retrieves a unit by ID
func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*workspace.Unit, error) {
	var unit workspace.Unit

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, project_id, title, commit_id
		FROM units
		WHERE id = $1
	`, id).Scan(&unit.ID, &unit.ProjectID, &unit.Title, &unit.CommitID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, workspace.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	return &unit, nil
}

// ListByProject retrieves the project's units ordered by title. UpdatedAt
// carries the newest commit time for units that have commits.
func (r *UnitRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*workspace.Unit, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT u.id, u.project_id, u.title, u.commit_id, MAX(c.created_at)
		FROM units u
		LEFT JOIN commits c ON c.unit_id = u.id
		WHERE u.project_id = $1
		GROUP BY u.id, u.project_id, u.title, u.commit_id
		ORDER BY u.title
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*workspace.Unit
	for rows.Next() {
		var unit workspace.Unit
		if err := rows.Scan(&unit.ID, &unit.ProjectID, &unit.Title, &unit.CommitID, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, &unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read units: %w", err)
	}

	return units, nil
}

// ListSources retrieves the unit's sources ordered by sequence
func (r *UnitRepository) ListSources(ctx context.Context, unitID uuid.UUID) ([]workspace.Source, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT unit_id, sq, content, meta
		FROM sources
		WHERE unit_id = $1
		ORDER BY sq
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []workspace.Source
	for rows.Next() {
		var source workspace.Source
		if err := rows.Scan(&source.UnitID, &source.Seq, &source.Content, &source.Meta); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}

	return sources, nil
}
