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

// CommitRepository implements workspace.CommitRepository
type CommitRepository struct {
	db *DB
}

// NewCommitRepository creates a new commit repository
func NewCommitRepository(db *DB) *CommitRepository {
	return &CommitRepository{db: db}
}

// CreateWithRecords inserts the commit with all its records and moves the
// unit head pointer, in one transaction
func (r *CommitRepository) CreateWithRecords(ctx context.Context, commit *workspace.Commit, records []workspace.Record) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO commits (id, unit_id, created_at, editor_id)
		VALUES ($1, $2, $3, $4)
	`, commit.ID, commit.UnitID, commit.CreatedAt, commit.EditorID)
	if err != nil {
		return translateCommitError(err)
	}

	for _, record := range records {
		_, err = tx.Exec(ctx, `
			INSERT INTO records (commit_id, sq, content)
			VALUES ($1, $2, $3)
		`, record.CommitID, record.Seq, record.Content)
		if err != nil {
			return translateCommitError(err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE units SET commit_id = $2
		WHERE id = $1
	`, commit.UnitID, commit.ID)
	if err != nil {
		return fmt.Errorf("failed to move unit head: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	return nil
}

func translateCommitError(err error) error {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23505": // unique_violation
			return workspace.ErrAlreadyExists
		case "23503": // foreign_key_violation
			return workspace.ErrConflict
		}
	}
	return fmt.Errorf("failed to insert commit: %w", err)
}

// GetByID retrieves a commit by ID
func (r *CommitRepository) GetByID(ctx context.Context, id uuid.UUID) (*workspace.Commit, error) {
	var commit workspace.Commit

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, unit_id, created_at, editor_id
		FROM commits
		WHERE id = $1
	`, id).Scan(&commit.ID, &commit.UnitID, &commit.CreatedAt, &commit.EditorID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, workspace.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &commit, nil
}

// ListByUnit retrieves the unit's commits ordered by creation time, oldest
// first
func (r *CommitRepository) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*workspace.Commit, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, unit_id, created_at, editor_id
		FROM commits
		WHERE unit_id = $1
		ORDER BY created_at
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	var commits []*workspace.Commit
	for rows.Next() {
		var commit workspace.Commit
		if err := rows.Scan(&commit.ID, &commit.UnitID, &commit.CreatedAt, &commit.EditorID); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, &commit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commits: %w", err)
	}

	return commits, nil
}

// ListRecords retrieves the commit's records ordered by sequence
func (r *CommitRepository) ListRecords(ctx context.Context, commitID uuid.UUID) ([]workspace.Record, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT commit_id, sq, content
		FROM records
		WHERE commit_id = $1
		ORDER BY sq
	`, commitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []workspace.Record
	for rows.Next() {
		var record workspace.Record
		if err := rows.Scan(&record.CommitID, &record.Seq, &record.Content); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}
