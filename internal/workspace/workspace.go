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

package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflicting reference")
)

// Column widths, enforced before hitting the database
const (
	MaxProjectNameLength = 256
	MaxUnitTitleLength   = 256
)

// Project groups the units of one translation effort
type Project struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Unit is one document inside a project. CommitID points at the head
// commit when the unit has any. UpdatedAt carries the newest commit time
// on listings and is not stored.
type Unit struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"projectId"`
	Title     string     `json:"title"`
	CommitID  *uuid.UUID `json:"latestCommitId,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Source is one ordered original segment of a unit, immutable after the
// unit is created.
type Source struct {
	UnitID  uuid.UUID `json:"-"`
	Seq     int32     `json:"sq"`
	Content string    `json:"content"`
	Meta    string    `json:"meta"`
}

// Commit is one translation revision of a unit
type Commit struct {
	ID        uuid.UUID `json:"id"`
	UnitID    uuid.UUID `json:"unitId"`
	CreatedAt time.Time `json:"createdAt"`
	EditorID  uuid.UUID `json:"editorId"`
}

// Record is one translated segment belonging to a commit
type Record struct {
	CommitID uuid.UUID `json:"-"`
	Seq      int32     `json:"sq"`
	Content  string    `json:"content"`
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
}

// UnitRepository defines the interface for unit and source persistence
type UnitRepository interface {
	// CreateWithSources inserts the unit and its sources in one transaction
	CreateWithSources(ctx context.Context, unit *Unit, sources []Source) error

	GetByID(ctx context.Context, id uuid.UUID) (*Unit, error)

	// ListByProject returns the project's units ordered by title, with
	// UpdatedAt set to the newest commit time where one exists
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Unit, error)

	// ListSources returns the unit's sources ordered by sequence
	ListSources(ctx context.Context, unitID uuid.UUID) ([]Source, error)
}

// CommitRepository defines the interface for commit and record persistence
type CommitRepository interface {
	// CreateWithRecords inserts the commit with its records and moves the
	// unit head pointer, all in one transaction
	CreateWithRecords(ctx context.Context, commit *Commit, records []Record) error

	GetByID(ctx context.Context, id uuid.UUID) (*Commit, error)

	// ListByUnit returns the unit's commits ordered by creation time
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*Commit, error)

	// ListRecords returns the commit's records ordered by sequence
	ListRecords(ctx context.Context, commitID uuid.UUID) ([]Record, error)
}
