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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quirelab/quire/internal/audit"
)

// Service provides workspace business logic
type Service struct {
	projects    ProjectRepository
	units       UnitRepository
	commits     CommitRepository
	auditLogger audit.Logger
}

// NewService creates a new workspace service
func NewService(projects ProjectRepository, units UnitRepository, commits CommitRepository, auditLogger audit.Logger) *Service {
	return &Service{
		projects:    projects,
		units:       units,
		commits:     commits,
		auditLogger: auditLogger,
	}
}

// CreateProject creates a new project
func (s *Service) CreateProject(ctx context.Context, name string, actorID uuid.UUID) (*Project, error) {
	if strings.TrimSpace(name) == "" || len(name) > MaxProjectNameLength {
		return nil, ErrInvalidInput
	}

	project := &Project{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeProjectCreated,
		ActorID:  actorID.String(),
		Resource: project.ID.String(),
		Metadata: map[string]any{"name": name},
	})

	return project, nil
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.projects.GetByID(ctx, id)
}

// ListProjects lists all projects
func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.projects.List(ctx)
}

// CreateUnit creates a unit together with its source segments
func (s *Service) CreateUnit(ctx context.Context, projectID uuid.UUID, title string, sources []Source, actorID uuid.UUID) (*Unit, error) {
	if strings.TrimSpace(title) == "" || len(title) > MaxUnitTitleLength {
		return nil, ErrInvalidInput
	}

	unit := &Unit{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
	}
	for i := range sources {
		sources[i].UnitID = unit.ID
	}

	if err := s.units.CreateWithSources(ctx, unit, sources); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUnitCreated,
		ActorID:  actorID.String(),
		Resource: unit.ID.String(),
		Metadata: map[string]any{"title": title, "sources": len(sources)},
	})

	return unit, nil
}

// GetUnit retrieves a unit by ID
func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.units.GetByID(ctx, id)
}

// ListUnits lists a project's units, newest commit time attached
func (s *Service) ListUnits(ctx context.Context, projectID uuid.UUID) ([]*Unit, error) {
	return s.units.ListByProject(ctx, projectID)
}

// ListSources lists a unit's source segments in order
func (s *Service) ListSources(ctx context.Context, unitID uuid.UUID) ([]Source, error) {
	return s.units.ListSources(ctx, unitID)
}

// CreateCommit records a new revision of a unit. The editor comes from
// the authenticated claim, never from the request body.
func (s *Service) CreateCommit(ctx context.Context, unitID, editorID uuid.UUID, records []Record) (*Commit, error) {
	commit := &Commit{
		ID:        uuid.New(),
		UnitID:    unitID,
		CreatedAt: time.Now().UTC(),
		EditorID:  editorID,
	}
	for i := range records {
		records[i].CommitID = commit.ID
	}

	if err := s.commits.CreateWithRecords(ctx, commit, records); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCommitCreated,
		ActorID:  editorID.String(),
		Resource: commit.ID.String(),
		Metadata: map[string]any{"unit_id": unitID.String(), "records": len(records)},
	})

	return commit, nil
}

// GetCommit retrieves a commit by ID
func (s *Service) GetCommit(ctx context.Context, id uuid.UUID) (*Commit, error) {
	return s.commits.GetByID(ctx, id)
}

// ListCommits lists a unit's commits in creation order
func (s *Service) ListCommits(ctx context.Context, unitID uuid.UUID) ([]*Commit, error) {
	return s.commits.ListByUnit(ctx, unitID)
}

// ListRecords lists a commit's records in order
func (s *Service) ListRecords(ctx context.Context, commitID uuid.UUID) ([]Record, error) {
	return s.commits.ListRecords(ctx, commitID)
}
