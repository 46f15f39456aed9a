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

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quirelab/quire/internal/workspace"
)

func urlUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// CreateProjectRequest represents project creation data
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required" example:"Reference Translations"`
}

// CreateProject creates a new project
// @Summary Create Project
// @Description Create a new translation project
// @Tags Workspace
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateProjectRequest true "Project Data"
// @Success 201 {object} workspace.Project
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, _ := GetClaim(r.Context())

	project, err := h.workspaceService.CreateProject(r.Context(), req.Name, claim.Subject)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, project)
}

// ListProjects lists all projects
// @Summary List Projects
// @Description List every project, ordered by name
// @Tags Workspace
// @Produce json
// @Success 200 {array} workspace.Project
// @Router /projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.workspaceService.ListProjects(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if projects == nil {
		projects = []*workspace.Project{}
	}

	respondJSON(w, http.StatusOK, projects)
}

// GetProject returns one project
// @Summary Get Project
// @Description Retrieve a project by ID
// @Tags Workspace
// @Produce json
// @Success 200 {object} workspace.Project
// @Failure 404 {object} map[string]string
// @Router /projects/{projectID} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "projectID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	project, err := h.workspaceService.GetProject(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// ListUnits lists a project's units
// @Summary List Units
// @Description List the project's units ordered by title, with the newest commit time
// @Tags Workspace
// @Produce json
// @Success 200 {array} workspace.Unit
// @Failure 404 {object} map[string]string
// @Router /projects/{projectID}/units [get]
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "projectID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	units, err := h.workspaceService.ListUnits(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if units == nil {
		units = []*workspace.Unit{}
	}

	respondJSON(w, http.StatusOK, units)
}

// SourcePayload is one source line in a unit creation request
type SourcePayload struct {
	Seq     int32  `json:"sq"`
	Content string `json:"content"`
	Meta    string `json:"meta"`
}

// CreateUnitRequest represents unit creation data
type CreateUnitRequest struct {
	Project    uuid.UUID       `json:"project" binding:"required"`
	Title      string          `json:"title" binding:"required" example:"Chapter One"`
	SourceList []SourcePayload `json:"sourceList"`
}

// CreateUnit creates a new unit with its source lines
// @Summary Create Unit
// @Description Create a unit and its immutable source lines in one step
// @Tags Workspace
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateUnitRequest true "Unit Data"
// @Success 201 {object} workspace.Unit
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /units [post]
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sources := make([]workspace.Source, 0, len(req.SourceList))
	for _, s := range req.SourceList {
		sources = append(sources, workspace.Source{
			Seq:     s.Seq,
			Content: s.Content,
			Meta:    s.Meta,
		})
	}

	claim, _ := GetClaim(r.Context())

	unit, err := h.workspaceService.CreateUnit(r.Context(), req.Project, req.Title, sources, claim.Subject)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, unit)
}

// GetUnit returns one unit
// @Summary Get Unit
// @Description Retrieve a unit by ID
// @Tags Workspace
// @Produce json
// @Success 200 {object} workspace.Unit
// @Failure 404 {object} map[string]string
// @Router /units/{unitID} [get]
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "unitID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	unit, err := h.workspaceService.GetUnit(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// ListSources lists a unit's source lines
// @Summary List Sources
// @Description List the unit's source lines in sequence order
// @Tags Workspace
// @Produce json
// @Success 200 {array} workspace.Source
// @Failure 404 {object} map[string]string
// @Router /units/{unitID}/sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "unitID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	sources, err := h.workspaceService.ListSources(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if sources == nil {
		sources = []workspace.Source{}
	}

	respondJSON(w, http.StatusOK, sources)
}

// ListCommits lists a unit's commits
// @Summary List Commits
// @Description List the unit's commits in creation order
// @Tags Workspace
// @Produce json
// @Success 200 {array} workspace.Commit
// @Failure 404 {object} map[string]string
// @Router /units/{unitID}/commits [get]
func (h *Handler) ListCommits(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "unitID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	commits, err := h.workspaceService.ListCommits(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if commits == nil {
		commits = []*workspace.Commit{}
	}

	respondJSON(w, http.StatusOK, commits)
}

// RecordPayload is one translated line in a commit creation request
type RecordPayload struct {
	Seq     int32  `json:"sq"`
	Content string `json:"content"`
}

// CreateCommitRequest represents commit creation data
type CreateCommitRequest struct {
	Unit       uuid.UUID       `json:"unit" binding:"required"`
	RecordList []RecordPayload `json:"recordList"`
}

// CreateCommit creates a new commit with its records
// @Summary Create Commit
// @Description Store a translation revision; the editor is taken from the token
// @Tags Workspace
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateCommitRequest true "Commit Data"
// @Success 201 {object} workspace.Commit
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /commits [post]
func (h *Handler) CreateCommit(w http.ResponseWriter, r *http.Request) {
	var req CreateCommitRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	records := make([]workspace.Record, 0, len(req.RecordList))
	for _, rec := range req.RecordList {
		records = append(records, workspace.Record{
			Seq:     rec.Seq,
			Content: rec.Content,
		})
	}

	claim, _ := GetClaim(r.Context())

	commit, err := h.workspaceService.CreateCommit(r.Context(), req.Unit, claim.Subject, records)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, commit)
}

// GetCommit returns one commit
// @Summary Get Commit
// @Description Retrieve a commit by ID
// @Tags Workspace
// @Produce json
// @Success 200 {object} workspace.Commit
// @Failure 404 {object} map[string]string
// @Router /commits/{commitID} [get]
func (h *Handler) GetCommit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "commitID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	commit, err := h.workspaceService.GetCommit(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, commit)
}

// ListRecords lists a commit's records
// @Summary List Records
// @Description List the commit's translated lines in sequence order
// @Tags Workspace
// @Produce json
// @Success 200 {array} workspace.Record
// @Failure 404 {object} map[string]string
// @Router /commits/{commitID}/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "commitID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	records, err := h.workspaceService.ListRecords(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if records == nil {
		records = []workspace.Record{}
	}

	respondJSON(w, http.StatusOK, records)
}
