package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/quirelab/quire/internal/audit"
)

// In-memory mocks for the three repositories

type MockProjectRepo struct {
	projects map[uuid.UUID]*Project
}

func (m *MockProjectRepo) Create(ctx context.Context, p *Project) error {
	for _, existing := range m.projects {
		if existing.Name == p.Name {
			return ErrAlreadyExists
		}
	}
	m.projects[p.ID] = p
	return nil
}

func (m *MockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *MockProjectRepo) List(ctx context.Context) ([]*Project, error) {
	out := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

type MockUnitRepo struct {
	projects *MockProjectRepo
	units    map[uuid.UUID]*Unit
	sources  map[uuid.UUID][]Source
}

func (m *MockUnitRepo) CreateWithSources(ctx context.Context, u *Unit, sources []Source) error {
	if _, ok := m.projects.projects[u.ProjectID]; !ok {
		return ErrConflict
	}
	m.units[u.ID] = u
	m.sources[u.ID] = sources
	return nil
}

func (m *MockUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *MockUnitRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Unit, error) {
	var out []*Unit
	for _, u := range m.units {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockUnitRepo) ListSources(ctx context.Context, unitID uuid.UUID) ([]Source, error) {
	return m.sources[unitID], nil
}

type MockCommitRepo struct {
	units   *MockUnitRepo
	commits map[uuid.UUID]*Commit
	records map[uuid.UUID][]Record
}

func (m *MockCommitRepo) CreateWithRecords(ctx context.Context, c *Commit, records []Record) error {
	unit, ok := m.units.units[c.UnitID]
	if !ok {
		return ErrConflict
	}
	m.commits[c.ID] = c
	m.records[c.ID] = records
	head := c.ID
	unit.CommitID = &head
	return nil
}

func (m *MockCommitRepo) GetByID(ctx context.Context, id uuid.UUID) (*Commit, error) {
	c, ok := m.commits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *MockCommitRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*Commit, error) {
	var out []*Commit
	for _, c := range m.commits {
		if c.UnitID == unitID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCommitRepo) ListRecords(ctx context.Context, commitID uuid.UUID) ([]Record, error) {
	return m.records[commitID], nil
}

func newTestService() (*Service, *MockProjectRepo, *MockUnitRepo, *MockCommitRepo) {
	projects := &MockProjectRepo{projects: make(map[uuid.UUID]*Project)}
	units := &MockUnitRepo{projects: projects, units: make(map[uuid.UUID]*Unit), sources: make(map[uuid.UUID][]Source)}
	commits := &MockCommitRepo{units: units, commits: make(map[uuid.UUID]*Commit), records: make(map[uuid.UUID][]Record)}
	return NewService(projects, units, commits, audit.NewSlogLogger()), projects, units, commits
}

// TestPurpose: Validates project creation and input rejection before anything reaches storage.
// Scope: Unit Test
// Security: Input Validation
// Expected: Valid names persist and read back; empty, oversized, and duplicate names fail with the matching domain error.
// Test Case ID: WSP-01
func TestWorkspace_Service_CreateProject(t *testing.T) {
	s, _, _, _ := newTestService()
	ctx := context.Background()
	actor := uuid.New()

	p, err := s.CreateProject(ctx, "Reference Translations", actor)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil || got.Name != "Reference Translations" {
		t.Fatalf("get after create: %v, %+v", err, got)
	}

	if _, err := s.CreateProject(ctx, "", actor); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := s.CreateProject(ctx, strings.Repeat("n", MaxProjectNameLength+1), actor); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for oversized name, got %v", err)
	}
	if _, err := s.CreateProject(ctx, "Reference Translations", actor); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate, got %v", err)
	}
}

// TestPurpose: Validates that a unit and its source lines are stored as one batch with the parent link set on every line.
// Scope: Unit Test
// Security: Data Integrity
// Expected: Every stored source carries the new unit's ID; a unit under an unknown project fails with ErrConflict.
// Test Case ID: WSP-02
func TestWorkspace_Service_CreateUnit_AttachesSources(t *testing.T) {
	s, _, units, _ := newTestService()
	ctx := context.Background()
	actor := uuid.New()

	p, err := s.CreateProject(ctx, "Letters", actor)
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	sources := []Source{
		{Seq: 1, Content: "First sentence.", Meta: "{}"},
		{Seq: 2, Content: "Second sentence.", Meta: "{}"},
	}
	u, err := s.CreateUnit(ctx, p.ID, "Chapter One", sources, actor)
	if err != nil {
		t.Fatalf("create unit failed: %v", err)
	}

	stored := units.sources[u.ID]
	if len(stored) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(stored))
	}
	for _, src := range stored {
		if src.UnitID != u.ID {
			t.Errorf("source not bound to unit: %v", src.UnitID)
		}
	}

	// Unknown parent surfaces the repository conflict untouched.
	if _, err := s.CreateUnit(ctx, uuid.New(), "Orphan", nil, actor); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for unknown project, got %v", err)
	}
}

// TestPurpose: Validates commit creation: editor and timestamp are stamped server-side and the unit head moves to the new commit.
// Scope: Unit Test
// Security: Attribution; the editor identity is never taken from client input.
// Expected: The commit carries the acting editor and a creation time, records bind to it, and the unit points at it.
// Test Case ID: WSP-03
func TestWorkspace_Service_CreateCommit_MovesHead(t *testing.T) {
	s, _, units, _ := newTestService()
	ctx := context.Background()
	editor := uuid.New()

	p, _ := s.CreateProject(ctx, "Letters", editor)
	u, err := s.CreateUnit(ctx, p.ID, "Chapter One", []Source{{Seq: 1, Content: "Hello.", Meta: "{}"}}, editor)
	if err != nil {
		t.Fatalf("create unit failed: %v", err)
	}

	c, err := s.CreateCommit(ctx, u.ID, editor, []Record{{Seq: 1, Content: "Bonjour."}})
	if err != nil {
		t.Fatalf("create commit failed: %v", err)
	}
	if c.EditorID != editor {
		t.Errorf("editor not stamped: %v", c.EditorID)
	}
	if c.CreatedAt.IsZero() {
		t.Error("creation time not stamped")
	}

	head := units.units[u.ID].CommitID
	if head == nil || *head != c.ID {
		t.Errorf("unit head not moved to new commit")
	}

	records, err := s.ListRecords(ctx, c.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("records not stored: %v", err)
	}
	if records[0].CommitID != c.ID {
		t.Errorf("record not bound to commit")
	}
}
