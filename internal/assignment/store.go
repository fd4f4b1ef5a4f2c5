package assignment

import (
	"context"
	"sort"
	"sync"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rubric"
)

type Store interface {
	// CreateAssignment inserts the assignment, its criteria and their tiers
	// in one transaction.
	CreateAssignment(ctx context.Context, a Assignment, criteria []rubric.Criterion) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignments(ctx context.Context, teamID string) ([]Assignment, error)

	GetCriterion(ctx context.Context, id string) (rubric.Criterion, error)
	ListCriteria(ctx context.Context, assignmentID string) ([]rubric.Criterion, error)
	// ReplaceCriterion updates the criterion row and swaps its tiers
	// wholesale in one transaction.
	ReplaceCriterion(ctx context.Context, c rubric.Criterion) error
}

// ---- in-memory store ----

type memoryStore struct {
	mu          sync.RWMutex
	assignments map[string]Assignment
	criteria    map[string]rubric.Criterion
}

func NewInMemoryStore() Store {
	return &memoryStore{
		assignments: map[string]Assignment{},
		criteria:    map[string]rubric.Criterion{},
	}
}

func (m *memoryStore) CreateAssignment(_ context.Context, a Assignment, criteria []rubric.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; ok {
		return apperr.Conflict("assignment %s already exists", a.ID)
	}
	m.assignments[a.ID] = a
	for _, c := range criteria {
		m.criteria[c.ID] = c
	}
	return nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, apperr.NotFound("assignment not found")
	}
	return a, nil
}

func (m *memoryStore) ListAssignments(_ context.Context, teamID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Assignment{}
	for _, a := range m.assignments {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) GetCriterion(_ context.Context, id string) (rubric.Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.criteria[id]
	if !ok {
		return rubric.Criterion{}, apperr.NotFound("criterion not found")
	}
	return c, nil
}

func (m *memoryStore) ListCriteria(_ context.Context, assignmentID string) ([]rubric.Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []rubric.Criterion{}
	for _, c := range m.criteria {
		if c.AssignmentID == assignmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memoryStore) ReplaceCriterion(_ context.Context, c rubric.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.criteria[c.ID]; !ok {
		return apperr.NotFound("criterion not found")
	}
	m.criteria[c.ID] = c
	return nil
}
