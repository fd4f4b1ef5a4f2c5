package marking

import (
	"context"
	"sync"

	"github.com/modmark-app/modmark/internal/apperr"
)

type Store interface {
	CreateSubmission(ctx context.Context, sub Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]Submission, error)

	// UpsertMark writes the marker's score, replacing any previous score for
	// the same (submission, criterion, marker).
	UpsertMark(ctx context.Context, m Mark) (Mark, error)
	ListMarksBySubmission(ctx context.Context, submissionID string) ([]Mark, error)
	ListMarksByAssignment(ctx context.Context, assignmentID string) ([]Mark, error)

	SetControlMark(ctx context.Context, cm ControlMark) (ControlMark, error)
	ListControlMarks(ctx context.Context, assignmentID string) ([]ControlMark, error)
}

// ---- in-memory store ----

type memoryStore struct {
	mu       sync.RWMutex
	subs     map[string]Submission
	marks    map[string]Mark        // key: sub|crit|marker
	controls map[string]ControlMark // key: sub|crit
}

func NewInMemoryStore() Store {
	return &memoryStore{
		subs:     map[string]Submission{},
		marks:    map[string]Mark{},
		controls: map[string]ControlMark{},
	}
}

func markKey(sub, crit, marker string) string { return sub + "|" + crit + "|" + marker }

func (m *memoryStore) CreateSubmission(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.ID]; ok {
		return apperr.Conflict("submission %s already exists", sub.ID)
	}
	m.subs[sub.ID] = sub
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[id]
	if !ok {
		return Submission{}, apperr.NotFound("submission not found")
	}
	return sub, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, assignmentID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Submission{}
	for _, s := range m.subs {
		if s.AssignmentID == assignmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) UpsertMark(_ context.Context, mk Mark) (Mark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := markKey(mk.SubmissionID, mk.CriterionID, mk.MarkerID)
	if prev, ok := m.marks[k]; ok {
		mk.ID = prev.ID // latest wins, single row
	}
	m.marks[k] = mk
	return mk, nil
}

func (m *memoryStore) ListMarksBySubmission(_ context.Context, submissionID string) ([]Mark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Mark{}
	for _, mk := range m.marks {
		if mk.SubmissionID == submissionID {
			out = append(out, mk)
		}
	}
	return out, nil
}

func (m *memoryStore) ListMarksByAssignment(_ context.Context, assignmentID string) ([]Mark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Mark{}
	for _, mk := range m.marks {
		if sub, ok := m.subs[mk.SubmissionID]; ok && sub.AssignmentID == assignmentID {
			out = append(out, mk)
		}
	}
	return out, nil
}

func (m *memoryStore) SetControlMark(_ context.Context, cm ControlMark) (ControlMark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cm.SubmissionID + "|" + cm.CriterionID
	if prev, ok := m.controls[k]; ok {
		cm.ID = prev.ID
	}
	m.controls[k] = cm
	return cm, nil
}

func (m *memoryStore) ListControlMarks(_ context.Context, assignmentID string) ([]ControlMark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ControlMark{}
	for _, cm := range m.controls {
		if sub, ok := m.subs[cm.SubmissionID]; ok && sub.AssignmentID == assignmentID {
			out = append(out, cm)
		}
	}
	return out, nil
}
