// Package repository provides the persistence backends for forms and responses.
// Repositories do not check ownership or publication state; the service layer does.
package repository

import (
	"context"
	"sync"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

// Memory keeps forms and responses in process memory. Values are cloned on
// the way in and out so callers never share state with the repository.
type Memory struct {
	mu        sync.RWMutex
	order     []string
	forms     map[string]entity.FormDefinition
	responses map[string][]entity.Response
}

// NewMemory creates a repository holding the given seed forms
func NewMemory(seed ...entity.FormDefinition) *Memory {
	m := &Memory{
		forms:     make(map[string]entity.FormDefinition),
		responses: make(map[string][]entity.Response),
	}
	for _, f := range seed {
		m.put(f)
	}
	return m
}

func (m *Memory) ListForms(_ context.Context, ownerID string) ([]entity.FormDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []entity.FormDefinition{}
	for _, id := range m.order {
		if f := m.forms[id]; f.OwnerID == ownerID {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

func (m *Memory) GetForm(_ context.Context, formID string) (entity.FormDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.forms[formID]
	if !ok {
		return entity.FormDefinition{}, entity.ErrNotFound
	}
	return f.Clone(), nil
}

// SaveForm inserts or replaces the form with the same id
func (m *Memory) SaveForm(_ context.Context, form entity.FormDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(form)
	return nil
}

func (m *Memory) AppendResponse(_ context.Context, resp entity.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[resp.FormID]; !ok {
		return entity.ErrNotFound
	}
	m.responses[resp.FormID] = append(m.responses[resp.FormID], resp.Clone())
	return nil
}

func (m *Memory) ListResponses(_ context.Context, formID string) ([]entity.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.forms[formID]; !ok {
		return nil, entity.ErrNotFound
	}
	out := entity.CloneResponses(m.responses[formID])
	if out == nil {
		out = []entity.Response{}
	}
	return out, nil
}

// put must be called with mu held for writing
func (m *Memory) put(form entity.FormDefinition) {
	if _, exists := m.forms[form.ID]; !exists {
		m.order = append(m.order, form.ID)
	}
	m.forms[form.ID] = form.Clone()
}

// snapshot copies the full state, used by the file repository
func (m *Memory) snapshot() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := snapshot{
		Forms:     make([]entity.FormDefinition, 0, len(m.order)),
		Responses: make(map[string][]entity.Response, len(m.responses)),
	}
	for _, id := range m.order {
		snap.Forms = append(snap.Forms, m.forms[id].Clone())
	}
	for id, list := range m.responses {
		snap.Responses[id] = entity.CloneResponses(list)
	}
	return snap
}

// restore replaces the full state
func (m *Memory) restore(snap snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = nil
	m.forms = make(map[string]entity.FormDefinition, len(snap.Forms))
	m.responses = make(map[string][]entity.Response, len(snap.Responses))
	for _, f := range snap.Forms {
		m.put(f)
	}
	for id, list := range snap.Responses {
		m.responses[id] = entity.CloneResponses(list)
	}
}
