package repository

import (
	"context"
	"sync"
	"time"

	"github.com/yanote/notes/backend/go-services/internal/note"
)

// MemoryRepo keeps notes in process memory. Used by tests and the dev server.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]*note.Note
	bySlug map[string]string
	order  []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]*note.Note), bySlug: make(map[string]string)}
}

func (m *MemoryRepo) Create(_ context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.bySlug[n.Slug]; taken {
		return note.ErrSlugTaken
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	m.byID[n.ID] = n.Clone()
	m.bySlug[n.Slug] = n.ID
	m.order = append(m.order, n.ID)
	return nil
}

func (m *MemoryRepo) GetBySlug(_ context.Context, slug string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bySlug[slug]
	if !ok {
		return nil, note.ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryRepo) ListByAuthor(_ context.Context, authorID string) ([]*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*note.Note{}
	for _, id := range m.order {
		if n := m.byID[id]; n.AuthorID == authorID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[n.ID]
	if !ok {
		return note.ErrNotFound
	}
	if owner, taken := m.bySlug[n.Slug]; taken && owner != n.ID {
		return note.ErrSlugTaken
	}
	delete(m.bySlug, cur.Slug)
	cur.Title = n.Title
	cur.Text = n.Text
	cur.Slug = n.Slug
	cur.UpdatedAt = time.Now().UTC()
	m.bySlug[cur.Slug] = cur.ID
	n.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.remove(id) {
		return note.ErrNotFound
	}
	return nil
}

func (m *MemoryRepo) DeleteByAuthor(_ context.Context, authorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, n := range m.byID {
		if n.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		m.remove(id)
	}
	return int64(len(ids)), nil
}

func (m *MemoryRepo) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), nil
}

// remove expects m.mu to be held for writing.
func (m *MemoryRepo) remove(id string) bool {
	n, ok := m.byID[id]
	if !ok {
		return false
	}
	delete(m.byID, id)
	delete(m.bySlug, n.Slug)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}
