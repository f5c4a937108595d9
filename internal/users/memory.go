package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanote/notes/backend/go-services/internal/models"
)

// MemoryUserRepository keeps users in a map keyed by subject.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: map[string]*models.User{}}
}

func (r *MemoryUserRepository) UpsertBySub(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	cur, ok := r.bySub[u.Sub]
	if !ok {
		cur = &models.User{ID: uuid.NewString(), Sub: u.Sub, CreatedAt: now}
		r.bySub[u.Sub] = cur
	}
	cur.Email = u.Email
	cur.Name = u.Name
	cur.UpdatedAt = now
	out := *cur
	return &out, nil
}

func (r *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.bySub[sub]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub, u := range r.bySub {
		if u.ID == id {
			delete(r.bySub, sub)
			return nil
		}
	}
	return ErrNotFound
}
