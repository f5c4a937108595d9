package users

import (
	"context"
	"fmt"

	"github.com/yanote/notes/backend/go-services/internal/models"
)

// DeleteHook runs after a user row is removed, e.g. to drop the user's notes
// on stores without foreign keys.
type DeleteHook func(ctx context.Context, userID string) error

// Service encapsulates user-related business logic
type Service struct {
	repo  UserRepository
	hooks []DeleteHook
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// OnDelete registers a hook run by Delete.
func (s *Service) OnDelete(h DeleteHook) {
	s.hooks = append(s.hooks, h)
}

// UpsertFromClaims creates or updates a user using an OIDC claims map.
// Claims without "sub" yield (nil, nil).
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	if sub == "" {
		return nil, nil
	}
	u := &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// Delete removes the user and, through the registered hooks, everything they own.
// Hooks only run once the user row is gone.
func (s *Service) Delete(ctx context.Context, u *models.User) error {
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	for _, h := range s.hooks {
		if err := h(ctx, u.ID); err != nil {
			return fmt.Errorf("delete user %s: %w", u.ID, err)
		}
	}
	return nil
}
