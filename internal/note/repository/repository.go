package repository

import (
	"context"

	"github.com/yanote/notes/backend/go-services/internal/note"
)

// Repository persists notes. Implementations enforce slug uniqueness and report
// violations as note.ErrSlugTaken; missing rows are note.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, n *note.Note) error
	GetBySlug(ctx context.Context, slug string) (*note.Note, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*note.Note, error)
	// Update rewrites title, text and slug of the note with n.ID.
	Update(ctx context.Context, n *note.Note) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}
