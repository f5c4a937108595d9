package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yanote/notes/backend/go-services/internal/note"
	"github.com/yanote/notes/backend/go-services/internal/note/repository"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
	"github.com/yanote/notes/backend/go-services/pkg/metrics"
)

var ErrExportUnavailable = errors.New("note export storage not configured")

// ExportURLTTL is how long a presigned export link stays valid.
const ExportURLTTL = 15 * time.Minute

// ObjectStore is the subset of object storage used for note exports.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Service defines the note operations used by the handler layer. Every
// operation is scoped to an author: notes of other users behave as if they
// did not exist.
type Service interface {
	Create(ctx context.Context, authorID string, f note.Form) (*note.Note, error)
	List(ctx context.Context, authorID string) ([]*note.Note, error)
	GetForAuthor(ctx context.Context, authorID, slug string) (*note.Note, error)
	Update(ctx context.Context, authorID, slug string, f note.Form) (*note.Note, error)
	Delete(ctx context.Context, authorID, slug string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	Export(ctx context.Context, authorID, slug string) (string, error)
	Count(ctx context.Context) (int64, error)
}

// New returns a Service over repo. store may be nil, which disables Export.
func New(repo repository.Repository, store ObjectStore) Service {
	return &noteService{repo: repo, store: store}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo(), nil)
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(ctx context.Context, col *mongo.Collection, store ObjectStore) (Service, error) {
	repo, err := repository.NewMongoRepo(ctx, col)
	if err != nil {
		return nil, err
	}
	return New(repo, store), nil
}

// NewPostgresService returns a Service backed by the notes table.
func NewPostgresService(db *sql.DB, store ObjectStore) Service {
	return New(repository.NewPostgresRepo(db), store)
}

type noteService struct {
	repo  repository.Repository
	store ObjectStore
}

func (s *noteService) Create(ctx context.Context, authorID string, f note.Form) (*note.Note, error) {
	if authorID == "" {
		return nil, note.ErrNoAuthor
	}
	title := titleOrDefault(f.Title)
	slug, err := note.ResolveSlug(title, f.Slug)
	if err != nil {
		return nil, err
	}
	n := &note.Note{
		ID:       uuid.NewString(),
		Title:    title,
		Text:     strings.TrimSpace(f.Text),
		Slug:     slug,
		AuthorID: authorID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, s.saveErr(err, slug)
	}
	metrics.NoteOps.WithLabelValues("create").Inc()
	logger.Debugf("note created: slug=%s author=%s", n.Slug, authorID)
	return n, nil
}

func (s *noteService) List(ctx context.Context, authorID string) ([]*note.Note, error) {
	if authorID == "" {
		return []*note.Note{}, nil
	}
	return s.repo.ListByAuthor(ctx, authorID)
}

func (s *noteService) GetForAuthor(ctx context.Context, authorID, slug string) (*note.Note, error) {
	n, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if authorID == "" || n.AuthorID != authorID {
		return nil, note.ErrNotFound
	}
	return n, nil
}

func (s *noteService) Update(ctx context.Context, authorID, slug string, f note.Form) (*note.Note, error) {
	n, err := s.GetForAuthor(ctx, authorID, slug)
	if err != nil {
		return nil, err
	}
	n.Title = titleOrDefault(f.Title)
	n.Text = strings.TrimSpace(f.Text)
	if n.Slug, err = note.ResolveSlug(n.Title, f.Slug); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, s.saveErr(err, n.Slug)
	}
	metrics.NoteOps.WithLabelValues("update").Inc()
	return n, nil
}

func (s *noteService) Delete(ctx context.Context, authorID, slug string) error {
	n, err := s.GetForAuthor(ctx, authorID, slug)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, n.ID); err != nil {
		return err
	}
	metrics.NoteOps.WithLabelValues("delete").Inc()
	return nil
}

func (s *noteService) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	removed, err := s.repo.DeleteByAuthor(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete notes of %s: %w", authorID, err)
	}
	return removed, nil
}

// Export uploads the note as markdown and returns a presigned download URL.
func (s *noteService) Export(ctx context.Context, authorID, slug string) (string, error) {
	n, err := s.GetForAuthor(ctx, authorID, slug)
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", ErrExportUnavailable
	}
	body := RenderMarkdown(n)
	key := fmt.Sprintf("notes/%s/%s.md", n.AuthorID, n.Slug)
	if err := s.store.UploadFile(ctx, key, strings.NewReader(body), int64(len(body)), "text/markdown; charset=utf-8"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	url, err := s.store.GetPresignedURL(ctx, key, ExportURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	metrics.NoteOps.WithLabelValues("export").Inc()
	return url, nil
}

func (s *noteService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *noteService) saveErr(err error, slug string) error {
	if errors.Is(err, note.ErrSlugTaken) {
		metrics.SlugConflicts.Inc()
		logger.Debugf("slug conflict: %s", slug)
	}
	return err
}

// RenderMarkdown is the export format: a title heading followed by the text.
func RenderMarkdown(n *note.Note) string {
	return "# " + n.Title + "\n\n" + n.Text + "\n"
}

func titleOrDefault(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return note.DefaultTitle
}
