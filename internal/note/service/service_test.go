package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanote/notes/backend/go-services/internal/note"
	"github.com/yanote/notes/backend/go-services/internal/note/repository"
	"github.com/yanote/notes/backend/go-services/pkg/metrics"
)

type fakeStore struct {
	uploads map[string]string
	failPut error
}

func (f *fakeStore) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.failPut != nil {
		return f.failPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[key] = string(b)
	return nil
}

func (f *fakeStore) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://storage.local/" + key + "?expires=" + expires.String(), nil
}

func TestCreateDerivesSlugAndDefaults(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	n, err := svc.Create(ctx, "alice", note.Form{Title: "Заголовок", Text: "  Текст\n"})
	require.NoError(t, err)
	require.Equal(t, "zagolovok", n.Slug)
	require.Equal(t, "Текст", n.Text)
	require.Equal(t, "alice", n.AuthorID)
	require.NotEmpty(t, n.ID)

	n2, err := svc.Create(ctx, "alice", note.Form{Text: "no title"})
	require.NoError(t, err)
	require.Equal(t, note.DefaultTitle, n2.Title)
	require.Equal(t, "note-title", n2.Slug)

	_, err = svc.Create(ctx, "", note.Form{Title: "x", Text: "y"})
	require.ErrorIs(t, err, note.ErrNoAuthor)

	_, err = svc.Create(ctx, "alice", note.Form{Title: "???", Text: "y"})
	require.ErrorIs(t, err, note.ErrEmptySlug)
}

func TestCreateDuplicateSlugFails(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.SlugConflicts)

	_, err := svc.Create(ctx, "alice", note.Form{Title: "a", Text: "t", Slug: "slug"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", note.Form{Title: "b", Text: "t", Slug: "slug"})
	require.ErrorIs(t, err, note.ErrSlugTaken)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.SlugConflicts))
}

func TestListIsScopedToAuthor(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	_, err := svc.Create(ctx, "alice", note.Form{Title: "mine", Text: "t"})
	require.NoError(t, err)

	alice, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)

	bob, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, bob)

	anon, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, anon)
}

func TestForeignNotesLookMissing(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", note.Form{Title: "private", Text: "t"})
	require.NoError(t, err)

	_, err = svc.GetForAuthor(ctx, "bob", n.Slug)
	require.ErrorIs(t, err, note.ErrNotFound)
	_, err = svc.Update(ctx, "bob", n.Slug, note.Form{Text: "hacked"})
	require.ErrorIs(t, err, note.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "bob", n.Slug), note.ErrNotFound)

	got, err := svc.GetForAuthor(ctx, "alice", n.Slug)
	require.NoError(t, err)
	require.Equal(t, "t", got.Text)
	count, _ := svc.Count(ctx)
	require.EqualValues(t, 1, count)
}

func TestUpdateRederivesBlankSlug(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", note.Form{Title: "Old", Text: "t", Slug: "custom"})
	require.NoError(t, err)

	up, err := svc.Update(ctx, "alice", n.Slug, note.Form{Title: "New title", Text: "t2"})
	require.NoError(t, err)
	require.Equal(t, "new-title", up.Slug)

	_, err = svc.GetForAuthor(ctx, "alice", "custom")
	require.ErrorIs(t, err, note.ErrNotFound)

	other, err := svc.Create(ctx, "alice", note.Form{Title: "Other", Text: "t"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "alice", other.Slug, note.Form{Title: "Other", Text: "t", Slug: "new-title"})
	require.ErrorIs(t, err, note.ErrSlugTaken)
}

func TestDeleteAndDeleteByAuthor(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, "alice", note.Form{Title: "a1", Text: "t"})
	_, _ = svc.Create(ctx, "alice", note.Form{Title: "a2", Text: "t"})
	_, _ = svc.Create(ctx, "bob", note.Form{Title: "b1", Text: "t"})

	require.NoError(t, svc.Delete(ctx, "alice", a.Slug))
	require.ErrorIs(t, svc.Delete(ctx, "alice", a.Slug), note.ErrNotFound)

	removed, err := svc.DeleteByAuthor(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	count, _ := svc.Count(ctx)
	require.EqualValues(t, 1, count)
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	disabled := NewMemoryService()
	_, err := disabled.Export(ctx, "alice", "x")
	require.ErrorIs(t, err, note.ErrNotFound)
	mine, err := disabled.Create(ctx, "alice", note.Form{Title: "Mine", Text: "t"})
	require.NoError(t, err)
	_, err = disabled.Export(ctx, "bob", mine.Slug)
	require.ErrorIs(t, err, note.ErrNotFound)
	_, err = disabled.Export(ctx, "alice", mine.Slug)
	require.ErrorIs(t, err, ErrExportUnavailable)

	store := &fakeStore{}
	svc := New(repository.NewMemoryRepo(), store)
	n, err := svc.Create(ctx, "alice", note.Form{Title: "Export me", Text: "body"})
	require.NoError(t, err)

	url, err := svc.Export(ctx, "alice", n.Slug)
	require.NoError(t, err)
	key := "notes/alice/export-me.md"
	require.True(t, strings.HasPrefix(url, "https://storage.local/"+key))
	require.Equal(t, "# Export me\n\nbody\n", store.uploads[key])

	_, err = svc.Export(ctx, "bob", n.Slug)
	require.ErrorIs(t, err, note.ErrNotFound)

	store.failPut = errors.New("boom")
	_, err = svc.Export(ctx, "alice", n.Slug)
	require.Error(t, err)
}
