package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yanote/notes/backend/go-services/internal/note"
)

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	n := &note.Note{ID: "n1", Title: "First", Text: "hello", Slug: "first", AuthorID: "u1"}
	require.NoError(t, r.Create(ctx, n))
	require.False(t, n.CreatedAt.IsZero())

	got, err := r.GetBySlug(ctx, "first")
	require.NoError(t, err)
	require.Equal(t, "hello", got.Text)

	list, err := r.ListByAuthor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got.Text = "new"
	got.Slug = "renamed"
	require.NoError(t, r.Update(ctx, got))
	_, err = r.GetBySlug(ctx, "first")
	require.ErrorIs(t, err, note.ErrNotFound)
	got2, err := r.GetBySlug(ctx, "renamed")
	require.NoError(t, err)
	require.Equal(t, "new", got2.Text)

	require.NoError(t, r.Delete(ctx, "n1"))
	_, err = r.GetBySlug(ctx, "renamed")
	require.ErrorIs(t, err, note.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "n1"), note.ErrNotFound)
}

func TestMemoryRepoRejectsDuplicateSlug(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &note.Note{ID: "a", Slug: "slug", AuthorID: "u1"}))
	require.ErrorIs(t, r.Create(ctx, &note.Note{ID: "b", Slug: "slug", AuthorID: "u2"}), note.ErrSlugTaken)

	require.NoError(t, r.Create(ctx, &note.Note{ID: "c", Slug: "other", AuthorID: "u1"}))
	require.ErrorIs(t, r.Update(ctx, &note.Note{ID: "c", Slug: "slug"}), note.ErrSlugTaken)

	// keeping its own slug is not a conflict
	require.NoError(t, r.Update(ctx, &note.Note{ID: "a", Slug: "slug", Text: "x"}))

	count, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestMemoryRepoListAndDeleteByAuthor(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &note.Note{ID: "1", Slug: "a1", AuthorID: "alice"}))
	require.NoError(t, r.Create(ctx, &note.Note{ID: "2", Slug: "b1", AuthorID: "bob"}))
	require.NoError(t, r.Create(ctx, &note.Note{ID: "3", Slug: "a2", AuthorID: "alice"}))

	list, err := r.ListByAuthor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a1", list[0].Slug)
	require.Equal(t, "a2", list[1].Slug)

	removed, err := r.DeleteByAuthor(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	list, err = r.ListByAuthor(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, list)
	count, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &note.Note{ID: "1", Slug: "s", Text: "orig", AuthorID: "u"}))
	got, err := r.GetBySlug(ctx, "s")
	require.NoError(t, err)
	got.Text = "mutated"
	again, err := r.GetBySlug(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, "orig", again.Text)
}
