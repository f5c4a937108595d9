package note

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugifyTransliterates(t *testing.T) {
	require.Equal(t, "zagolovok", Slugify("Заголовок"))
	require.Equal(t, "hello-world", Slugify("Hello, World!"))
	require.Equal(t, "note-2", Slugify("  Note   2 "))
}

func TestSlugifyCapsLength(t *testing.T) {
	s := Slugify(strings.Repeat("a", 150))
	require.Len(t, s, SlugMaxLength)

	// plain cut, a trailing hyphen is kept
	s = Slugify(strings.Repeat("note ", 40))
	require.Equal(t, strings.Repeat("note-", 20), s)
}

func TestResolveSlug(t *testing.T) {
	s, err := ResolveSlug("Some title", "explicit_slug")
	require.NoError(t, err)
	require.Equal(t, "explicit_slug", s)

	s, err = ResolveSlug("Some title", "  ")
	require.NoError(t, err)
	require.Equal(t, "some-title", s)

	_, err = ResolveSlug("!!!", "")
	require.ErrorIs(t, err, ErrEmptySlug)
}
